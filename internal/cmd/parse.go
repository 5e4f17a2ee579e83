package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var parseManager string

var parseCmd = &cobra.Command{
	Use:   "parse [dir]",
	Short: "Parse a project's manifest into the normalized dependency model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseManager, "manager", "m", "", "package manager to use (default: auto-detect)")
}

func runParse(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	rc, err := newRunContext(dir)
	if err != nil {
		return err
	}
	defer rc.close()

	a, err := rc.resolveAdapter(parseManager)
	if err != nil {
		return err
	}

	result, err := a.ParseManifest(rc.deps.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if !result.Found {
		fmt.Printf("No %s manifest found in %s.\n", a.Name(), rc.deps.ProjectDir)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Manifest)
}
