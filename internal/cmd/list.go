package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listManager string

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List packages installed in the project's environment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listManager, "manager", "m", "", "package manager to use (default: auto-detect)")
}

func runList(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	rc, err := newRunContext(dir)
	if err != nil {
		return err
	}
	defer rc.close()

	a, err := rc.resolveAdapter(listManager)
	if err != nil {
		return err
	}

	result, err := a.InstalledPackages(rc.deps.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}
	if result.Empty {
		fmt.Println("No packages installed.")
		return nil
	}

	pkgs := result.Packages
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PACKAGE\tVERSION")
	for _, p := range pkgs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Version)
	}
	_ = w.Flush()
	return nil
}
