package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/adapter"
)

var detectCmd = &cobra.Command{
	Use:   "detect [dir]",
	Short: "Detect which package managers govern a project",
	Long: `Detect ranks every registered package manager adapter against a project
directory by confidence. Multiple managers can share a manifest format
(pyproject.toml most of all), so detection is a ranking, not a single claim.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	rc, err := newRunContext(dir)
	if err != nil {
		return err
	}
	defer rc.close()

	ranked := adapter.DetectAll(rc.deps.ProjectDir, rc.deps)
	if len(ranked) == 0 {
		fmt.Println("No package manager detected.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MANAGER\tCONFIDENCE\tMANIFESTS\tLOCKS")
	for _, r := range ranked {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n",
			r.Name,
			r.Detection.Confidence,
			strings.Join(baseNames(r.Detection.ManifestFiles), ","),
			strings.Join(baseNames(r.Detection.LockFiles), ","),
		)
	}
	_ = w.Flush()
	return nil
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
			p = p[idx+1:]
		}
		out[i] = p
	}
	return out
}
