package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/bottle"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List bottles",
	Long:  `List all recorded bottles with their project, manager and status.`,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	store, err := bottle.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access bottle store: %w", err)
	}

	bottles, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list bottles: %w", err)
	}

	if len(bottles) == 0 {
		fmt.Println("No bottles.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROJECT\tMANAGER\tSTATUS\tCREATED")
	for _, b := range bottles {
		created := b.CreatedAt.Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID,
			b.ProjectDir,
			b.Manager,
			b.Status,
			created,
		)
	}
	_ = w.Flush()
	return nil
}
