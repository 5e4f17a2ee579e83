package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/bottle"
)

var rmCmd = &cobra.Command{
	Use:   "rm <bottle-id>...",
	Short: "Remove bottle records",
	Long:  `Remove bottle records. The cache volumes they used are left intact; use 'bottle cache clear' for those.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	store, err := bottle.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access bottle store: %w", err)
	}

	for _, id := range args {
		if err := store.Delete(id); err != nil {
			return fmt.Errorf("failed to remove bottle %s: %w", id, err)
		}
		fmt.Printf("Removed bottle %s\n", id)
	}
	return nil
}
