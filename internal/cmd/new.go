package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/bottle"
)

var newManager string

var newCmd = &cobra.Command{
	Use:   "new [dir]",
	Short: "Create a bottle for a project directory",
	Long: `Create records a bottle for a project: the detected (or chosen) package
manager, the project directory, and the cache root its mounts live under.
The bottle's ID keys the persistent shell pool, so later commands for the
same bottle reuse one shell.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newManager, "manager", "m", "", "package manager to use (default: auto-detect)")
}

func runNew(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}
	rc, err := newRunContext(dir)
	if err != nil {
		return err
	}
	defer rc.close()

	a, err := rc.resolveAdapter(newManager)
	if err != nil {
		return err
	}

	store, err := bottle.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access bottle store: %w", err)
	}
	b, err := store.Create(rc.deps.ProjectDir, a.Name(), rc.cfg.CacheRoot)
	if err != nil {
		return fmt.Errorf("failed to create bottle: %w", err)
	}

	fmt.Printf("Created bottle %s (%s, %s)\n", b.ID, b.Manager, b.ProjectDir)
	return nil
}
