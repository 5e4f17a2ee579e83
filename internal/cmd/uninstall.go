package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/adapter"
)

var uninstallManager string

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <packages...>",
	Short: "Remove packages through the project's package manager",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().StringVarP(&uninstallManager, "manager", "m", "", "package manager to use (default: auto-detect)")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	a, err := rc.resolveAdapter(uninstallManager)
	if err != nil {
		return err
	}

	result, err := a.UninstallPackages(args, adapter.InstallOptions{})
	if err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}

	fmt.Printf("Removed %d package(s) via %s in %s.\n",
		len(result.Packages), a.Name(), result.Duration.Round(time.Millisecond))
	return nil
}
