package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/adapter"
)

var (
	installManager string
	installDev     bool
	installUpgrade bool
	installTimeout time.Duration
)

var installCmd = &cobra.Command{
	Use:   "install <packages...>",
	Short: "Install packages through the project's package manager",
	Long: `Install runs the detected (or explicitly chosen) package manager with its
cache redirected to the bottle's mounted volume. Package specifiers are
passed through in the manager's own dialect, e.g.:

  bottle install requests 'flask>=3.0'
  bottle install --manager npm left-pad`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVarP(&installManager, "manager", "m", "", "package manager to use (default: auto-detect)")
	installCmd.Flags().BoolVar(&installDev, "dev", false, "install into the development group")
	installCmd.Flags().BoolVar(&installUpgrade, "upgrade", false, "upgrade if already installed")
	installCmd.Flags().DurationVar(&installTimeout, "timeout", 0, "override the install timeout tier")
}

func runInstall(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	a, err := rc.resolveAdapter(installManager)
	if err != nil {
		return err
	}

	result, err := a.InstallPackages(args, adapter.InstallOptions{
		Dev:     installDev,
		Upgrade: installUpgrade,
		Timeout: installTimeout,
	})
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	fmt.Printf("Installed %d package(s) via %s in %s.\n",
		len(result.Packages), a.Name(), result.Duration.Round(time.Millisecond))
	return nil
}
