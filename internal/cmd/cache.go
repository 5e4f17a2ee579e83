package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bottlehq/bottle/internal/volume"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage per-manager cache volumes",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report usage statistics for every mounted cache",
	RunE:  runCacheStats,
}

var cacheMountCmd = &cobra.Command{
	Use:   "mount <manager> [path]",
	Short: "Mount a package manager's cache volume",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCacheMount,
}

var cacheUnmountCmd = &cobra.Command{
	Use:   "unmount <manager>",
	Short: "Deactivate a package manager's cache volume",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheUnmount,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [manager]",
	Short: "Empty one or all cache volumes in place",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the environment variables for the active mounts",
	RunE:  runCacheEnv,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheMountCmd, cacheUnmountCmd, cacheClearCmd, cacheEnvCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	stats, err := rc.volumes.GetStats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No active cache mounts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MANAGER\tSIZE\tITEMS\tLAST MODIFIED")
	for _, s := range stats {
		modified := "never"
		if !s.LastModified.IsZero() {
			modified = humanize.Time(s.LastModified)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Manager, s.HumanSize(), s.ItemCount, modified)
	}
	_ = w.Flush()
	fmt.Printf("\nTotal: %s\n", humanize.Bytes(uint64(volume.TotalSize(stats))))
	return nil
}

func runCacheMount(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	m, err := rc.volumes.Mount(args[0], path)
	if err != nil {
		return err
	}
	fmt.Printf("Mounted %s at %s (%s)\n", m.Manager, m.Path, m.MountPath)
	return nil
}

func runCacheUnmount(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	if err := rc.volumes.Unmount(args[0]); err != nil {
		return err
	}
	fmt.Printf("Unmounted %s\n", args[0])
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	manager := ""
	if len(args) > 0 {
		manager = args[0]
	}
	if err := rc.volumes.Clear(manager); err != nil {
		return err
	}
	if manager == "" {
		fmt.Println("Cleared all cache volumes.")
	} else {
		fmt.Printf("Cleared %s cache.\n", manager)
	}
	return nil
}

func runCacheEnv(cmd *cobra.Command, args []string) error {
	rc, err := newRunContext("")
	if err != nil {
		return err
	}
	defer rc.close()

	for k, v := range rc.volumes.MountEnvVars() {
		fmt.Printf("%s=%s\n", k, v)
	}
	return nil
}
