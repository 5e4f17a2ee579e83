package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bottle",
	Short: "Bottle - isolated package manager sandboxes",
	Long: `Bottle provisions isolated, reproducible execution sandboxes in which
package managers (pip, uv, npm, ...) run with their caches redirected to
dedicated, addressable volumes.

Detect the package manager for a project:
  bottle detect
  bottle detect ~/code/myapp

Install packages through the detected manager:
  bottle install requests 'flask>=3.0'

Inspect cache volumes:
  bottle cache stats
  bottle cache clear pip`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.bottle/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	// Config is loaded on-demand in subcommands
}
