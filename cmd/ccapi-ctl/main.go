// Ccapi-ctl is a command line utility for getAir ComfortControl
// ventilation devices.
//
// It talks to the getAir cloud service on the user's behalf: it stores
// account credentials, enumerates the devices bound to the account, shows
// and changes their settings, and offers a live terminal dashboard per
// device. Local devices can additionally be located via mDNS.
//
// Usage:
//
//	ccapi-ctl [command] [flags]
//
// See 'ccapi-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getair-community/ccapi/internal/logging"
	"github.com/getair-community/ccapi/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ccapi-ctl",
	Short: "getAir ComfortControl Command Line Utility",
	Long: `A command line utility for getAir ComfortControl ventilation devices.

Stores account credentials, lists the devices bound to the account, reads
and changes ventilation settings through the getAir cloud service, and
provides a live terminal dashboard per device.

Run 'ccapi-ctl login' once to store credentials before using the other
commands.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ccapi-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
