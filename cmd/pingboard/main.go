// Package main is the entry point for the pingboard CLI.
//
// Pingboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	pingboard serve -c config.yaml    # Start polling and the status API
//	pingboard validate -c config.yaml # Validate configuration
//	pingboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pingboard",
	Short: "A fleet reachability monitor for local machines",
	Long: `Pingboard keeps a live reachability picture of a small fleet of
machines on your network.

It pings each configured machine at a fixed interval, optionally checks
that a known service is answering HTTP on the machine, and serves the
aggregated fleet status as JSON with Server-Sent Events for live updates.

Quick start:
  1. Create a config file (pingboard.yaml)
  2. Run: pingboard serve -c pingboard.yaml
  3. Query http://localhost:8080/api/fleet

Example config:
  port: 8080
  poll_interval: 30s
  targets:
    - name: Living Room Pi
      address: 10.0.0.21
    - name: Zigbee Pi
      address: 10.0.0.22
      service_check:
        port: 8080
        match_hint: Zigbee2MQTT`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pingboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pingboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
