package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/scenario"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command error to the process exit code: 1 for test
// failures, 2 for setup and usage problems
func exitCodeFor(err error) int {
	var unknown *scenario.UnknownScenarioError
	if errors.As(err, &unknown) {
		return errdefs.ExitSetup
	}
	return errdefs.ExitCode(err)
}

var rootCmd = &cobra.Command{
	Use:   "dnsrig",
	Short: "dnsrig - End-to-end test rig for DNS-based service discovery",
	Long: `dnsrig runs end-to-end test scenarios against a DNS-based service
discovery daemon. It emulates a small network of hosts on a Linux
bridge, starts one service instance per host, then drives the instances
through publish, resolve, delete and re-publish sequences, checking
that answers appear and expire when they should.

Provisioning uses network namespaces and veth pairs, so 'dnsrig run'
needs root.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{
			Level:      log.Level(logLevel),
			JSONOutput: logFormat == "json",
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dnsrig version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(runsCmd)
}
