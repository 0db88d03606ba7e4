// Package main implements the shardsim command, a teaching tool that shows
// how a search cluster places primary and replica shards onto nodes.
//
// Subcommands:
//
//	shardsim allocate   run the allocator locally and print the placement
//	shardsim serve      start the HTTP coordinator hosting simulation sessions
//	shardsim apply      send a cluster shape to a running coordinator
//
// Example usage:
//
//	# One node, five primaries, one replica each: replicas stay unassigned
//	shardsim allocate --nodes 1 --primaries 5 --replicas 1
//
//	# Scale out and watch which shards move
//	shardsim allocate --nodes 1 --primaries 2 --replicas 0 --then 2,2,0 --then 3,2,0
//
//	# Serve the API
//	SHARDSIM_ADDR=:9090 shardsim serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dreamware/shardsim/internal/logging"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shardsim",
		Short:         "Shard allocation simulator",
		Long:          `Simulates how a search cluster spreads primary and replica shards across nodes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := logging.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			logging.LogLevel = level
			logging.ConfigureLogger()
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "l", logging.DefaultLogLevel.String(), "Set logging level [debug|info|warn|error]")
	root.PersistentFlags().BoolVarP(&logging.LogJSON, "log-json", "j", false, "Print logs in JSON format")

	root.AddCommand(newAllocateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newApplyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
