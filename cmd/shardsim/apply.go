package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/shardsim/internal/cluster"
)

type applyOptions struct {
	server  string
	session string
	config  cluster.Config
	timeout time.Duration
	asJSON  bool
}

func newApplyCmd() *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Send a cluster shape to a running coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			view, err := applyConfig(ctx, opts.server, opts.session, opts.config)
			if err != nil {
				return err
			}
			return renderView(cmd.OutOrStdout(), view, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.server, "server", "s", "http://localhost:8080", "Coordinator URL")
	cmd.Flags().StringVar(&opts.session, "session", "", "Session name (coordinator default if empty)")
	cmd.Flags().IntVarP(&opts.config.Nodes, "nodes", "n", 3, "Number of nodes")
	cmd.Flags().IntVarP(&opts.config.Primaries, "primaries", "p", 3, "Number of primary shards")
	cmd.Flags().IntVarP(&opts.config.Replicas, "replicas", "r", 1, "Number of replicas per primary")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func applyConfig(ctx context.Context, server, session string, cfg cluster.Config) (cluster.SnapshotView, error) {
	var view cluster.SnapshotView
	url := strings.TrimRight(server, "/") + "/allocate"
	err := cluster.PostJSON(ctx, url, cluster.AllocateRequest{Session: session, Config: cfg}, &view)
	return view, err
}
