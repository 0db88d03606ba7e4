package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dreamware/shardsim/internal/allocator"
	"github.com/dreamware/shardsim/internal/cluster"
)

type allocateOptions struct {
	first  cluster.Config
	then   []string
	asJSON bool
}

func newAllocateCmd() *cobra.Command {
	opts := &allocateOptions{}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Run the shard allocator locally",
		Long: `Run the shard allocator for one cluster shape, or for a sequence of shapes.
Each step receives the placement history of the previous step, so copies that
move between steps are reported as relocated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := opts.steps()
			if err != nil {
				return err
			}
			return runAllocate(cmd, steps, opts.asJSON)
		},
	}

	cmd.Flags().IntVarP(&opts.first.Nodes, "nodes", "n", 3, "Number of nodes")
	cmd.Flags().IntVarP(&opts.first.Primaries, "primaries", "p", 3, "Number of primary shards")
	cmd.Flags().IntVarP(&opts.first.Replicas, "replicas", "r", 1, "Number of replicas per primary")
	cmd.Flags().StringArrayVar(&opts.then, "then", nil, "Further shapes to apply in order, as nodes,primaries,replicas")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print snapshots as JSON")
	return cmd
}

// steps returns the validated shapes in the order they are applied.
// Only negative values are rejected; an empty cluster is a valid lesson.
func (o *allocateOptions) steps() ([]cluster.Config, error) {
	steps := []cluster.Config{o.first}
	for _, s := range o.then {
		cfg, err := cluster.ParseConfig(s)
		if err != nil {
			return nil, errors.Wrap(err, "--then")
		}
		steps = append(steps, cfg)
	}

	for i, cfg := range steps {
		if err := cfg.Validate(cluster.Unbounded()); err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
	}
	return steps, nil
}

func runAllocate(cmd *cobra.Command, steps []cluster.Config, asJSON bool) error {
	out := cmd.OutOrStdout()

	var history allocator.History
	for i, cfg := range steps {
		var snap *allocator.Snapshot
		snap, history = allocator.Allocate(cfg.Nodes, cfg.Primaries, cfg.Replicas, history)

		if !asJSON && len(steps) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Step %d: %d nodes, %d primaries, %d replicas\n", i+1, cfg.Nodes, cfg.Primaries, cfg.Replicas)
		}
		if err := renderView(out, cluster.NewSnapshotView("", cfg, snap), asJSON); err != nil {
			return err
		}
	}
	return nil
}
