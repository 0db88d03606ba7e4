package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dreamware/shardsim/internal/cluster"
)

// renderView prints a snapshot either as indented JSON or as node cards.
func renderView(w io.Writer, view cluster.SnapshotView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cluster health: %s | %d primaries, %d replicas per primary | %.1f%% active\n",
		strings.ToUpper(view.Health), view.Config.Primaries, view.Config.Replicas, view.ActiveShardsPercent)

	for _, n := range view.Nodes {
		fmt.Fprintf(&b, "  %-8s [%d] %s\n", n.Name, len(n.Shards), badges(n.Shards))
	}
	if len(view.Nodes) == 0 {
		b.WriteString("  (no nodes)\n")
	}

	if len(view.Unassigned) > 0 {
		fmt.Fprintf(&b, "  Unassigned (%d primaries, %d replicas): %s\n",
			view.UnassignedPrimaries, view.UnassignedReplicas, badges(view.Unassigned))
	}
	if len(view.Relocated) > 0 {
		fmt.Fprintf(&b, "  Relocated: %s\n", strings.Join(view.Relocated, " "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// badges renders shard labels; relocated copies are marked with '*'.
func badges(shards []cluster.ShardView) string {
	labels := make([]string, 0, len(shards))
	for _, s := range shards {
		label := s.Label
		if s.Relocated {
			label += "*"
		}
		labels = append(labels, label)
	}
	return strings.Join(labels, " ")
}
