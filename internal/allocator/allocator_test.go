package allocator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardsim/internal/shard"
)

// shardIDs returns the unique IDs of a node's copies in placement order
func shardIDs(n Node) []string {
	ids := make([]string, 0, len(n.Shards))
	for _, c := range n.Shards {
		ids = append(ids, c.ID)
	}
	return ids
}

// TestAllocateProperties checks conservation, anti-affinity and health
// consistency across a grid of cluster shapes
func TestAllocateProperties(t *testing.T) {
	for nodes := 0; nodes <= 6; nodes++ {
		for primaries := 0; primaries <= 8; primaries++ {
			for replicas := 0; replicas <= 4; replicas++ {
				name := fmt.Sprintf("n=%d/p=%d/r=%d", nodes, primaries, replicas)
				t.Run(name, func(t *testing.T) {
					snap, hist := Allocate(nodes, primaries, replicas, nil)
					require.Len(t, snap.Nodes, nodes)

					// Conservation
					assert.Equal(t, primaries*(1+replicas), snap.Total())

					// Every copy appears exactly once
					seen := make(map[string]int)
					for _, n := range snap.Nodes {
						// Anti-affinity
						ids := make(map[int]bool)
						for _, c := range n.Shards {
							assert.False(t, ids[c.ShardID], "node %d hosts shard %d twice", n.ID, c.ShardID)
							ids[c.ShardID] = true
							seen[c.ID]++
						}
					}
					for _, c := range snap.Unassigned {
						seen[c.ID]++
					}
					assert.Len(t, seen, primaries*(1+replicas))
					for id, count := range seen {
						assert.Equal(t, 1, count, "copy %s counted %d times", id, count)
					}

					// Health consistency
					up, ur := snap.UnassignedByRole()
					switch {
					case len(snap.Unassigned) == 0:
						assert.Equal(t, HealthGreen, snap.Health)
					case up > 0:
						assert.Equal(t, HealthRed, snap.Health)
					default:
						assert.Greater(t, ur, 0)
						assert.Equal(t, HealthYellow, snap.Health)
					}

					// History records exactly the placed copies
					assert.Len(t, hist, snap.Placed())
					for _, c := range snap.Unassigned {
						_, ok := hist[c.ID]
						assert.False(t, ok)
					}

					// Nothing relocates on a first run
					assert.Empty(t, snap.Relocated)
				})
			}
		}
	}
}

// TestAllocateDeterministic verifies identical inputs give identical snapshots
func TestAllocateDeterministic(t *testing.T) {
	_, prior := Allocate(2, 5, 1, nil)

	first, firstHist := Allocate(4, 5, 2, prior)
	second, secondHist := Allocate(4, 5, 2, prior)

	assert.Equal(t, first, second)
	assert.Equal(t, firstHist, secondHist)
}

// TestAllocateInsufficientNodes covers a single node with replicas configured
func TestAllocateInsufficientNodes(t *testing.T) {
	snap, _ := Allocate(1, 5, 1, History{})

	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, []string{"0-p", "1-p", "2-p", "3-p", "4-p"}, shardIDs(snap.Nodes[0]))

	require.Len(t, snap.Unassigned, 5)
	for _, c := range snap.Unassigned {
		assert.Equal(t, shard.RoleReplica, c.Role)
	}
	assert.Equal(t, HealthYellow, snap.Health)
}

// TestAllocateSufficientNodes covers a cluster that can hold every copy
func TestAllocateSufficientNodes(t *testing.T) {
	snap, _ := Allocate(3, 3, 1, History{})

	assert.Empty(t, snap.Unassigned)
	assert.Equal(t, HealthGreen, snap.Health)
	assert.Equal(t, 6, snap.Placed())

	// Greedy order: primaries spread first, then each replica goes to the least
	// loaded eligible node, lowest ID on ties. R2 cannot join Node-3, which
	// already holds P2, so Node-1 takes a third copy.
	assert.Equal(t, []string{"0-p", "1-r0", "2-r0"}, shardIDs(snap.Nodes[0]))
	assert.Equal(t, []string{"1-p", "0-r0"}, shardIDs(snap.Nodes[1]))
	assert.Equal(t, []string{"2-p"}, shardIDs(snap.Nodes[2]))
}

// TestAllocateZeroNodes covers an empty cluster
func TestAllocateZeroNodes(t *testing.T) {
	snap, hist := Allocate(0, 2, 0, History{})

	assert.Empty(t, snap.Nodes)
	require.Len(t, snap.Unassigned, 2)
	assert.True(t, snap.Unassigned[0].IsPrimary())
	assert.True(t, snap.Unassigned[1].IsPrimary())
	assert.Equal(t, HealthRed, snap.Health)
	assert.Empty(t, hist)
}

// TestAllocateEmptyIndex covers an index with no shards at all
func TestAllocateEmptyIndex(t *testing.T) {
	snap, _ := Allocate(0, 0, 0, nil)
	assert.Equal(t, HealthGreen, snap.Health)
	assert.Equal(t, 0, snap.Total())
	assert.Equal(t, float64(100), snap.ActivePercent())
}

// TestAllocateReplicasExceedNodes verifies the anti-affinity rule is never relaxed
func TestAllocateReplicasExceedNodes(t *testing.T) {
	snap, _ := Allocate(2, 1, 3, nil)

	assert.Equal(t, []string{"0-p"}, shardIDs(snap.Nodes[0]))
	assert.Equal(t, []string{"0-r0"}, shardIDs(snap.Nodes[1]))

	ids := make([]string, 0, len(snap.Unassigned))
	for _, c := range snap.Unassigned {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"0-r1", "0-r2"}, ids)
	assert.Equal(t, HealthYellow, snap.Health)
	assert.InDelta(t, 50.0, snap.ActivePercent(), 0.001)
}

// TestAllocateRelocation tests relocation detection between consecutive runs
func TestAllocateRelocation(t *testing.T) {
	t.Run("adding a node without moving anything", func(t *testing.T) {
		before, hist := Allocate(2, 2, 0, History{})
		after, _ := Allocate(3, 2, 0, hist)

		for _, n := range after.Nodes {
			for _, c := range n.Shards {
				moved := before.NodeOf(c.ID) != n.ID
				assert.Equal(t, moved, after.IsRelocated(c.ID), "copy %s", c.ID)
			}
		}
		assert.Empty(t, after.Relocated)
	})

	t.Run("scale out moves a primary", func(t *testing.T) {
		before, hist := Allocate(1, 2, 0, nil)
		assert.Equal(t, 0, before.NodeOf("1-p"))

		after, next := Allocate(2, 2, 0, hist)
		assert.Equal(t, 1, after.NodeOf("1-p"))
		assert.Equal(t, []string{"1-p"}, after.Relocated)
		assert.True(t, after.IsRelocated("1-p"))
		assert.False(t, after.IsRelocated("0-p"))
		assert.Equal(t, History{"0-p": 0, "1-p": 1}, next)
	})

	t.Run("scale out moves a replica", func(t *testing.T) {
		_, hist := Allocate(2, 2, 1, nil)
		after, _ := Allocate(3, 2, 1, hist)
		assert.Equal(t, []string{"0-r0"}, after.Relocated)
		assert.Equal(t, 2, after.NodeOf("0-r0"))
	})

	t.Run("previously unassigned copies are not relocated", func(t *testing.T) {
		_, hist := Allocate(1, 2, 1, nil)
		after, _ := Allocate(2, 2, 1, hist)
		for _, id := range after.Relocated {
			_, known := hist[id]
			assert.True(t, known, "copy %s was not placed before", id)
		}
		assert.False(t, after.IsRelocated("0-r0"))
	})

	t.Run("newly unassigned copies are dropped from history", func(t *testing.T) {
		_, hist := Allocate(2, 1, 1, nil)
		require.Contains(t, hist, "0-r0")

		after, next := Allocate(1, 1, 1, hist)
		assert.NotContains(t, next, "0-r0")
		assert.False(t, after.IsRelocated("0-r0"))
	})
}

// TestAllocateDoesNotMutatePrior verifies the caller's history is left intact
func TestAllocateDoesNotMutatePrior(t *testing.T) {
	prior := History{"0-p": 1, "stale": 9}
	want := prior.Clone()

	_, next := Allocate(3, 2, 1, prior)

	assert.Equal(t, want, prior)
	assert.NotContains(t, next, "stale")
}

// TestComputeHealth tests the health classification directly
func TestComputeHealth(t *testing.T) {
	assert.Equal(t, HealthGreen, ComputeHealth(nil))
	assert.Equal(t, HealthYellow, ComputeHealth([]shard.Copy{shard.NewReplica(0, 0)}))
	assert.Equal(t, HealthRed, ComputeHealth([]shard.Copy{shard.NewReplica(0, 0), shard.NewPrimary(1)}))

	assert.Less(t, HealthGreen.Severity(), HealthYellow.Severity())
	assert.Less(t, HealthYellow.Severity(), HealthRed.Severity())
}

// TestNodeHelpers covers node naming and counting helpers
func TestNodeHelpers(t *testing.T) {
	assert.Equal(t, "Node-1", NodeName(0))
	assert.Equal(t, "Node-10", NodeName(9))

	snap, _ := Allocate(2, 3, 1, nil)
	n := snap.Nodes[0]
	assert.Equal(t, "Node-1", n.Name)
	assert.True(t, n.Hosts(0))
	assert.Equal(t, 2, n.Primaries())
}

// TestHistoryClone checks clones are independent
func TestHistoryClone(t *testing.T) {
	var empty History
	assert.NotNil(t, empty.Clone())

	h := History{"0-p": 0}
	c := h.Clone()
	c["0-p"] = 3
	assert.Equal(t, 0, h["0-p"])
}
