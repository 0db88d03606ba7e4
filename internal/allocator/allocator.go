// Package allocator places shard copies onto nodes.
// See doc.go for complete package documentation.
package allocator

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dreamware/shardsim/internal/shard"
)

// Health is the aggregate placement status of a cluster.
type Health string

const (
	// HealthGreen means every copy is placed.
	HealthGreen Health = "green"
	// HealthYellow means every primary is placed but at least one replica is not.
	HealthYellow Health = "yellow"
	// HealthRed means at least one primary is unassigned.
	HealthRed Health = "red"
)

// Severity orders health values, green lowest.
func (h Health) Severity() int {
	switch h {
	case HealthGreen:
		return 0
	case HealthYellow:
		return 1
	default:
		return 2
	}
}

// Node is a simulated cluster member and the copies placed on it.
type Node struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Shards []shard.Copy `json:"shards"`
}

// NodeName returns the display name of the node with the given ID.
// Names are 1-based: node 0 is "Node-1".
func NodeName(id int) string {
	return fmt.Sprintf("Node-%d", id+1)
}

// Hosts reports whether the node already holds a copy of shardID.
func (n *Node) Hosts(shardID int) bool {
	for _, c := range n.Shards {
		if c.ShardID == shardID {
			return true
		}
	}
	return false
}

// Primaries returns how many primaries the node holds.
func (n *Node) Primaries() int {
	count := 0
	for _, c := range n.Shards {
		if c.IsPrimary() {
			count++
		}
	}
	return count
}

// History maps a copy's unique ID to the node it was last placed on.
type History map[string]int

// Clone returns an independent copy of the history.
func (h History) Clone() History {
	if h == nil {
		return History{}
	}
	return maps.Clone(h)
}

// Snapshot is the result of one allocation run.
//
// A snapshot is never updated after Allocate returns it; the next run produces
// a new one.
type Snapshot struct {
	// Nodes lists every node in ID order with the copies placed on it,
	// in placement order.
	Nodes []Node `json:"nodes"`

	// Unassigned lists copies that no node could accept, in placement order.
	Unassigned []shard.Copy `json:"unassigned"`

	// Health is derived from Unassigned.
	Health Health `json:"health"`

	// Relocated holds the unique IDs of copies placed on a different node
	// than in the previous run, sorted.
	Relocated []string `json:"relocated"`
}

// IsRelocated reports whether the copy with the given unique ID moved.
func (s *Snapshot) IsRelocated(id string) bool {
	_, found := slices.BinarySearch(s.Relocated, id)
	return found
}

// Placed returns the number of copies placed on some node.
func (s *Snapshot) Placed() int {
	total := 0
	for i := range s.Nodes {
		total += len(s.Nodes[i].Shards)
	}
	return total
}

// Total returns the number of copies the run had to place.
func (s *Snapshot) Total() int {
	return s.Placed() + len(s.Unassigned)
}

// UnassignedByRole counts unassigned primaries and replicas.
func (s *Snapshot) UnassignedByRole() (primaries, replicas int) {
	for _, c := range s.Unassigned {
		if c.IsPrimary() {
			primaries++
		} else {
			replicas++
		}
	}
	return primaries, replicas
}

// ActivePercent is the share of copies that are placed, from 0 to 100.
// An empty index counts as fully active.
func (s *Snapshot) ActivePercent() float64 {
	total := s.Total()
	if total == 0 {
		return 100
	}
	return float64(s.Placed()) * 100 / float64(total)
}

// NodeOf returns the ID of the node hosting the copy, or -1 if it is unassigned
// or unknown.
func (s *Snapshot) NodeOf(id string) int {
	for i := range s.Nodes {
		for _, c := range s.Nodes[i].Shards {
			if c.ID == id {
				return s.Nodes[i].ID
			}
		}
	}
	return -1
}

// ComputeHealth classifies a set of unassigned copies.
//
// Returns:
//   - HealthRed if any primary is unassigned
//   - HealthYellow if only replicas are unassigned
//   - HealthGreen if nothing is unassigned
func ComputeHealth(unassigned []shard.Copy) Health {
	if len(unassigned) == 0 {
		return HealthGreen
	}
	for _, c := range unassigned {
		if c.IsPrimary() {
			return HealthRed
		}
	}
	return HealthYellow
}

// Allocate places every copy of an index with primaryCount primaries and
// replicaCount replicas per primary onto nodeCount nodes, and compares the
// result with the placement recorded in prior.
//
// Placement algorithm:
//  1. Enumerate all copies and order them primaries first, then replicas
//  2. For each copy, the candidates are the nodes that hold no copy of the
//     same shard ID
//  3. No candidates: the copy is unassigned
//  4. Otherwise the candidate with the fewest copies wins, lowest node ID on ties
//
// The anti-affinity rule is never relaxed. Once every node holds a copy of a
// shard, the remaining copies of that shard stay unassigned.
//
// Relocation detection:
//   - A placed copy is relocated if prior records it on a different node
//   - Copies absent from prior, and unassigned copies, are never relocated
//
// Parameters:
//   - nodeCount: Number of nodes in the cluster
//   - primaryCount: Number of primary shards
//   - replicaCount: Replicas per primary (not total replicas)
//   - prior: History returned by the previous run, may be nil
//
// Returns:
//   - The new snapshot
//   - The history to pass to the next run; it records placed copies only
//
// Allocate is deterministic and never mutates prior. Negative counts are
// treated as zero; callers are expected to reject them before calling.
//
// Performance:
// O(copies * nodes * copies-per-node); a few dozen copies in practice.
//
// Example:
//
//	snap, hist := allocator.Allocate(2, 2, 0, nil)
//	snap, hist = allocator.Allocate(3, 2, 0, hist)
//	fmt.Println(snap.Health, snap.Relocated)
func Allocate(nodeCount, primaryCount, replicaCount int, prior History) (*Snapshot, History) {
	if nodeCount < 0 {
		nodeCount = 0
	}

	nodes := make([]Node, nodeCount)
	for i := range nodes {
		nodes[i] = Node{ID: i, Name: NodeName(i), Shards: []shard.Copy{}}
	}

	unassigned := []shard.Copy{}
	for _, c := range shard.PlacementOrder(shard.Enumerate(primaryCount, replicaCount)) {
		target := selectNode(nodes, c)
		if target < 0 {
			unassigned = append(unassigned, c)
			continue
		}
		nodes[target].Shards = append(nodes[target].Shards, c)
	}

	next := make(History)
	relocated := []string{}
	for i := range nodes {
		for _, c := range nodes[i].Shards {
			next[c.ID] = nodes[i].ID
			if previous, ok := prior[c.ID]; ok && previous != nodes[i].ID {
				relocated = append(relocated, c.ID)
			}
		}
	}
	sort.Strings(relocated)

	return &Snapshot{
		Nodes:      nodes,
		Unassigned: unassigned,
		Health:     ComputeHealth(unassigned),
		Relocated:  relocated,
	}, next
}

// selectNode returns the index of the least loaded node that does not already
// host a copy of c's shard, or -1 when there is none.
func selectNode(nodes []Node, c shard.Copy) int {
	best := -1
	for i := range nodes {
		if nodes[i].Hosts(c.ShardID) {
			continue
		}
		// Strict comparison keeps the lowest ID on ties
		if best < 0 || len(nodes[i].Shards) < len(nodes[best].Shards) {
			best = i
		}
	}
	return best
}
