// Package allocator implements the shard allocation simulator: a deterministic,
// greedy placement of shard copies onto a fixed set of nodes.
//
// # Overview
//
// Allocate takes the shape of a cluster (node count, primary count, replicas
// per primary) and the placement history of the previous run, and returns a
// Snapshot plus the history for the next run. It is a pure function: no I/O,
// no randomness, no shared state.
//
//	┌──────────────┐   ┌─────────────────┐   ┌──────────────┐
//	│ shape        │   │                 │   │ Snapshot     │
//	│ (n, p, r)    ├──►│    Allocate     ├──►│ History'     │
//	│ History      │   │                 │   │              │
//	└──────────────┘   └─────────────────┘   └──────────────┘
//
// # Placement Rules
//
// Copies are seeded primaries first, then replicas. Each copy goes to the
// node with the fewest copies among those that do not already hold a copy of
// the same shard (anti-affinity); ties go to the lowest node ID. A copy with
// no eligible node is unassigned. The rule is never relaxed, so a cluster with
// fewer nodes than copies per shard always reports unassigned replicas.
//
// The tie-break is a teaching approximation, not the balancing policy of any
// real search engine.
//
// # Health
//
//	green   nothing unassigned
//	yellow  only replicas unassigned
//	red     at least one primary unassigned
//
// # Relocation
//
// A copy is relocated when the previous run placed it on a different node.
// Relocation is a comparison of two finished snapshots; there is no in-flight
// moving state. The caller owns the History between runs and passes it back
// in; Allocate never modifies the map it is given.
//
// # Concurrency
//
// Allocate is safe to call concurrently as long as callers do not share a
// History they are also writing to.
package allocator
