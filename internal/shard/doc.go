// Package shard models the copies of an index that shardsim places onto nodes.
//
// # Overview
//
// An index is split into a fixed number of primary shards. Each primary may be
// backed by zero or more replicas. Every primary and every replica is a Copy,
// and a Copy is the unit the allocator places onto a node.
//
// Copies carry no documents. They exist so that the simulator can show how a
// cluster spreads work across nodes, which copies cannot be placed, and which
// copies move when the cluster changes shape.
//
// # Identity
//
// A copy is identified by the triple (shard ID, role, replica slot). UniqueID
// turns that triple into a string:
//
//	primary of shard 3      -> "3-p"
//	replica slot 0, shard 3 -> "3-r0"
//	replica slot 1, shard 3 -> "3-r1"
//
// The identifier never depends on where a copy was placed or on the run that
// produced it. Two runs over overlapping shapes therefore share identifiers for
// the copies they have in common, which is how relocations are detected.
//
// Label gives the short badge text shown on node cards, P3 or R3. Replicas of
// the same shard share a label; use the unique ID when they must be told apart.
//
// # Ordering
//
// Enumerate yields copies grouped by shard: P0, R0/0, R0/1, P1, R1/0, ...
// PlacementOrder regroups them the way the allocator seeds a cluster: every
// primary first, in shard order, then every replica in (shard, slot) order.
//
// # Example
//
//	copies := shard.Enumerate(3, 1)
//	for _, c := range shard.PlacementOrder(copies) {
//	    fmt.Println(c.Label(), c.ID)
//	}
//	// P0 0-p
//	// P1 1-p
//	// P2 2-p
//	// R0 0-r0
//	// R1 1-r0
//	// R2 2-r0
package shard
