package shard

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Role identifies whether a shard copy is the primary or one of its replicas
type Role string

const (
	// RolePrimary is the single authoritative copy of a shard
	RolePrimary Role = "primary"
	// RoleReplica is a backup copy of a primary
	RoleReplica Role = "replica"
)

// Copy is one placeable copy of a logical shard.
// Copies carry no data; they exist only to be placed onto nodes.
type Copy struct {
	ShardID int    `json:"shard_id"`     // Logical shard this copy belongs to
	Role    Role   `json:"role"`         // Primary or replica
	Slot    int    `json:"replica_slot"` // Replica slot, 0-based; always 0 for primaries
	ID      string `json:"unique_id"`    // Stable identifier derived from (ShardID, Role, Slot)
}

// NewPrimary creates the primary copy of a shard
func NewPrimary(shardID int) Copy {
	return Copy{
		ShardID: shardID,
		Role:    RolePrimary,
		ID:      UniqueID(shardID, RolePrimary, 0),
	}
}

// NewReplica creates the replica copy of a shard occupying the given slot
func NewReplica(shardID, slot int) Copy {
	return Copy{
		ShardID: shardID,
		Role:    RoleReplica,
		Slot:    slot,
		ID:      UniqueID(shardID, RoleReplica, slot),
	}
}

// UniqueID derives the identifier of a copy.
// The same (shardID, role, slot) always yields the same ID, which is what lets
// two allocation runs be compared copy by copy.
func UniqueID(shardID int, role Role, slot int) string {
	if role == RolePrimary {
		return fmt.Sprintf("%d-p", shardID)
	}
	return fmt.Sprintf("%d-r%d", shardID, slot)
}

// IsPrimary reports whether the copy is a primary
func (c Copy) IsPrimary() bool {
	return c.Role == RolePrimary
}

// Label returns the short badge text for the copy, P3 or R3
func (c Copy) Label() string {
	if c.IsPrimary() {
		return fmt.Sprintf("P%d", c.ShardID)
	}
	return fmt.Sprintf("R%d", c.ShardID)
}

// String implements fmt.Stringer
func (c Copy) String() string {
	return c.ID
}

// Enumerate lists every copy of an index with the given shape.
// For each shard ID the primary comes first, followed by its replicas in slot order.
// Negative counts are treated as zero.
func Enumerate(primaryCount, replicaCount int) []Copy {
	if primaryCount <= 0 {
		return nil
	}
	if replicaCount < 0 {
		replicaCount = 0
	}

	copies := make([]Copy, 0, primaryCount*(1+replicaCount))
	for id := 0; id < primaryCount; id++ {
		copies = append(copies, NewPrimary(id))
		for slot := 0; slot < replicaCount; slot++ {
			copies = append(copies, NewReplica(id, slot))
		}
	}
	return copies
}

// PlacementOrder returns the copies in the order an allocator seeds them:
// all primaries by ascending shard ID, then all replicas by ascending (shard ID, slot).
// The input slice is not modified.
func PlacementOrder(copies []Copy) []Copy {
	var primaries, replicas []Copy
	for _, c := range copies {
		if c.IsPrimary() {
			primaries = append(primaries, c)
		} else {
			replicas = append(replicas, c)
		}
	}

	byShardThenSlot := func(a, b Copy) int {
		if n := cmp.Compare(a.ShardID, b.ShardID); n != 0 {
			return n
		}
		return cmp.Compare(a.Slot, b.Slot)
	}
	slices.SortStableFunc(primaries, byShardThenSlot)
	slices.SortStableFunc(replicas, byShardThenSlot)

	return append(primaries, replicas...)
}
