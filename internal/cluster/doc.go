// Package cluster defines the shapes, bounds and wire types shared by the
// shardsim coordinator and its clients.
//
// # Overview
//
// A simulated cluster is described by three numbers:
//
//	nodes      how many nodes the cluster has
//	primaries  how many primary shards the index has
//	replicas   how many replicas back each primary
//
// Config carries that triple. It can be parsed from the compact form used on
// the command line ("3,5,1") and checked against Bounds.
//
// # Bounds
//
// The allocator accepts any non-negative shape, including a cluster with no
// nodes. Bounds are a front-end policy: the default ranges match the slider
// controls of the teaching page (1-10 nodes, 1-20 primaries, 0-2 replicas).
// Negative values are always rejected. Validate reports every violation at
// once:
//
//	err := cluster.Config{Nodes: -1, Primaries: 50}.Validate(cluster.DefaultBounds())
//	errors.Is(err, cluster.ErrInvalidConfig) // true
//	// invalid cluster config -1,50,0: nodes must not be negative, got -1;
//	// primaries must be at most 20, got 50
//
// # Wire Types
//
// SnapshotView is the JSON rendering of an allocator.Snapshot: one NodeView
// per node card, a ShardView per badge, the unassigned panel, the health
// badge and the relocation highlights.
//
// # Communication
//
// PostJSON and GetJSON are small HTTP helpers with a 5 second client timeout.
// A non-2xx response is returned as *StatusError.
//
//	var view cluster.SnapshotView
//	err := cluster.PostJSON(ctx, "http://localhost:8080/allocate",
//	    cluster.AllocateRequest{Session: "demo", Config: cfg}, &view)
//
// # See Also
//
//   - internal/allocator: the placement algorithm
//   - internal/coordinator: the HTTP service that hosts sessions
package cluster
