// Package coordinator hosts shard allocation sessions for shardsim, keeping
// the state the pure allocator needs between runs and exposing it over HTTP.
//
// # Overview
//
// allocator.Allocate is a function of a cluster shape and the previous
// placement history. A front end that lets a student drag the node, primary
// and replica sliders needs somewhere to keep that history between slider
// moves, and something to report health and relocations back. The
// coordinator is that host.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         COORDINATOR                 │
//	├─────────────────────────────────────┤
//	│                                     │
//	│  ┌──────────────────────────────┐   │
//	│  │   Server (HTTP/JSON)         │   │
//	│  │   - /allocate, /snapshot     │   │
//	│  │   - /sessions, /bounds       │   │
//	│  │   - /metrics, /health        │   │
//	│  └──────────────┬───────────────┘   │
//	│                 │                   │
//	│  ┌──────────────▼───────────────┐   │
//	│  │   Simulator                  │   │
//	│  │   - Bounds validation        │   │
//	│  │   - Session history          │   │
//	│  │   - allocator.Allocate       │   │
//	│  └──────┬───────────────┬───────┘   │
//	│         │               │           │
//	│  ┌──────▼──────┐ ┌──────▼───────┐   │
//	│  │ HealthTrack │ │   Metrics    │   │
//	│  └─────────────┘ └──────────────┘   │
//	│                                     │
//	└─────────────────────────────────────┘
//
// # Core Components
//
// Simulator: Session host around the allocator
//   - Rejects shapes outside the configured cluster.Bounds
//   - Loads and saves each session's placement history
//   - Serializes runs so a history is never read and written at once
//
// HealthTracker: Health across runs
//   - Records the current health of each session
//   - Counts consecutive degraded runs
//   - Notifies a callback on every health change
//
// Metrics: Prometheus collectors
//   - shardsim_allocations_total{session}
//   - shardsim_relocations_total{session}
//   - shardsim_cluster_health{session} (0 green, 1 yellow, 2 red)
//   - shardsim_unassigned_shards{session,role}
//   - shardsim_placed_shards{session}
//   - shardsim_nodes{session}
//
// Server: HTTP front end
//   - Request and response bodies are the types of package cluster
//   - Invalid shapes are answered with 400, unknown sessions with 404
//
// # Sessions
//
// Every simulation is a named session; requests without a name use
// DefaultSession. Sessions are independent: moving the sliders in one never
// relocates shards in another. Resetting a session drops its history, so the
// next run reports no relocations. Sessions live in memory only.
//
// # Usage Example
//
//	reg := prometheus.NewRegistry()
//	sim := coordinator.NewSimulator(coordinator.Options{
//	    Bounds:  cluster.DefaultBounds(),
//	    Metrics: coordinator.NewMetrics(reg),
//	})
//	srv := coordinator.NewServer(sim, reg)
//	http.ListenAndServe(":8080", srv.Handler())
//
// # Testing
//
// Run tests with:
//
//	go test ./internal/coordinator/... -cover
package coordinator
