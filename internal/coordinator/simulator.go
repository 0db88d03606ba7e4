// Package coordinator hosts shard allocation sessions for shardsim.
// See doc.go for complete package documentation.
package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dreamware/shardsim/internal/allocator"
	"github.com/dreamware/shardsim/internal/cluster"
	"github.com/dreamware/shardsim/internal/storage"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

// Simulator owns the placement history of every session between allocation
// runs and feeds each result to health tracking and metrics.
//
// The allocator itself is a pure function. The Simulator is the host that
// keeps its state: it loads a session's history, calls allocator.Allocate,
// and stores the new history and snapshot back.
//
// Architecture:
//
//	┌─────────────────────────────────────┐
//	│            Simulator                │
//	├─────────────────────────────────────┤
//	│  bounds:  shape policy              │
//	│  store:   session → history, snap   │
//	│  health:  session → health record   │
//	│  metrics: Prometheus collectors     │
//	├─────────────────────────────────────┤
//	│  validate → load → Allocate → save  │
//	└─────────────────────────────────────┘
//
// Concurrency Model:
//   - Allocate runs one at a time; a session's history is never read by one
//     run while another run writes it
//   - Read operations go straight to the store, which is thread-safe
//   - Snapshots handed out are shared and must not be modified
type Simulator struct {
	// store keeps sessions between runs.
	store storage.Store

	// health follows health transitions per session.
	health *HealthTracker

	// metrics records each run. May be nil.
	metrics *Metrics

	// bounds is the shape policy applied before running the allocator.
	bounds cluster.Bounds

	// mu serializes allocation runs.
	mu sync.Mutex

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// Options configures a Simulator. Zero values select defaults.
type Options struct {
	Store   storage.Store  // Defaults to a new MemoryStore
	Health  *HealthTracker // Defaults to a new HealthTracker
	Metrics *Metrics       // Optional
	Bounds  cluster.Bounds // Shape policy; the zero value only rejects negatives
}

// NewSimulator creates a simulator.
//
// Example:
//
//	sim := NewSimulator(Options{Bounds: cluster.DefaultBounds()})
//	snap, err := sim.Allocate("demo", cluster.Config{Nodes: 3, Primaries: 3, Replicas: 1})
func NewSimulator(opts Options) *Simulator {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Health == nil {
		opts.Health = NewHealthTracker()
	}
	return &Simulator{
		store:   opts.Store,
		health:  opts.Health,
		metrics: opts.Metrics,
		bounds:  opts.Bounds,
		now:     time.Now,
	}
}

// Bounds returns the shape policy in force.
func (s *Simulator) Bounds() cluster.Bounds {
	return s.bounds
}

// Health returns the tracker fed by this simulator.
func (s *Simulator) Health() *HealthTracker {
	return s.health
}

// Allocate runs the allocator for a session with a new cluster shape.
//
// Process:
//  1. Validates the shape against the bounds
//  2. Loads the session's history (empty for a new session)
//  3. Runs allocator.Allocate
//  4. Stores the new history and snapshot
//  5. Reports health and metrics
//
// Parameters:
//   - session: Session name; DefaultSession if empty
//   - cfg: Cluster shape
//
// Returns:
//   - The new snapshot
//   - Error matching cluster.ErrInvalidConfig if the shape is rejected;
//     the session is left untouched in that case
func (s *Simulator) Allocate(session string, cfg cluster.Config) (*allocator.Snapshot, error) {
	if session == "" {
		session = DefaultSession
	}
	if err := cfg.Validate(s.bounds); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Get(session)
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return nil, errors.Wrapf(err, "load session %s", session)
	}

	start := s.now()
	snap, history := allocator.Allocate(cfg.Nodes, cfg.Primaries, cfg.Replicas, state.History)

	state.Name = session
	state.Config = cfg
	state.History = history
	state.Snapshot = snap
	state.Runs++
	state.Updated = start
	if err := s.store.Put(state); err != nil {
		return nil, errors.Wrapf(err, "save session %s", session)
	}

	primaries, replicas := snap.UnassignedByRole()
	slog.Debug(
		"Allocation completed",
		slog.String("session", session),
		slog.String("config", cfg.String()),
		slog.String("health", string(snap.Health)),
		slog.Int("placed", snap.Placed()),
		slog.Int("unassigned-primaries", primaries),
		slog.Int("unassigned-replicas", replicas),
		slog.Any("relocated", snap.Relocated),
		slog.Int("run", state.Runs),
	)

	s.health.Observe(session, snap.Health)
	if s.metrics != nil {
		s.metrics.Observe(session, snap)
	}
	return snap, nil
}

// Session returns the stored state of a session.
// Returns an error matching storage.ErrSessionNotFound for unknown sessions.
func (s *Simulator) Session(session string) (storage.Session, error) {
	if session == "" {
		session = DefaultSession
	}
	return s.store.Get(session)
}

// Sessions returns the names of all sessions, sorted.
func (s *Simulator) Sessions() []string {
	return s.store.List()
}

// Reset forgets a session's history, so the next run starts afresh and
// reports no relocations.
func (s *Simulator) Reset(session string) error {
	if session == "" {
		session = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(session); err != nil {
		return errors.Wrapf(err, "delete session %s", session)
	}
	s.health.Forget(session)
	if s.metrics != nil {
		s.metrics.Forget(session)
	}
	slog.Info("Session reset", slog.String("session", session))
	return nil
}

// Stats returns statistics of the session store.
func (s *Simulator) Stats() storage.StoreStats {
	return s.store.Stats()
}
