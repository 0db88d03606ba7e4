// Package coordinator provides the simulation host for the shard allocator.
// This file implements health tracking across allocation runs.
package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dreamware/shardsim/internal/allocator"
)

// SessionHealth tracks the cluster health of a single simulation session.
// It maintains the current status, when it last changed, and how long it has
// been degraded.
// Thread-safe: Protected by HealthTracker's mutex when accessed.
type SessionHealth struct {
	LastChange          time.Time        // Timestamp of the last status change
	LastGreen           time.Time        // Timestamp of the last green run; zero if never green
	Session             string           // Session name
	Status              allocator.Health // Health of the last run
	ConsecutiveDegraded int              // Number of consecutive runs that were not green
}

// HealthTransition describes a change of cluster health between two runs.
type HealthTransition struct {
	Session string
	From    allocator.Health // Empty on the first run of a session
	To      allocator.Health
}

// Degraded reports whether the transition made the cluster worse.
func (t HealthTransition) Degraded() bool {
	return t.From != "" && t.To.Severity() > t.From.Severity()
}

// HealthTracker follows the health reported by every allocation run and
// notifies a callback whenever a session's health changes.
// Thread-safe: All methods are safe for concurrent access.
type HealthTracker struct {
	sessions     map[string]*SessionHealth // Current health per session
	onTransition func(HealthTransition)    // Callback when a session's health changes
	now          func() time.Time          // Clock, replaceable in tests
	mu           sync.RWMutex              // Protects sessions map
}

// NewHealthTracker creates an empty health tracker.
//
// Returns:
//   - *HealthTracker: Tracker ready to observe runs
//
// Example:
//
//	tracker := NewHealthTracker()
//	tracker.SetOnTransition(func(t HealthTransition) {
//	    log.Printf("%s went %s -> %s", t.Session, t.From, t.To)
//	})
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		sessions: make(map[string]*SessionHealth),
		now:      time.Now,
	}
}

// SetOnTransition sets the callback invoked when a session's health changes,
// including the first run of a session.
//
// Parameters:
//   - callback: Function to call with the transition; called without holding
//     the tracker's lock
func (h *HealthTracker) SetOnTransition(callback func(HealthTransition)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTransition = callback
}

// Observe records the health of a finished allocation run.
//
// Parameters:
//   - session: Session the run belongs to
//   - health: Health reported by the run
//
// Returns:
//   - The transition, and true if the health changed
//
// Implementation:
//  1. Get or create the health record for the session
//  2. Update status and degraded counter
//  3. Invoke the transition callback on change
func (h *HealthTracker) Observe(session string, health allocator.Health) (HealthTransition, bool) {
	now := h.now()

	h.mu.Lock()
	record, exists := h.sessions[session]
	if !exists {
		record = &SessionHealth{Session: session}
		h.sessions[session] = record
	}

	transition := HealthTransition{Session: session, From: record.Status, To: health}
	changed := record.Status != health
	if changed {
		record.Status = health
		record.LastChange = now
	}

	if health == allocator.HealthGreen {
		record.ConsecutiveDegraded = 0
		record.LastGreen = now
	} else {
		record.ConsecutiveDegraded++
	}
	callback := h.onTransition
	h.mu.Unlock()

	if !changed {
		return transition, false
	}

	if transition.Degraded() {
		slog.Warn(
			"Cluster health degraded",
			slog.String("session", session),
			slog.String("from", string(transition.From)),
			slog.String("to", string(transition.To)),
		)
	} else if exists {
		slog.Info(
			"Cluster health changed",
			slog.String("session", session),
			slog.String("from", string(transition.From)),
			slog.String("to", string(transition.To)),
		)
	}

	// Call callback without holding the lock
	if callback != nil {
		callback(transition)
	}
	return transition, true
}

// Forget stops tracking a session.
func (h *HealthTracker) Forget(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, session)
}

// GetSessionHealth returns the current health record of a session.
// Returns nil if the session has never been observed.
//
// Example:
//
//	health := tracker.GetSessionHealth("demo")
//	if health != nil && health.Status == allocator.HealthRed {
//	    // A primary is unassigned
//	}
func (h *HealthTracker) GetSessionHealth(session string) *SessionHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	record, exists := h.sessions[session]
	if !exists {
		return nil
	}

	// Return a copy to prevent external modification
	copied := *record
	return &copied
}

// GetAllSessionHealth returns the health records of all tracked sessions.
func (h *HealthTracker) GetAllSessionHealth() map[string]*SessionHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[string]*SessionHealth, len(h.sessions))
	for name, record := range h.sessions {
		copied := *record
		result[name] = &copied
	}
	return result
}

// IsGreen returns whether the last run of a session was green.
// Returns false if the session is not being tracked.
func (h *HealthTracker) IsGreen(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	record, exists := h.sessions[session]
	return exists && record.Status == allocator.HealthGreen
}
