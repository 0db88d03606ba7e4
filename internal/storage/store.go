package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dreamware/shardsim/internal/allocator"
	"github.com/dreamware/shardsim/internal/cluster"
)

// ErrSessionNotFound is returned when a session doesn't exist in the store
var ErrSessionNotFound = errors.New("session not found")

// Session is the state a host keeps between allocation runs of one simulation
type Session struct {
	Name     string              // Session name
	Config   cluster.Config      // Shape used by the last run
	History  allocator.History   // Placement of the last run, fed into the next
	Snapshot *allocator.Snapshot // Result of the last run; never modified after storing
	Runs     int                 // Number of allocation runs so far
	Updated  time.Time           // Time of the last run
}

// Store defines the interface for session storage
// All implementations must be thread-safe for concurrent access
type Store interface {
	// Get retrieves a session by name
	// Returns ErrSessionNotFound if the session doesn't exist
	Get(name string) (Session, error)

	// Put stores a session under its name
	// Overwrites any existing session with the same name
	Put(session Session) error

	// Delete removes a session
	// No error if the session doesn't exist
	Delete(name string) error

	// List returns all session names in sorted order
	List() []string

	// Stats returns storage statistics
	Stats() StoreStats
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Sessions int // Number of sessions
	Copies   int // Total placed copies tracked across all histories
}

// MemoryStore implements Store interface with in-memory storage
// Nothing survives a restart
type MemoryStore struct {
	mu       sync.RWMutex       // Protects concurrent access
	sessions map[string]Session // Session name -> state
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

// Get retrieves a session by name
// Returns a copy of the history to prevent external modification
func (m *MemoryStore) Get(name string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return Session{}, errors.Wrap(ErrSessionNotFound, name)
	}

	session.History = session.History.Clone()
	return session, nil
}

// Put stores a session
// Makes a copy of the history to prevent external modification
func (m *MemoryStore) Put(session Session) error {
	if session.Name == "" {
		return errors.New("session name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session.History = session.History.Clone()
	m.sessions[session.Name] = session
	return nil
}

// Delete removes a session
// No error if the session doesn't exist (idempotent)
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, name)
	return nil
}

// List returns all session names, sorted
func (m *MemoryStore) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns storage statistics
func (m *MemoryStore) Stats() StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copies := 0
	for _, session := range m.sessions {
		copies += len(session.History)
	}

	return StoreStats{
		Sessions: len(m.sessions),
		Copies:   copies,
	}
}
