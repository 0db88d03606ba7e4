// Package storage keeps simulation sessions between allocation runs.
//
// # Overview
//
// The allocator is a pure function: it receives the placement history of the
// previous run and returns the history for the next one. Something has to hold
// that history in between. For the CLI it is a local variable; for the HTTP
// coordinator, which serves many independent simulations, it is a Store keyed
// by session name.
//
//	┌──────────────┐  Get(name)   ┌──────────────┐
//	│  Simulator   ├─────────────►│    Store     │
//	│              │◄─────────────┤              │
//	│  Allocate()  │  Put(session)│  name → {    │
//	│              ├─────────────►│   History,   │
//	└──────────────┘              │   Snapshot } │
//	                              └──────────────┘
//
// # Implementations
//
// MemoryStore: In-memory map with sync.RWMutex
//   - Histories are copied on the way in and on the way out
//   - Snapshots are shared; they are never modified once stored
//   - Nothing is written to disk; a restart starts every session afresh
//
// # Concurrency and Thread Safety
//
// All methods may be called concurrently. Read operations take a shared lock,
// writes take an exclusive lock, and no lock is held while the caller runs
// the allocator.
package storage
