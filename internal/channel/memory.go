// Package channel provides the shared presence channel backends.
//
// A channel is shared mutable state with last-write-wins per session key and
// visibility only on the next read. The memory backend serves sessions
// inside one process; the redis backend extends the same contract across
// processes through a small external coordination service.
package channel

import (
	"context"
	"sort"
	"sync"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// Memory is the in-process channel: a mutex-guarded map keyed by session ID.
// Two sessions publishing distinct IDs never clobber each other; republishing
// the same ID overwrites the previous record.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]types.Session
}

// NewMemory returns an empty in-process channel.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]types.Session)}
}

// Publish upserts the session's record.
func (m *Memory) Publish(_ context.Context, session types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

// ReadAll returns every published session, stale ones included, in
// ID-sorted order so reads are deterministic.
func (m *Memory) ReadAll(_ context.Context) ([]types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Remove deletes the session with the given ID. Absent IDs are not an error.
func (m *Memory) Remove(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
