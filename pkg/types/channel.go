package types

import "context"

// Channel is the shared presence store every session in the same editing
// space publishes to. Semantics are last-write-wins per session ID with
// visibility only on the next read; implementations provide no transactional
// guarantees and readers must tolerate stale snapshots.
//
// Stale entries are never deleted by readers. Each session removes its own
// entry on clean shutdown; everyone else filters by LastActivity.
type Channel interface {
	// Publish upserts the session's record. Two sessions publishing
	// disjoint IDs never clobber each other.
	Publish(ctx context.Context, session Session) error

	// ReadAll returns every published session, including stale ones.
	ReadAll(ctx context.Context) ([]Session, error)

	// Remove deletes the session with the given ID. Removing an absent
	// session is not an error.
	Remove(ctx context.Context, sessionID string) error
}
