package types

import (
	"context"
	"errors"
)

// ReadLatest is the action token requesting the most recent persisted batch.
const ReadLatest = "latest"

// Store is the external persistence endpoint for writeback data. It is
// reached over a network-like channel with no transactional guarantees:
// a Write either succeeds as a whole or fails as a whole from the caller's
// point of view, and the caller owns retry by re-submitting.
type Store interface {
	// Write persists a batch as a single logical write and returns any
	// echoed metadata. Timeout and transport policy belong to the
	// implementation, not the caller.
	Write(ctx context.Context, batch Batch) (*WriteAck, error)

	// Read returns the persisted dataset for the application. The token
	// is ReadLatest or a store-assigned batch identifier.
	Read(ctx context.Context, appID, token string) (*Snapshot, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrBatchNotFound   = errors.New("batch not found")
)
