// Package sqlite provides the public API for the local SQLite writeback
// store, keeping the implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/slate/internal/sqlite"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Store is the local writeback store: SQLite as the query engine with a
// JSONL journal as the source of truth.
type Store = sqlite.Store

// NewStore creates an unattached store instance.
//
// Example:
//
//	store := sqlite.NewStore()
//	err := store.Attach(types.StoreConfig{DataDir: ".slate-db"})
//	defer store.Detach()
func NewStore() *Store {
	return sqlite.NewStore()
}

var _ types.Store = (*Store)(nil)
