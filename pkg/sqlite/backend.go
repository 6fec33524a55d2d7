// Package sqlite provides the public API for the SQLite shelf backend.
// This package exposes the factory function and JSONL helpers while keeping
// implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/patterns/internal/sqlite"
	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

// Backend stores named snapshots of keyed stores in a SQLite database.
type Backend = sqlite.Backend

// ShelfInfo describes a saved shelf.
type ShelfInfo = sqlite.ShelfInfo

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".shelf-db",
//	})
//	defer backend.Detach()
func NewBackend() *Backend {
	return sqlite.NewBackend()
}

// NewStore returns an empty store configured the way the backend loads them.
func NewStore(policy types.Policy) *store.Store[any] {
	return sqlite.NewStore(policy)
}

// ExportJSONL writes st to path as JSONL.
func ExportJSONL(path string, st *store.Store[any]) error {
	return sqlite.ExportJSONL(path, st)
}

// ImportJSONL reads a JSONL file into a new store.
func ImportJSONL(path string, opts ...store.Option[any]) (*store.Store[any], error) {
	return sqlite.ImportJSONL(path, opts...)
}
