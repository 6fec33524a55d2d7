// Package sqlite keeps named keyed-store snapshots ("shelves") in a SQLite
// database and exchanges them with JSONL files.
//
// A snapshot is a full copy: Save replaces every entry of the shelf and Load
// rebuilds a store with the saved write policy and insertion order. Values
// are stored as JSON text, so they come back as the types encoding/json
// decodes into an any (float64 numbers, map[string]any objects).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "shelf.db"

// ShelfInfo describes a saved shelf.
type ShelfInfo struct {
	Name      string    `json:"name"`
	ShelfID   string    `json:"shelf_id"`
	Policy    string    `json:"policy"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend stores shelf snapshots in SQLite. It is safe for concurrent use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger
}

var _ types.LoggerAware = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{logger: slog.New(slog.DiscardHandler)}
}

// SetLogger sets the logger used for snapshot operations.
func (b *Backend) SetLogger(logger *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b.logger = logger
}

// Attach opens (creating if needed) the database in config.DataDir and
// applies the schema. Returns types.ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A single connection keeps PRAGMA foreign_keys in effect for every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("sqlite: attached", "path", dbPath)
	return nil
}

// Detach closes the database. Detach is idempotent. After Detach, snapshot
// operations return types.ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Save replaces the snapshot of shelf with the contents of st.
func (b *Backend) Save(shelf string, st *store.Store[any]) error {
	if shelf == "" {
		return types.ErrInvalidName
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO shelves (shelf, shelf_id, policy, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(shelf) DO UPDATE SET policy = excluded.policy, updated_at = excluded.updated_at`,
		shelf, generateUUID(), st.Policy().String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving shelf %s: %w", shelf, err)
	}
	if _, err := tx.Exec("DELETE FROM entries WHERE shelf = ?", shelf); err != nil {
		return fmt.Errorf("clearing shelf %s: %w", shelf, err)
	}

	ordinal := 0
	for key, value := range st.All() {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s/%s: %w", shelf, key, err)
		}
		_, err = tx.Exec(
			"INSERT INTO entries (shelf, key, ordinal, value) VALUES (?, ?, ?, ?)",
			shelf, key, ordinal, string(data),
		)
		if err != nil {
			return fmt.Errorf("inserting %s/%s: %w", shelf, key, err)
		}
		ordinal++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing shelf %s: %w", shelf, err)
	}
	b.logger.Debug("sqlite: saved shelf", "shelf", shelf, "entries", ordinal)
	return nil
}

// Load rebuilds the store saved under shelf with NewStore. Returns
// types.ErrNotFound if the shelf was never saved.
func (b *Backend) Load(shelf string) (*store.Store[any], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	var policyName string
	err := b.db.QueryRow("SELECT policy FROM shelves WHERE shelf = ?", shelf).Scan(&policyName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, shelf)
	}
	if err != nil {
		return nil, fmt.Errorf("reading shelf %s: %w", shelf, err)
	}
	policy, err := types.ParsePolicy(policyName)
	if err != nil {
		return nil, fmt.Errorf("shelf %s: %w", shelf, err)
	}

	rows, err := b.db.Query("SELECT key, value FROM entries WHERE shelf = ? ORDER BY ordinal", shelf)
	if err != nil {
		return nil, fmt.Errorf("querying shelf %s: %w", shelf, err)
	}
	defer rows.Close()

	var entries []store.Entry[any]
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning shelf %s: %w", shelf, err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", shelf, key, err)
		}
		entries = append(entries, store.Entry[any]{Key: key, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shelf %s: %w", shelf, err)
	}

	st := NewStore(policy)
	st.ExchangeEntries(entries)
	return st, nil
}

// LoadOrNew loads shelf, or returns an empty store with policy when the
// shelf does not exist yet.
func (b *Backend) LoadOrNew(shelf string, policy types.Policy) (*store.Store[any], error) {
	st, err := b.Load(shelf)
	if errors.Is(err, types.ErrNotFound) {
		return NewStore(policy), nil
	}
	return st, err
}

// NewStore returns an empty shelf store using policy. Merge-overlay writes
// lay JSON objects over each other with store.OverlayObjects.
func NewStore(policy types.Policy) *store.Store[any] {
	return store.New(
		store.WithPolicy[any](policy),
		store.WithMerge[any](store.OverlayObjects),
	)
}

// Shelves lists saved shelves ordered by name.
func (b *Backend) Shelves() ([]ShelfInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}

	rows, err := b.db.Query(`SELECT s.shelf, s.shelf_id, s.policy, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM entries e WHERE e.shelf = s.shelf)
		FROM shelves s ORDER BY s.shelf`)
	if err != nil {
		return nil, fmt.Errorf("querying shelves: %w", err)
	}
	defer rows.Close()

	infos := []ShelfInfo{}
	for rows.Next() {
		var info ShelfInfo
		var created, updated string
		if err := rows.Scan(&info.Name, &info.ShelfID, &info.Policy, &created, &updated, &info.Entries); err != nil {
			return nil, fmt.Errorf("scanning shelves: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Drop deletes shelf and its entries. Returns types.ErrNotFound if the shelf
// does not exist.
func (b *Backend) Drop(shelf string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}

	res, err := b.db.Exec("DELETE FROM shelves WHERE shelf = ?", shelf)
	if err != nil {
		return fmt.Errorf("dropping shelf %s: %w", shelf, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dropping shelf %s: %w", shelf, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, shelf)
	}
	b.logger.Debug("sqlite: dropped shelf", "shelf", shelf)
	return nil
}

// generateUUID generates a new UUID v7 for shelf IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
