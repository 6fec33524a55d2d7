package sqlite

// Schema DDL. Statements are idempotent so Attach can run them on every open.
const (
	createShelves = `CREATE TABLE IF NOT EXISTS shelves (
    shelf TEXT PRIMARY KEY,
    shelf_id TEXT NOT NULL,
    policy TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createEntries = `CREATE TABLE IF NOT EXISTS entries (
    shelf TEXT NOT NULL,
    key TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (shelf, key),
    FOREIGN KEY (shelf) REFERENCES shelves(shelf) ON DELETE CASCADE
);`

	createEntriesOrdinalIndex = `CREATE INDEX IF NOT EXISTS idx_entries_ordinal ON entries(shelf, ordinal);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createShelves,
	createEntries,
	createEntriesOrdinalIndex,
}
