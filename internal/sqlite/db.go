package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Timer callbacks and surface handlers share the pool; wait out
	// writer contention instead of surfacing SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema. It is idempotent and runs at every
// boot; the whole store is two versioned envelope rows, so there is no
// migration history to track.
func (db *DB) RunMigrations() error {
	migration := `
-- One row per storage slot. The payload is the full versioned envelope
-- as JSON; the version column mirrors the envelope so a reader can
-- reject a mismatched layout without parsing the payload.
CREATE TABLE IF NOT EXISTS mementos (
    slot TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
