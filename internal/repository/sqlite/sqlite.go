package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3" // database/sql driver
)

// Repository is the SQLite-backed store for snapshot history and report
// subscriptions. It holds a reference to the database and a logger instance
// for logging operations.
type Repository struct {
	db           *sql.DB
	log          *slog.Logger
	maxPerEntity int

	// entityMu serializes save+prune per entity so a prune never
	// interleaves with another mutation of the same entity's history.
	entityMu sync.Map // entity id -> *sync.Mutex
}

// NewRepository opens (or creates) the database file at storagePath, verifies
// the connection and applies the schema. maxPerEntity bounds how many
// snapshots are retained per entity.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string, maxPerEntity int) (*Repository, error) {
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=1", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log, maxPerEntity: maxPerEntity}, nil
}

// NewForTest wraps an existing database handle, typically a sqlmock
// connection. Schema initialization is skipped.
func NewForTest(dtb *sql.DB, maxPerEntity int) *Repository {
	return &Repository{db: dtb, log: slog.Default(), maxPerEntity: maxPerEntity}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_entity_time
		ON snapshots (entity_id, captured_at, id);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) lockEntity(entityID string) *sync.Mutex {
	mu, _ := r.entityMu.LoadOrStore(entityID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
