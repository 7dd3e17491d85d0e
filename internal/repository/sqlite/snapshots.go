package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fixo-intel/competitor-watch/internal/models"
	"github.com/fixo-intel/competitor-watch/internal/repository"
)

// SaveSnapshot appends a snapshot for its entity and prunes the oldest
// entries beyond the retention bound, atomically. Existing entries are
// never overwritten: every save is a new row, and equal capture timestamps
// are ordered by insertion id.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) (int64, error) {
	const opn = "repository.sqlite.SaveSnapshot"

	if snapshot.EntityID == "" {
		return 0, fmt.Errorf("%s: snapshot has empty entity id", opn)
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to marshal snapshot: %w", opn, err)
	}

	mu := r.lockEntity(snapshot.EntityID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return 0, fmt.Errorf("%s: failed to begin transaction: %w: %w", opn, repository.ErrWriteFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit just returns sql.ErrTxDone

	res, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (entity_id, captured_at, payload) VALUES (?, ?, ?)",
		snapshot.EntityID, snapshot.CapturedAt.UTC().Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to insert snapshot: %w: %w", opn, repository.ErrWriteFailed, err)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get insert id: %w: %w", opn, repository.ErrWriteFailed, err)
	}

	// Retention: keep the newest maxPerEntity rows, delete everything older.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE entity_id = ? AND id IN (
			SELECT id FROM snapshots WHERE entity_id = ?
			ORDER BY captured_at DESC, id DESC LIMIT -1 OFFSET ?
		)`,
		snapshot.EntityID, snapshot.EntityID, r.maxPerEntity,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to prune old snapshots: %w: %w", opn, repository.ErrWriteFailed, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: failed to commit transaction: %w: %w", opn, repository.ErrWriteFailed, err)
	}

	r.log.DebugContext(ctx, "Snapshot saved", "entity", snapshot.EntityID, "row", rowID)

	return rowID, nil
}

// LatestSnapshot returns the most recent snapshot for the entity.
func (r *Repository) LatestSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error) {
	return r.snapshotAt(ctx, "repository.sqlite.LatestSnapshot", entityID, 0)
}

// PreviousSnapshot returns the second-most-recent snapshot for the entity.
func (r *Repository) PreviousSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error) {
	return r.snapshotAt(ctx, "repository.sqlite.PreviousSnapshot", entityID, 1)
}

// snapshotAt reads the snapshot at the given offset from the newest one.
// Pure read, no side effects.
func (r *Repository) snapshotAt(ctx context.Context, opn, entityID string, offset int) (*models.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM snapshots WHERE entity_id = ? ORDER BY captured_at DESC, id DESC LIMIT 1 OFFSET ?",
		entityID, offset,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%s: failed to query snapshot: %w", opn, err)
	}

	return decodeSnapshot(opn, payload)
}

// AllSnapshots returns the entity's full stored history, newest first.
// Used by operator tooling, not by the diff path.
func (r *Repository) AllSnapshots(ctx context.Context, entityID string) ([]*models.Snapshot, error) {
	const opn = "repository.sqlite.AllSnapshots"

	rows, err := r.db.QueryContext(ctx,
		"SELECT payload FROM snapshots WHERE entity_id = ? ORDER BY captured_at DESC, id DESC",
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query snapshots: %w", opn, err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%s: failed to scan snapshot row: %w", opn, err)
		}
		snapshot, err := decodeSnapshot(opn, payload)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return snapshots, nil
}

// decodeSnapshot unmarshals a stored payload. Unknown fields are ignored so
// records written by newer deployments stay readable.
func decodeSnapshot(opn, payload string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("%s: failed to decode snapshot payload: %w", opn, err)
	}
	return &snapshot, nil
}
