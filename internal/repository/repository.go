package repository

import (
	"context"
	"errors"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

// ErrSnapshotNotFound is returned when an entity has no stored snapshot
// matching the query.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrWriteFailed wraps failures to persist a snapshot to durable media.
// Fatal to the current run for that entity only.
var ErrWriteFailed = errors.New("snapshot write failed")

// SnapshotRepository is the append-only, retention-bounded snapshot log.
type SnapshotRepository interface {
	// SaveSnapshot appends a snapshot for its entity and prunes history
	// beyond the configured retention. Returns the storage row id.
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) (int64, error)
	// LatestSnapshot returns the most recent snapshot for the entity,
	// or ErrSnapshotNotFound if it has never been scanned.
	LatestSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error)
	// PreviousSnapshot returns the second-most-recent snapshot, or
	// ErrSnapshotNotFound if fewer than two exist.
	PreviousSnapshot(ctx context.Context, entityID string) (*models.Snapshot, error)
	// AllSnapshots returns the full stored history, newest first.
	AllSnapshots(ctx context.Context, entityID string) ([]*models.Snapshot, error)
}

// SubscriptionRepository stores chat ids subscribed to scan reports.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
