package interfaces

import (
	"context"

	"github.com/amarcoder01/sift/internal/models"
)

// SnapshotStore persists daily baselines so a same-day restart does not
// repeat the directory crawl. It is a write-behind of the in-memory
// cache; the cache remains canonical.
type SnapshotStore interface {
	// Load returns the persisted snapshot for a trading date, or nil if absent
	Load(ctx context.Context, date string) (*models.DailySnapshot, error)

	// Save persists a snapshot, replacing any prior record for its date
	// and dropping records for older dates
	Save(ctx context.Context, snapshot *models.DailySnapshot) error

	// Close releases the underlying store
	Close() error
}
