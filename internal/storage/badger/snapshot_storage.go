package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

type snapshotStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSnapshotStorage creates a SnapshotStore backed by BadgerHold. Only the
// latest trading date is retained; saving a snapshot for a new date prunes
// the older ones.
func NewSnapshotStorage(store *Store, logger *common.Logger) interfaces.SnapshotStore {
	return &snapshotStorage{store: store, logger: logger}
}

func (s *snapshotStorage) Load(_ context.Context, date string) (*models.DailySnapshot, error) {
	var snapshot models.DailySnapshot
	err := s.store.db.Get(date, &snapshot)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("snapshot for %s not found", date)
		}
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", date, err)
	}
	return &snapshot, nil
}

func (s *snapshotStorage) Save(_ context.Context, snapshot *models.DailySnapshot) error {
	if snapshot == nil || snapshot.Date == "" {
		return fmt.Errorf("snapshot requires a trading date")
	}

	if err := s.store.db.Upsert(snapshot.Date, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snapshot.Date, err)
	}

	if err := s.pruneBefore(snapshot.Date); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to prune stale snapshots")
	}

	s.logger.Debug().Str("date", snapshot.Date).Int("rows", len(snapshot.Rows)).Msg("Snapshot saved")
	return nil
}

// pruneBefore deletes snapshots older than the given date. Dates are ISO
// strings, so lexical comparison matches chronological order.
func (s *snapshotStorage) pruneBefore(date string) error {
	return s.store.db.DeleteMatching(&models.DailySnapshot{},
		badgerhold.Where("Date").Lt(date))
}

func (s *snapshotStorage) Close() error {
	return s.store.Close()
}

var _ interfaces.SnapshotStore = (*snapshotStorage)(nil)
