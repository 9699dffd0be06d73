package repository

import (
	"context"
	"errors"

	"github.com/sachit-ab-lele/POC2-local/models"

	"gorm.io/gorm"
)

// SnapshotStore is the append-only history of tally states. Snapshots are
// written after activation and after every accepted vote; nothing here is
// ever updated in place.
type SnapshotStore interface {
	Append(ctx context.Context, pollID, question string, counts map[string]int64) error
	LatestForPoll(ctx context.Context, pollID string) (*models.Snapshot, error)
	LatestOverall(ctx context.Context) (*models.Snapshot, error)
}

type gormSnapshotStore struct {
	db *gorm.DB
}

// NewSnapshotStore returns a GORM-backed snapshot store.
func NewSnapshotStore(db *gorm.DB) SnapshotStore {
	return &gormSnapshotStore{db: db}
}

func (s *gormSnapshotStore) Append(ctx context.Context, pollID, question string, counts map[string]int64) error {
	snapshot := &models.Snapshot{
		PollID:   pollID,
		Question: question,
		Counts:   models.CountMap(counts),
	}
	return s.db.WithContext(ctx).Create(snapshot).Error
}

func (s *gormSnapshotStore) LatestForPoll(ctx context.Context, pollID string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := s.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("id desc").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *gormSnapshotStore) LatestOverall(ctx context.Context) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := s.db.WithContext(ctx).Order("id desc").First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
