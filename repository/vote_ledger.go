package repository

import (
	"context"
	"errors"

	"github.com/sachit-ab-lele/POC2-local/models"

	"gorm.io/gorm"
)

// VoteLedger is the durable record of which user voted for what. Its
// conditional insert is the system's authoritative dedup decision.
type VoteLedger interface {
	// HasVoted is the cheap pre-check; Record is the guarantee.
	HasVoted(ctx context.Context, pollID, userID string) (bool, error)

	// Record inserts the vote record, returning ErrDuplicateVote when a
	// record for (pollID, userID) already exists. The check and the insert
	// are a single indivisible operation at the database level.
	Record(ctx context.Context, record *models.VoteRecord) error

	// ListVoters returns all vote records for a poll, most recent first.
	ListVoters(ctx context.Context, pollID string) ([]models.VoteRecord, error)

	// DeleteForPoll cascade-removes all records of a deleted poll.
	DeleteForPoll(ctx context.Context, pollID string) error
}

type gormVoteLedger struct {
	db *gorm.DB
}

// NewVoteLedger returns a GORM-backed vote ledger.
func NewVoteLedger(db *gorm.DB) VoteLedger {
	return &gormVoteLedger{db: db}
}

func (l *gormVoteLedger) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.VoteRecord{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (l *gormVoteLedger) Record(ctx context.Context, record *models.VoteRecord) error {
	err := l.db.WithContext(ctx).Create(record).Error
	if err != nil {
		// The unique index on (poll_id, user_id) turns the lost race into a
		// duplicate-key error instead of a double count.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (l *gormVoteLedger) ListVoters(ctx context.Context, pollID string) ([]models.VoteRecord, error) {
	var records []models.VoteRecord
	err := l.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (l *gormVoteLedger) DeleteForPoll(ctx context.Context, pollID string) error {
	return l.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Delete(&models.VoteRecord{}).Error
}
