package repository

import (
	"context"
	"errors"

	"github.com/sachit-ab-lele/POC2-local/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PollRegistry is the durable source of truth for poll definitions and
// lifecycle state.
type PollRegistry interface {
	Create(ctx context.Context, question string, options []string) (*models.Poll, error)
	GetByID(ctx context.Context, id string) (*models.Poll, error)
	List(ctx context.Context) ([]models.Poll, error)
	ListActive(ctx context.Context) ([]models.Poll, error)
	SetStatus(ctx context.Context, id string, status models.PollStatus) error
	Delete(ctx context.Context, id string) error
}

type gormPollRegistry struct {
	db *gorm.DB
}

// NewPollRegistry returns a GORM-backed poll registry.
func NewPollRegistry(db *gorm.DB) PollRegistry {
	return &gormPollRegistry{db: db}
}

// Create stores a new poll in draft state. Option validation happens here so
// no malformed poll ever reaches storage.
func (r *gormPollRegistry) Create(ctx context.Context, question string, options []string) (*models.Poll, error) {
	if err := models.ValidateOptions(options); err != nil {
		return nil, err
	}

	poll := &models.Poll{
		ID:       uuid.NewString(),
		Question: question,
		Options:  models.OptionList(options),
		Status:   models.StatusDraft,
	}
	if err := r.db.WithContext(ctx).Create(poll).Error; err != nil {
		return nil, err
	}
	return poll, nil
}

func (r *gormPollRegistry) GetByID(ctx context.Context, id string) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).First(&poll, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return &poll, nil
}

func (r *gormPollRegistry) List(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *gormPollRegistry) ListActive(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("created_at desc").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *gormPollRegistry) SetStatus(ctx context.Context, id string, status models.PollStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Poll{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPollNotFound
	}
	return nil
}

// Delete tombstones the poll. Soft delete keeps the row for snapshot audits
// while removing it from every registry read.
func (r *gormPollRegistry) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx)
	result := tx.Model(&models.Poll{}).
		Where("id = ?", id).
		Update("status", models.StatusDeleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPollNotFound
	}
	return tx.Delete(&models.Poll{}, "id = ?", id).Error
}
