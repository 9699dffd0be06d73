package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PollStatus is the lifecycle state of a poll.
type PollStatus string

const (
	StatusDraft    PollStatus = "draft"
	StatusActive   PollStatus = "active"
	StatusInactive PollStatus = "inactive"
	StatusDeleted  PollStatus = "deleted"
)

// OptionList is an ordered list of option labels, stored as a JSON column.
type OptionList []string

func (o OptionList) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *OptionList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		*o = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into OptionList", value)
	}
}

// Contains reports whether label is one of the poll's options.
func (o OptionList) Contains(label string) bool {
	for _, opt := range o {
		if opt == label {
			return true
		}
	}
	return false
}

// CountMap maps an option label to its vote count, stored as a JSON column.
type CountMap map[string]int64

func (c CountMap) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CountMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CountMap", value)
	}
}

// Poll represents a voting poll. Options are immutable once created;
// lifecycle changes go through the coordinator so counters stay in step.
type Poll struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Question  string         `gorm:"not null" json:"question"`
	Options   OptionList     `gorm:"type:text;not null" json:"options"`
	Status    PollStatus     `gorm:"size:16;not null;default:draft;index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsActive reports whether the poll currently accepts votes.
func (p *Poll) IsActive() bool {
	return p.Status == StatusActive
}

// VoteRecord is one user's accepted vote on one poll. The composite unique
// index is the dedup guarantee: the insert fails for a second vote by the
// same user on the same poll, no matter how many instances race.
type VoteRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PollID    string    `gorm:"size:36;not null;uniqueIndex:idx_vote_poll_user" json:"poll_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_vote_poll_user" json:"user_id"`
	Username  string    `gorm:"size:128;not null" json:"username"`
	Option    string    `gorm:"not null" json:"option"`
	CreatedAt time.Time `json:"voted_at"`
}

// Snapshot is an append-only point-in-time tally for a poll. Rows are never
// updated or deleted; they form the audit trail and the read fallback when
// counters are gone.
type Snapshot struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PollID    string    `gorm:"size:36;not null;index" json:"poll_id"`
	Question  string    `gorm:"not null" json:"poll_question"`
	Counts    CountMap  `gorm:"type:text;not null" json:"counts"`
	CreatedAt time.Time `json:"timestamp"`
}

// User is a login principal for the identity collaborator.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:128;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateOptions enforces the creation-time option rules.
func ValidateOptions(options []string) error {
	if len(options) < 2 {
		return errors.New("a poll must have at least two options")
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if opt == "" {
			return errors.New("option labels must be non-empty")
		}
		if seen[opt] {
			return fmt.Errorf("duplicate option: %s", opt)
		}
		seen[opt] = true
	}
	return nil
}
