package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sachit-ab-lele/POC2-local/models"
	"github.com/sachit-ab-lele/POC2-local/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidPollID = errors.New("invalid poll ID format")
	ErrInvalidPoll   = errors.New("invalid poll definition")
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollNotActive = errors.New("poll is not active")
	ErrInvalidOption = errors.New("invalid option")
	ErrAlreadyVoted  = errors.New("user already voted on this poll")
	ErrUnavailable   = errors.New("store unavailable")
)

// Counters is the fast-path tally store. All operations are atomic
// single-key primitives; a missing counter reads as zero.
type Counters interface {
	Increment(ctx context.Context, pollID, option string) (int64, error)
	Set(ctx context.Context, pollID, option string, value int64) error
	Get(ctx context.Context, pollID, option string) (int64, error)
	Delete(ctx context.Context, pollID, option string) error
	Counts(ctx context.Context, pollID string, options []string) (map[string]int64, error)
}

// Locker serializes activation across instances when single-active mode is
// enabled.
type Locker interface {
	WithLock(lockName string, expiry time.Duration, action func() error) error
}

// Identity is what the upstream identity collaborator resolves for a
// request. The coordinator trusts it and performs no authentication itself.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// TallyEvent describes a tally change, published after activation and after
// every accepted vote.
type TallyEvent struct {
	PollID   string           `json:"poll_id"`
	Question string           `json:"question"`
	Counts   map[string]int64 `json:"counts"`
}

// Config carries coordinator policy knobs.
type Config struct {
	// SingleActivePoll restores the legacy policy where activating a poll
	// deactivates every other poll and reclaims their counters.
	SingleActivePoll bool
}

// Coordinator orchestrates poll lifecycle, vote casting and result reads
// across the registry, ledger, counter store and snapshot store. It holds no
// in-process locks across store calls: every cross-request guarantee comes
// from an atomic store primitive.
type Coordinator struct {
	polls     repository.PollRegistry
	ledger    repository.VoteLedger
	snapshots repository.SnapshotStore
	counters  Counters
	locks     Locker
	cfg       Config
	publish   func(TallyEvent)
}

// NewCoordinator wires the coordinator to its stores.
func NewCoordinator(polls repository.PollRegistry, ledger repository.VoteLedger,
	snapshots repository.SnapshotStore, counters Counters, locks Locker, cfg Config) *Coordinator {
	return &Coordinator{
		polls:     polls,
		ledger:    ledger,
		snapshots: snapshots,
		counters:  counters,
		locks:     locks,
		cfg:       cfg,
	}
}

// SetPublisher registers the sink for tally events. Publishing is
// best-effort and never blocks a vote.
func (c *Coordinator) SetPublisher(publish func(TallyEvent)) {
	c.publish = publish
}

// CreatePoll validates and stores a new poll in draft state.
func (c *Coordinator) CreatePoll(ctx context.Context, question string, options []string) (*models.Poll, error) {
	if err := models.ValidateOptions(options); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoll, err)
	}
	poll, err := c.polls.Create(ctx, question, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return poll, nil
}

// ListPolls returns all polls, newest first.
func (c *Coordinator) ListPolls(ctx context.Context) ([]models.Poll, error) {
	polls, err := c.polls.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return polls, nil
}

// ActivePolls returns the polls currently accepting votes.
func (c *Coordinator) ActivePolls(ctx context.Context) ([]models.Poll, error) {
	polls, err := c.polls.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return polls, nil
}

// GetPoll resolves one poll by id.
func (c *Coordinator) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	if _, err := uuid.Parse(pollID); err != nil {
		return nil, ErrInvalidPollID
	}
	return c.loadPoll(ctx, pollID)
}

// Activate marks the poll active, seeds every option's counter to zero and
// appends the all-zero baseline snapshot. Multiple polls may be active at
// once unless single-active mode is configured.
func (c *Coordinator) Activate(ctx context.Context, pollID string) error {
	if _, err := uuid.Parse(pollID); err != nil {
		return ErrInvalidPollID
	}

	if c.cfg.SingleActivePoll {
		// Cross-instance mutual exclusion: two concurrent activations must
		// not leave two polls active.
		return c.locks.WithLock("poll:activate", 10*time.Second, func() error {
			if err := c.deactivateOthers(ctx, pollID); err != nil {
				return err
			}
			return c.activate(ctx, pollID)
		})
	}

	return c.activate(ctx, pollID)
}

func (c *Coordinator) activate(ctx context.Context, pollID string) error {
	poll, err := c.loadPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if err := c.polls.SetStatus(ctx, pollID, models.StatusActive); err != nil {
		return c.translateRegistryErr(err)
	}

	// Counters exist from this point on: a vote that observes the poll as
	// active always finds seeded counters.
	zeros := make(map[string]int64, len(poll.Options))
	for _, option := range poll.Options {
		if err := c.counters.Set(ctx, pollID, option, 0); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		zeros[option] = 0
	}

	if err := c.snapshots.Append(ctx, pollID, poll.Question, zeros); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.emit(TallyEvent{PollID: pollID, Question: poll.Question, Counts: zeros})
	return nil
}

// deactivateOthers clears every other active poll, reclaiming its counters.
func (c *Coordinator) deactivateOthers(ctx context.Context, pollID string) error {
	active, err := c.polls.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, other := range active {
		if other.ID == pollID {
			continue
		}
		if err := c.Deactivate(ctx, other.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate marks the poll inactive and deletes its counters. Snapshots
// remain as the read fallback.
func (c *Coordinator) Deactivate(ctx context.Context, pollID string) error {
	if _, err := uuid.Parse(pollID); err != nil {
		return ErrInvalidPollID
	}

	poll, err := c.loadPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if err := c.polls.SetStatus(ctx, pollID, models.StatusInactive); err != nil {
		return c.translateRegistryErr(err)
	}

	return c.clearCounters(ctx, poll)
}

// Delete removes the poll, its counters and its ledger records. The
// snapshot history is kept as an audit trail.
func (c *Coordinator) Delete(ctx context.Context, pollID string) error {
	if _, err := uuid.Parse(pollID); err != nil {
		return ErrInvalidPollID
	}

	poll, err := c.loadPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if err := c.clearCounters(ctx, poll); err != nil {
		return err
	}
	if err := c.ledger.DeleteForPoll(ctx, pollID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := c.polls.Delete(ctx, pollID); err != nil {
		return c.translateRegistryErr(err)
	}
	return nil
}

// CastVote runs the vote-casting protocol and returns the tally after the
// vote was counted.
//
// The dedup decision is the ledger insert, not the preceding read: two
// concurrent votes by the same user both reach Record, exactly one insert
// succeeds, and only the winner increments the counter.
func (c *Coordinator) CastVote(ctx context.Context, pollID string, voter Identity, option string) (map[string]int64, error) {
	if _, err := uuid.Parse(pollID); err != nil {
		return nil, ErrInvalidPollID
	}

	poll, err := c.loadPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !poll.IsActive() {
		return nil, ErrPollNotActive
	}
	if !poll.Options.Contains(option) {
		return nil, fmt.Errorf("%w %q, valid options are: %s",
			ErrInvalidOption, option, strings.Join(poll.Options, ", "))
	}

	// Cheap pre-check; rejects the common duplicate without touching the
	// unique index.
	voted, err := c.ledger.HasVoted(ctx, pollID, voter.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	record := &models.VoteRecord{
		PollID:   pollID,
		UserID:   voter.UserID,
		Username: voter.Username,
		Option:   option,
	}
	if err := c.ledger.Record(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Increment only after the insert succeeded, so a lost dedup race never
	// touches the counter.
	if _, err := c.counters.Increment(ctx, pollID, option); err != nil {
		// The ledger row exists without its increment; tallies can be
		// reconciled from the ledger, so don't retry blindly here.
		log.Printf("counter increment failed for poll %s option %s: %v", pollID, option, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	counts, err := c.counters.Counts(ctx, pollID, poll.Options)
	if err != nil {
		log.Printf("tally read after vote failed for poll %s: %v", pollID, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Snapshot appends are at-least-once and informational: the vote is
	// already durable in the ledger, so a failure here is logged, not
	// returned.
	if err := c.snapshots.Append(ctx, pollID, poll.Question, counts); err != nil {
		log.Printf("snapshot append failed for poll %s: %v", pollID, err)
	}

	c.emit(TallyEvent{PollID: pollID, Question: poll.Question, Counts: counts})
	return counts, nil
}

// Results returns the tally for one poll: live counters while the poll is
// active, the latest snapshot once counters are reclaimed, zero-fill when
// neither exists.
func (c *Coordinator) Results(ctx context.Context, pollID string) (map[string]int64, error) {
	if _, err := uuid.Parse(pollID); err != nil {
		return nil, ErrInvalidPollID
	}

	poll, err := c.loadPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if poll.IsActive() {
		counts, err := c.counters.Counts(ctx, pollID, poll.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return counts, nil
	}

	snapshot, err := c.snapshots.LatestForPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if snapshot != nil {
		return snapshot.Counts, nil
	}
	return zeroFill(poll.Options), nil
}

// LatestResults implements the "current results" read with no poll id: the
// most recent snapshot overall, else zero-fill for an active poll, else an
// empty result.
func (c *Coordinator) LatestResults(ctx context.Context) (map[string]int64, error) {
	snapshot, err := c.snapshots.LatestOverall(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if snapshot != nil {
		return snapshot.Counts, nil
	}

	active, err := c.polls.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(active) > 0 {
		return zeroFill(active[0].Options), nil
	}
	return map[string]int64{}, nil
}

// ListVoters returns the poll's vote records, most recent first.
func (c *Coordinator) ListVoters(ctx context.Context, pollID string) ([]models.VoteRecord, error) {
	if _, err := uuid.Parse(pollID); err != nil {
		return nil, ErrInvalidPollID
	}
	if _, err := c.loadPoll(ctx, pollID); err != nil {
		return nil, err
	}

	records, err := c.ledger.ListVoters(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return records, nil
}

func (c *Coordinator) loadPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, err := c.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, c.translateRegistryErr(err)
	}
	return poll, nil
}

func (c *Coordinator) clearCounters(ctx context.Context, poll *models.Poll) error {
	for _, option := range poll.Options {
		if err := c.counters.Delete(ctx, poll.ID, option); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (c *Coordinator) translateRegistryErr(err error) error {
	if errors.Is(err, repository.ErrPollNotFound) {
		return ErrPollNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (c *Coordinator) emit(event TallyEvent) {
	if c.publish != nil {
		c.publish(event)
	}
}

func zeroFill(options []string) map[string]int64 {
	counts := make(map[string]int64, len(options))
	for _, option := range options {
		counts[option] = 0
	}
	return counts
}
