package repository

import "errors"

var (
	// ErrPollNotFound is returned when a poll id matches no stored poll.
	ErrPollNotFound = errors.New("poll not found")

	// ErrDuplicateVote is returned when the ledger's uniqueness constraint
	// rejects a second vote by the same user on the same poll.
	ErrDuplicateVote = errors.New("user already voted on this poll")
)
