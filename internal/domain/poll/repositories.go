package poll

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
)

// Lock selects the row lock taken when a poll is read inside a transaction
type Lock int

const (
	LockNone Lock = iota
	// LockShare blocks finish/delete while a vote is being cast.
	LockShare
	// LockUpdate serializes against casts and other lifecycle changes.
	LockUpdate
)

// Store runs poll operations as atomic units of work
type Store interface {
	// WithinTx runs fn in one transaction. If fn returns an error nothing it
	// did is kept.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Directory is the read side of the gathering/event collaborator
type Directory interface {
	GetGathering(ctx context.Context, id uuid.UUID) (*gathering.Gathering, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*gathering.Event, error)
}

// Tx is the set of operations available inside a Store transaction
type Tx interface {
	Directory

	CreatePoll(ctx context.Context, p *Poll) error
	GetPoll(ctx context.Context, id uuid.UUID, lock Lock) (*Poll, error)
	ListPolls(ctx context.Context, eventID uuid.UUID, page common.PageRequest) ([]*Poll, int64, error)
	FinishPoll(ctx context.Context, id uuid.UUID) error
	DeletePoll(ctx context.Context, id uuid.UUID) error

	GetVote(ctx context.Context, pollID, voterID uuid.UUID) (*Vote, bool, error)
	CreateVote(ctx context.Context, v *Vote) error
	// UpdateVote writes v only if the stored version still equals
	// expectedVersion, and bumps the version; on success v.Version holds the
	// new value. A stale version yields ErrConcurrentVoteConflict.
	UpdateVote(ctx context.Context, v *Vote, expectedVersion int64) error

	// AdjustOptionCount adds delta to the stored counter in place. It fails
	// with ErrCounterInvariant instead of going below zero.
	AdjustOptionCount(ctx context.Context, pollID uuid.UUID, optionIndex, delta int) error
}

// ResultArchiver keeps a copy of a finished poll's final results
type ResultArchiver interface {
	ArchivePoll(ctx context.Context, view PollView) error
}
