package poll

import "errors"

var (
	ErrPollNotFound           = errors.New("poll not found")
	ErrOptionNotFound         = errors.New("option not found")
	ErrVoteNotFound           = errors.New("vote not found")
	ErrEventCreatorOnly       = errors.New("only the event host can perform this operation")
	ErrNotParticipated        = errors.New("user is not a participant of the event")
	ErrDeactivatedPoll        = errors.New("poll is finished")
	ErrConcurrentVoteConflict = errors.New("vote was changed concurrently, retry")
	ErrInvalidPollDefinition  = errors.New("invalid poll definition")

	// ErrCounterInvariant means an option counter update would leave the
	// counter negative. It indicates corrupted state and aborts the transaction.
	ErrCounterInvariant = errors.New("option vote counter invariant violated")
)
