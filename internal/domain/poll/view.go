package poll

import (
	"time"

	"github.com/google/uuid"
)

// OptionView is an option as shown to callers
type OptionView struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	VoteCount int    `json:"vote_count"`
}

// PollView is a poll with its options and current counters
type PollView struct {
	PollID      uuid.UUID    `json:"poll_id"`
	GatheringID uuid.UUID    `json:"gathering_id"`
	EventID     uuid.UUID    `json:"event_id"`
	Agenda      string       `json:"agenda"`
	Options     []OptionView `json:"options"`
	Active      bool         `json:"active"`
	CreatedAt   time.Time    `json:"created_at"`
}

// VoteView is a voter's current choice for a poll
type VoteView struct {
	PollID         uuid.UUID `json:"poll_id"`
	VoterID        uuid.UUID `json:"voter_id"`
	SelectedOption int       `json:"selected_option"`
	Counted        bool      `json:"counted"`
	Version        int64     `json:"version"`
}

// CastResult is the vote state after a cast and the branch that produced it
type CastResult struct {
	Vote       VoteView       `json:"vote"`
	Transition TransitionKind `json:"transition"`
}

// NewPollView converts a poll into its caller-facing form
func NewPollView(p *Poll) PollView {
	options := make([]OptionView, len(p.Options))
	for i, opt := range p.Options {
		options[i] = OptionView{
			Index:     opt.Index,
			Name:      opt.Name,
			VoteCount: opt.VoteCount,
		}
	}
	return PollView{
		PollID:      p.ID,
		GatheringID: p.GatheringID,
		EventID:     p.EventID,
		Agenda:      p.Agenda,
		Options:     options,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

// NewVoteView converts a vote into its caller-facing form
func NewVoteView(v *Vote) VoteView {
	return VoteView{
		PollID:         v.PollID,
		VoterID:        v.VoterID,
		SelectedOption: v.SelectedOption,
		Counted:        v.Counted,
		Version:        v.Version,
	}
}
