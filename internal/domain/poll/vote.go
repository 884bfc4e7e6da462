package poll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Vote is one voter's current choice for one poll. There is at most one Vote
// per (PollID, VoterID); cancelling only clears Counted, so the row lives
// until its poll is deleted.
type Vote struct {
	PollID         uuid.UUID `json:"poll_id" gorm:"type:uuid;primaryKey"`
	VoterID        uuid.UUID `json:"voter_id" gorm:"type:uuid;primaryKey"`
	GatheringID    uuid.UUID `json:"gathering_id" gorm:"type:uuid;not null"`
	EventID        uuid.UUID `json:"event_id" gorm:"type:uuid;not null"`
	SelectedOption int       `json:"selected_option" gorm:"not null"`
	Counted        bool      `json:"counted" gorm:"not null"`
	Version        int64     `json:"version" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Vote) TableName() string {
	return "poll_votes"
}

// TransitionKind names the branch of the cast-vote state machine that was taken
type TransitionKind string

const (
	// TransitionCast is a first vote: a new row, counted for the target.
	TransitionCast TransitionKind = "cast"
	// TransitionCancel is a counted vote cast again for the same option.
	TransitionCancel TransitionKind = "cancel"
	// TransitionSwitch moves a counted vote to another option.
	TransitionSwitch TransitionKind = "switch"
	// TransitionRestore re-counts a cancelled vote for its previous option.
	TransitionRestore TransitionKind = "restore"
	// TransitionRecast re-counts a cancelled vote for a different option.
	TransitionRecast TransitionKind = "recast"
)

// CounterDelta is a change to apply to one option counter
type CounterDelta struct {
	OptionIndex int
	Delta       int
}

// Transition is the outcome of a cast: which branch ran and which counters move
type Transition struct {
	Kind   TransitionKind
	Deltas []CounterDelta
}

// NewVote creates the row for a voter's first cast, counted for optionIndex
func NewVote(p *Poll, voterID uuid.UUID, optionIndex int) (*Vote, Transition) {
	v := &Vote{
		PollID:         p.ID,
		VoterID:        voterID,
		GatheringID:    p.GatheringID,
		EventID:        p.EventID,
		SelectedOption: optionIndex,
		Counted:        true,
		Version:        0,
	}
	return v, Transition{
		Kind:   TransitionCast,
		Deltas: []CounterDelta{{OptionIndex: optionIndex, Delta: 1}},
	}
}

// Cast applies a repeated cast for optionIndex to an existing vote.
//
//	counted,  same option  -> cancel  (-1 on it)
//	counted,  other option -> switch  (-1 old, +1 new)
//	!counted, same option  -> restore (+1)
//	!counted, other option -> recast  (+1 new; the old one was never counted)
func (v *Vote) Cast(optionIndex int) Transition {
	switch {
	case v.Counted && v.SelectedOption == optionIndex:
		v.Counted = false
		return Transition{
			Kind:   TransitionCancel,
			Deltas: []CounterDelta{{OptionIndex: optionIndex, Delta: -1}},
		}

	case v.Counted:
		previous := v.SelectedOption
		v.SelectedOption = optionIndex
		return Transition{
			Kind: TransitionSwitch,
			Deltas: []CounterDelta{
				{OptionIndex: previous, Delta: -1},
				{OptionIndex: optionIndex, Delta: 1},
			},
		}

	case v.SelectedOption == optionIndex:
		v.Counted = true
		return Transition{
			Kind:   TransitionRestore,
			Deltas: []CounterDelta{{OptionIndex: optionIndex, Delta: 1}},
		}

	default:
		v.SelectedOption = optionIndex
		v.Counted = true
		return Transition{
			Kind:   TransitionRecast,
			Deltas: []CounterDelta{{OptionIndex: optionIndex, Delta: 1}},
		}
	}
}

// Validate checks if the vote data is valid
func (v *Vote) Validate() error {
	if v.PollID == uuid.Nil {
		return fmt.Errorf("poll_id is required")
	}
	if v.VoterID == uuid.Nil {
		return fmt.Errorf("voter_id is required")
	}
	if v.SelectedOption < 0 {
		return fmt.Errorf("selected_option must not be negative")
	}
	if v.Version < 0 {
		return fmt.Errorf("version must not be negative")
	}
	return nil
}
