package poll

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinOptions is the smallest number of options a poll can be created with
const MinOptions = 2

// Poll is a decision question posed to the participants of one event
type Poll struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GatheringID uuid.UUID `json:"gathering_id" gorm:"type:uuid;not null"`
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;not null"`
	Agenda      string    `json:"agenda" gorm:"type:text;not null"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Options []Option `json:"options" gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

// Option is one choice of a poll. Its identity is (PollID, Index); the index
// is the position the option was given at creation.
type Option struct {
	PollID    uuid.UUID `json:"poll_id" gorm:"type:uuid;primaryKey"`
	Index     int       `json:"index" gorm:"column:option_index;primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"not null"`
	VoteCount int       `json:"vote_count" gorm:"not null;default:0"`
}

// TableName overrides the table name
func (Poll) TableName() string {
	return "polls"
}

// TableName overrides the table name
func (Option) TableName() string {
	return "poll_options"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewPoll creates an active poll. Option indices follow the order of
// optionNames, so duplicate names still get distinct indices.
func NewPoll(gatheringID, eventID uuid.UUID, agenda string, optionNames []string) (*Poll, error) {
	p := &Poll{
		ID:          uuid.New(),
		GatheringID: gatheringID,
		EventID:     eventID,
		Agenda:      strings.TrimSpace(agenda),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	p.Options = make([]Option, len(optionNames))
	for i, name := range optionNames {
		p.Options[i] = Option{
			PollID: p.ID,
			Index:  i,
			Name:   strings.TrimSpace(name),
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the poll definition
func (p *Poll) Validate() error {
	if p.Agenda == "" {
		return fmt.Errorf("%w: agenda is required", ErrInvalidPollDefinition)
	}
	if len(p.Options) < MinOptions {
		return fmt.Errorf("%w: at least %d options are required, got %d", ErrInvalidPollDefinition, MinOptions, len(p.Options))
	}
	for i, opt := range p.Options {
		if opt.Index != i {
			return fmt.Errorf("%w: option %d has index %d", ErrInvalidPollDefinition, i, opt.Index)
		}
		if opt.Name == "" {
			return fmt.Errorf("%w: option %d has no name", ErrInvalidPollDefinition, i)
		}
	}
	return nil
}

// HasOption reports whether index denotes an option of this poll
func (p *Poll) HasOption(index int) bool {
	return index >= 0 && index < len(p.Options)
}

// TotalVotes is the sum of all option counters
func (p *Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += opt.VoteCount
	}
	return total
}

// BelongsTo reports whether the poll was created for the given event
func (p *Poll) BelongsTo(gatheringID, eventID uuid.UUID) bool {
	return p.GatheringID == gatheringID && p.EventID == eventID
}
