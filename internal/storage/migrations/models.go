package migrations

import (
	"time"

	"github.com/google/uuid"
)

// The structs below describe the schema as created by migration 002. They
// are kept apart from the domain types so later domain changes do not alter
// what an already-applied migration means.

// Gathering is a standing group that hosts events
type Gathering struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name      string    `gorm:"size:200;not null"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Events []Event `gorm:"foreignKey:GatheringID;constraint:OnDelete:CASCADE"`
}

func (Gathering) TableName() string {
	return "gatherings"
}

// Event is one meetup of a gathering
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	GatheringID uuid.UUID `gorm:"type:uuid;not null"`
	Title       string    `gorm:"size:200;not null"`
	HostID      uuid.UUID `gorm:"type:uuid;not null"`
	StartsAt    *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Participants []EventParticipant `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Polls        []Poll             `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (Event) TableName() string {
	return "events"
}

// EventParticipant is the membership of a user in an event
type EventParticipant struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}

// Poll is a question posed to the participants of an event
type Poll struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	GatheringID uuid.UUID `gorm:"type:uuid;not null"`
	EventID     uuid.UUID `gorm:"type:uuid;not null"`
	Agenda      string    `gorm:"type:text;not null"`
	Active      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Options []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
	Votes   []PollVote   `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
}

func (Poll) TableName() string {
	return "polls"
}

// PollOption is one choice of a poll with its running counter
type PollOption struct {
	PollID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OptionIndex int       `gorm:"primaryKey;autoIncrement:false"`
	Name        string    `gorm:"size:200;not null"`
	VoteCount   int       `gorm:"not null;default:0"`
}

func (PollOption) TableName() string {
	return "poll_options"
}

// PollVote is a voter's current choice for a poll; Version is the
// compare-and-swap token
type PollVote struct {
	PollID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	VoterID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GatheringID    uuid.UUID `gorm:"type:uuid;not null"`
	EventID        uuid.UUID `gorm:"type:uuid;not null"`
	SelectedOption int       `gorm:"not null"`
	Counted        bool      `gorm:"not null"`
	Version        int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (PollVote) TableName() string {
	return "poll_votes"
}

// AllModels returns the models migration 002 creates, parents first
func AllModels() []any {
	return []any{
		&Gathering{},
		&Event{},
		&EventParticipant{},
		&Poll{},
		&PollOption{},
		&PollVote{},
	}
}
