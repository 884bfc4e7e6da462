package gathering

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGatheringNotFound = errors.New("gathering not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrNotParticipant    = errors.New("user is not a participant of the event")
	ErrHostCannotLeave   = errors.New("the event host cannot leave the event")
)

// Gathering is a standing group that hosts events
type Gathering struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Gathering) TableName() string {
	return "gatherings"
}

// BeforeCreate sets a UUID before creating the record
func (g *Gathering) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// NewGathering creates a gathering owned by ownerID
func NewGathering(name string, ownerID uuid.UUID) *Gathering {
	return &Gathering{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks if the gathering data is valid
func (g *Gathering) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("name is required")
	}
	if g.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required")
	}
	return nil
}

// Event is a single meetup inside a gathering. The host created it and is
// always counted among its participants.
type Event struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	GatheringID uuid.UUID  `json:"gathering_id" gorm:"type:uuid;not null"`
	Title       string     `json:"title" gorm:"not null"`
	HostID      uuid.UUID  `json:"host_id" gorm:"type:uuid;not null"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	ParticipantIDs []uuid.UUID `json:"participant_ids" gorm:"-"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewEvent creates an event hosted by hostID, who joins it immediately
func NewEvent(gatheringID uuid.UUID, title string, hostID uuid.UUID, startsAt *time.Time) *Event {
	return &Event{
		ID:             uuid.New(),
		GatheringID:    gatheringID,
		Title:          strings.TrimSpace(title),
		HostID:         hostID,
		StartsAt:       startsAt,
		CreatedAt:      time.Now().UTC(),
		ParticipantIDs: []uuid.UUID{hostID},
	}
}

// IsHost checks if the given user ID created this event
func (e *Event) IsHost(userID uuid.UUID) bool {
	return userID != uuid.Nil && e.HostID == userID
}

// IsParticipant checks if the given user joined this event. The host always
// counts as a participant.
func (e *Event) IsParticipant(userID uuid.UUID) bool {
	if e.IsHost(userID) {
		return true
	}
	return slices.Contains(e.ParticipantIDs, userID)
}

// AddParticipant records userID as a participant; joining twice is a no-op
func (e *Event) AddParticipant(userID uuid.UUID) {
	if slices.Contains(e.ParticipantIDs, userID) {
		return
	}
	e.ParticipantIDs = append(e.ParticipantIDs, userID)
}

// RemoveParticipant removes userID from the participant list
func (e *Event) RemoveParticipant(userID uuid.UUID) error {
	if e.IsHost(userID) {
		return ErrHostCannotLeave
	}
	idx := slices.Index(e.ParticipantIDs, userID)
	if idx < 0 {
		return ErrNotParticipant
	}
	e.ParticipantIDs = slices.Delete(e.ParticipantIDs, idx, idx+1)
	return nil
}

// Validate checks if the event data is valid
func (e *Event) Validate() error {
	if e.GatheringID == uuid.Nil {
		return fmt.Errorf("gathering_id is required")
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.HostID == uuid.Nil {
		return fmt.Errorf("host_id is required")
	}
	return nil
}

// EventParticipant is the membership row linking a user to an event
type EventParticipant struct {
	EventID  uuid.UUID `json:"event_id" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (EventParticipant) TableName() string {
	return "event_participants"
}
