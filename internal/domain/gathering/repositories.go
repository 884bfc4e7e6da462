package gathering

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores gatherings, events and event membership
type Repository interface {
	CreateGathering(ctx context.Context, g *Gathering) error
	GetGathering(ctx context.Context, id uuid.UUID) (*Gathering, error)
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error
}
