package services

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/validation"
)

// DirectoryService handles gatherings, their events and event membership
type DirectoryService struct {
	repo      gathering.Repository
	validator validation.GatheringValidation
	log       *log.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(repo gathering.Repository) *DirectoryService {
	return &DirectoryService{
		repo:      repo,
		validator: validation.GatheringValidation{},
		log:       logger.Service("directory"),
	}
}

// CreateGatheringRequest is the body of a create-gathering call
type CreateGatheringRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateEventRequest is the body of a create-event call
type CreateEventRequest struct {
	Title    string     `json:"title" binding:"required"`
	StartsAt *time.Time `json:"starts_at"`
}

// CreateGathering creates a gathering owned by the requester
func (s *DirectoryService) CreateGathering(ctx context.Context, requesterID uuid.UUID, req CreateGatheringRequest) (*gathering.Gathering, error) {
	if err := s.validator.ValidateName(req.Name); err != nil {
		return nil, err
	}

	g := gathering.NewGathering(req.Name, requesterID)
	if err := s.repo.CreateGathering(ctx, g); err != nil {
		return nil, err
	}

	s.log.Info("gathering created", "gathering_id", g.ID, "owner_id", requesterID)
	return g, nil
}

// CreateEvent creates an event in a gathering. The requester becomes its
// host and first participant.
func (s *DirectoryService) CreateEvent(ctx context.Context, gatheringID, requesterID uuid.UUID, req CreateEventRequest) (*gathering.Event, error) {
	if err := s.validator.ValidateEventTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotPast(req.StartsAt, "starts_at"); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetGathering(ctx, gatheringID); err != nil {
		return nil, err
	}

	e := gathering.NewEvent(gatheringID, req.Title, requesterID, req.StartsAt)
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("event created", "event_id", e.ID, "gathering_id", gatheringID, "host_id", requesterID)
	return e, nil
}

// GetEvent returns an event of the gathering with its participants
func (s *DirectoryService) GetEvent(ctx context.Context, gatheringID, eventID uuid.UUID) (*gathering.Event, error) {
	if _, err := s.repo.GetGathering(ctx, gatheringID); err != nil {
		return nil, err
	}
	e, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.GatheringID != gatheringID {
		return nil, gathering.ErrEventNotFound
	}
	return e, nil
}

// JoinEvent adds the requester to the event's participants
func (s *DirectoryService) JoinEvent(ctx context.Context, gatheringID, eventID, requesterID uuid.UUID) error {
	if _, err := s.GetEvent(ctx, gatheringID, eventID); err != nil {
		return err
	}
	if err := s.repo.AddParticipant(ctx, eventID, requesterID); err != nil {
		return err
	}

	s.log.Debug("participant joined", "event_id", eventID, "user_id", requesterID)
	return nil
}

// LeaveEvent removes the requester from the event. The host cannot leave.
func (s *DirectoryService) LeaveEvent(ctx context.Context, gatheringID, eventID, requesterID uuid.UUID) error {
	if _, err := s.GetEvent(ctx, gatheringID, eventID); err != nil {
		return err
	}
	if err := s.repo.RemoveParticipant(ctx, eventID, requesterID); err != nil {
		return err
	}

	s.log.Debug("participant left", "event_id", eventID, "user_id", requesterID)
	return nil
}
