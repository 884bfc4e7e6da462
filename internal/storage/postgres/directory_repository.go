package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/logger"
)

// DirectoryRepository implements gathering.Repository using GORM
type DirectoryRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewDirectoryRepository creates a new PostgreSQL gathering/event repository
func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{
		db:  db,
		log: logger.Repository("directory"),
	}
}

func (r *DirectoryRepository) CreateGathering(ctx context.Context, g *gathering.Gathering) error {
	r.log.Debug("creating gathering", "gathering_id", g.ID, "owner_id", g.OwnerID)

	if err := g.Validate(); err != nil {
		return fmt.Errorf("gathering validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		r.log.Error("failed to create gathering", "gathering_id", g.ID, "error", err)
		return fmt.Errorf("failed to create gathering: %w", err)
	}

	r.log.Info("gathering created", "gathering_id", g.ID)
	return nil
}

func (r *DirectoryRepository) GetGathering(ctx context.Context, id uuid.UUID) (*gathering.Gathering, error) {
	var g gathering.Gathering
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("gathering not found", "gathering_id", id)
			return nil, gathering.ErrGatheringNotFound
		}
		r.log.Error("failed to retrieve gathering", "gathering_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve gathering: %w", err)
	}
	return &g, nil
}

// CreateEvent stores the event and its initial participant rows together
func (r *DirectoryRepository) CreateEvent(ctx context.Context, e *gathering.Event) error {
	r.log.Debug("creating event", "event_id", e.ID, "gathering_id", e.GatheringID, "host_id", e.HostID)

	if err := e.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}
	e.AddParticipant(e.HostID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&gathering.Gathering{}).Where("id = ?", e.GatheringID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check gathering: %w", err)
		}
		if count == 0 {
			return gathering.ErrGatheringNotFound
		}

		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		rows := make([]gathering.EventParticipant, len(e.ParticipantIDs))
		for i, userID := range e.ParticipantIDs {
			rows[i] = gathering.EventParticipant{EventID: e.ID, UserID: userID}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add event participants: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, gathering.ErrGatheringNotFound) {
			r.log.Error("failed to create event", "event_id", e.ID, "error", err)
		}
		return err
	}

	r.log.Info("event created", "event_id", e.ID, "gathering_id", e.GatheringID)
	return nil
}

func (r *DirectoryRepository) GetEvent(ctx context.Context, id uuid.UUID) (*gathering.Event, error) {
	return r.getEvent(ctx, r.db, id, clause.Locking{})
}

// getEvent loads the event row, taking the given lock when it has a
// strength, along with its participant ids
func (r *DirectoryRepository) getEvent(ctx context.Context, db *gorm.DB, id uuid.UUID, lock clause.Locking) (*gathering.Event, error) {
	query := db.WithContext(ctx)
	if lock.Strength != "" {
		query = query.Clauses(lock)
	}

	var e gathering.Event
	if err := query.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("event not found", "event_id", id)
			return nil, gathering.ErrEventNotFound
		}
		r.log.Error("failed to retrieve event", "event_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve event: %w", err)
	}

	var raw pq.StringArray
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(ARRAY_AGG(user_id::text ORDER BY joined_at, user_id), '{}')
		FROM event_participants
		WHERE event_id = ?`, id).Row().Scan(&raw)
	if err != nil {
		r.log.Error("failed to retrieve event participants", "event_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve event participants: %w", err)
	}

	e.ParticipantIDs = make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		userID, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid participant id %q: %w", s, err)
		}
		e.ParticipantIDs = append(e.ParticipantIDs, userID)
	}
	return &e, nil
}

// AddParticipant joins userID to the event; joining twice is a no-op
func (r *DirectoryRepository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	r.log.Debug("adding participant", "event_id", eventID, "user_id", userID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.lockEvent(tx, eventID); err != nil {
			return err
		}
		row := gathering.EventParticipant{EventID: eventID, UserID: userID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
	if err != nil {
		if !errors.Is(err, gathering.ErrEventNotFound) {
			r.log.Error("failed to add participant", "event_id", eventID, "user_id", userID, "error", err)
		}
		return err
	}

	r.log.Info("participant added", "event_id", eventID, "user_id", userID)
	return nil
}

// RemoveParticipant removes userID from the event. The host cannot leave.
func (r *DirectoryRepository) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	r.log.Debug("removing participant", "event_id", eventID, "user_id", userID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := r.lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if e.IsHost(userID) {
			return gathering.ErrHostCannotLeave
		}

		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&gathering.EventParticipant{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gathering.ErrNotParticipant
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("participant removed", "event_id", eventID, "user_id", userID)
	return nil
}

// lockEvent takes an exclusive lock on the event row, which waits for any poll
// transaction still holding it in share mode
func (r *DirectoryRepository) lockEvent(tx *gorm.DB, eventID uuid.UUID) (*gathering.Event, error) {
	var e gathering.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", eventID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gathering.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	return &e, nil
}

var _ gathering.Repository = (*DirectoryRepository)(nil)
