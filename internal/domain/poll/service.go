package poll

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/logger"
)

// PollService coordinates poll lifecycle and vote casting. It keeps no state;
// every operation is one Store transaction in which authorization is checked
// against the event before anything is written.
type PollService struct {
	store    Store
	archiver ResultArchiver
	log      *log.Logger
}

// NewPollService creates a poll service. archiver may be nil.
func NewPollService(store Store, archiver ResultArchiver) *PollService {
	return &PollService{
		store:    store,
		archiver: archiver,
		log:      logger.Service("poll"),
	}
}

// EventRef addresses an event on behalf of a requester
type EventRef struct {
	GatheringID uuid.UUID
	EventID     uuid.UUID
	RequesterID uuid.UUID
}

// PollRef addresses a poll on behalf of a requester
type PollRef struct {
	GatheringID uuid.UUID
	EventID     uuid.UUID
	RequesterID uuid.UUID
	PollID      uuid.UUID
}

// CreatePollRequest is the input of CreatePoll
type CreatePollRequest struct {
	GatheringID uuid.UUID
	EventID     uuid.UUID
	RequesterID uuid.UUID
	Agenda      string
	OptionNames []string
}

// CastVoteRequest is the input of CastVote
type CastVoteRequest struct {
	GatheringID uuid.UUID
	EventID     uuid.UUID
	VoterID     uuid.UUID
	PollID      uuid.UUID
	OptionIndex int
}

// CreatePoll creates an active poll on an event. Only the event host may do so.
func (s *PollService) CreatePoll(ctx context.Context, req CreatePollRequest) (*PollView, error) {
	var view PollView
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		evt, err := resolveEvent(ctx, tx, req.GatheringID, req.EventID)
		if err != nil {
			return err
		}

		p, err := NewPoll(req.GatheringID, req.EventID, req.Agenda, req.OptionNames)
		if err != nil {
			return err
		}

		if !evt.IsHost(req.RequesterID) {
			return ErrEventCreatorOnly
		}

		if err := tx.CreatePoll(ctx, p); err != nil {
			return err
		}
		view = NewPollView(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("poll created", "poll_id", view.PollID, "event_id", view.EventID, "options", len(view.Options))
	return &view, nil
}

// CastVote applies one cast of the vote state machine for the voter. The vote
// row and the affected counters change together or not at all.
func (s *PollService) CastVote(ctx context.Context, req CastVoteRequest) (*CastResult, error) {
	var result CastResult
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		evt, err := resolveEvent(ctx, tx, req.GatheringID, req.EventID)
		if err != nil {
			return err
		}
		if !evt.IsParticipant(req.VoterID) {
			return ErrNotParticipated
		}

		p, err := resolvePoll(ctx, tx, req.GatheringID, req.EventID, req.PollID, LockShare)
		if err != nil {
			return err
		}
		if !p.Active {
			return ErrDeactivatedPoll
		}
		if !p.HasOption(req.OptionIndex) {
			return fmt.Errorf("%w: index %d", ErrOptionNotFound, req.OptionIndex)
		}

		v, found, err := tx.GetVote(ctx, p.ID, req.VoterID)
		if err != nil {
			return err
		}

		var transition Transition
		if !found {
			v, transition = NewVote(p, req.VoterID, req.OptionIndex)
			if err := tx.CreateVote(ctx, v); err != nil {
				return err
			}
		} else {
			expected := v.Version
			transition = v.Cast(req.OptionIndex)
			if err := tx.UpdateVote(ctx, v, expected); err != nil {
				return err
			}
		}

		// option rows are always locked in index order so opposite switches cannot deadlock
		deltas := slices.Clone(transition.Deltas)
		slices.SortFunc(deltas, func(a, b CounterDelta) int { return cmp.Compare(a.OptionIndex, b.OptionIndex) })
		for _, d := range deltas {
			if err := tx.AdjustOptionCount(ctx, p.ID, d.OptionIndex, d.Delta); err != nil {
				return err
			}
		}

		result = CastResult{Vote: NewVoteView(v), Transition: transition.Kind}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentVoteConflict) {
			s.log.Warn("concurrent vote rejected", "poll_id", req.PollID, "voter_id", req.VoterID)
		}
		return nil, err
	}

	s.log.Debug("vote cast",
		"poll_id", req.PollID,
		"voter_id", req.VoterID,
		"option", req.OptionIndex,
		"transition", result.Transition,
		"version", result.Vote.Version)
	return &result, nil
}

// GetPoll returns one poll of the event. The requester must participate.
func (s *PollService) GetPoll(ctx context.Context, ref PollRef) (*PollView, error) {
	var view PollView
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := requireParticipant(ctx, tx, ref.GatheringID, ref.EventID, ref.RequesterID); err != nil {
			return err
		}
		p, err := resolvePoll(ctx, tx, ref.GatheringID, ref.EventID, ref.PollID, LockNone)
		if err != nil {
			return err
		}
		view = NewPollView(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetPolls returns a page of the event's polls in creation order
func (s *PollService) GetPolls(ctx context.Context, ref EventRef, page common.PageRequest) (*common.Page[PollView], error) {
	page = page.Normalize()

	var result common.Page[PollView]
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := requireParticipant(ctx, tx, ref.GatheringID, ref.EventID, ref.RequesterID); err != nil {
			return err
		}
		polls, total, err := tx.ListPolls(ctx, ref.EventID, page)
		if err != nil {
			return err
		}
		views := make([]PollView, len(polls))
		for i, p := range polls {
			views[i] = NewPollView(p)
		}
		result = common.NewPage(page, views, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMyVote returns the requester's current vote on a poll
func (s *PollService) GetMyVote(ctx context.Context, ref PollRef) (*VoteView, error) {
	var view VoteView
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := requireParticipant(ctx, tx, ref.GatheringID, ref.EventID, ref.RequesterID); err != nil {
			return err
		}
		p, err := resolvePoll(ctx, tx, ref.GatheringID, ref.EventID, ref.PollID, LockNone)
		if err != nil {
			return err
		}
		v, found, err := tx.GetVote(ctx, p.ID, ref.RequesterID)
		if err != nil {
			return err
		}
		if !found {
			return ErrVoteNotFound
		}
		view = NewVoteView(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// FinishPoll closes an active poll for good. Only the event host may do so.
func (s *PollService) FinishPoll(ctx context.Context, ref PollRef) error {
	var view PollView
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		evt, err := resolveEvent(ctx, tx, ref.GatheringID, ref.EventID)
		if err != nil {
			return err
		}
		p, err := resolvePoll(ctx, tx, ref.GatheringID, ref.EventID, ref.PollID, LockUpdate)
		if err != nil {
			return err
		}
		if !p.Active {
			return ErrDeactivatedPoll
		}
		if !evt.IsHost(ref.RequesterID) {
			return ErrEventCreatorOnly
		}
		if err := tx.FinishPoll(ctx, p.ID); err != nil {
			return err
		}
		p.Active = false
		view = NewPollView(p)
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("poll finished", "poll_id", ref.PollID, "event_id", ref.EventID)
	s.archive(ctx, view)
	return nil
}

// DeletePoll removes a poll with its options and votes. Only the event host may do so.
func (s *PollService) DeletePoll(ctx context.Context, ref PollRef) error {
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		evt, err := resolveEvent(ctx, tx, ref.GatheringID, ref.EventID)
		if err != nil {
			return err
		}
		p, err := resolvePoll(ctx, tx, ref.GatheringID, ref.EventID, ref.PollID, LockUpdate)
		if err != nil {
			return err
		}
		if !evt.IsHost(ref.RequesterID) {
			return ErrEventCreatorOnly
		}
		return tx.DeletePoll(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("poll deleted", "poll_id", ref.PollID, "event_id", ref.EventID)
	return nil
}

// archive runs after the finish has committed, so a failure here cannot undo it
func (s *PollService) archive(ctx context.Context, view PollView) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchivePoll(ctx, view); err != nil {
		s.log.Error("failed to archive finished poll", "poll_id", view.PollID, "error", err)
	}
}

func resolveEvent(ctx context.Context, tx Tx, gatheringID, eventID uuid.UUID) (*gathering.Event, error) {
	if _, err := tx.GetGathering(ctx, gatheringID); err != nil {
		return nil, err
	}
	evt, err := tx.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if evt.GatheringID != gatheringID {
		return nil, gathering.ErrEventNotFound
	}
	return evt, nil
}

func requireParticipant(ctx context.Context, tx Tx, gatheringID, eventID, userID uuid.UUID) error {
	evt, err := resolveEvent(ctx, tx, gatheringID, eventID)
	if err != nil {
		return err
	}
	if !evt.IsParticipant(userID) {
		return ErrNotParticipated
	}
	return nil
}

func resolvePoll(ctx context.Context, tx Tx, gatheringID, eventID, pollID uuid.UUID, lock Lock) (*Poll, error) {
	p, err := tx.GetPoll(ctx, pollID, lock)
	if err != nil {
		return nil, err
	}
	if !p.BelongsTo(gatheringID, eventID) {
		return nil, ErrPollNotFound
	}
	return p, nil
}
