package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
)

// PollRepository implements poll.Store on top of GORM transactions
type PollRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPollRepository creates a new PostgreSQL poll repository
func NewPollRepository(db *gorm.DB) *PollRepository {
	return &PollRepository{
		db:  db,
		log: logger.Repository("poll"),
	}
}

// WithinTx runs fn inside a database transaction. The transaction is rolled
// back when fn returns an error, and that error is returned unchanged.
func (r *PollRepository) WithinTx(ctx context.Context, fn func(tx poll.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&pollTx{
			db:  db,
			log: r.log,
			directory: &DirectoryRepository{
				db:  db,
				log: r.log,
			},
		})
	})
}

// CounterDrift lists polls whose stored option counters disagree with their
// counted votes
func (r *PollRepository) CounterDrift(ctx context.Context) ([]uuid.UUID, error) {
	var raw []string
	if err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT poll_id::text FROM poll_counter_drift ORDER BY 1").
		Scan(&raw).Error; err != nil {
		r.log.Error("failed to read counter drift", "error", err)
		return nil, fmt.Errorf("failed to read counter drift: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid poll id in drift view: %w", err)
		}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		r.log.Warn("option counters out of sync", "polls", len(ids))
	}
	return ids, nil
}

type pollTx struct {
	db        *gorm.DB
	log       *log.Logger
	directory *DirectoryRepository
}

func (t *pollTx) GetGathering(ctx context.Context, id uuid.UUID) (*gathering.Gathering, error) {
	return t.directory.GetGathering(ctx, id)
}

// GetEvent share-locks the event row so membership cannot change before the
// transaction commits
func (t *pollTx) GetEvent(ctx context.Context, id uuid.UUID) (*gathering.Event, error) {
	return t.directory.getEvent(ctx, t.db, id, clause.Locking{Strength: "SHARE"})
}

func (t *pollTx) CreatePoll(ctx context.Context, p *poll.Poll) error {
	t.log.Debug("creating poll", "poll_id", p.ID, "event_id", p.EventID, "options", len(p.Options))

	if err := p.Validate(); err != nil {
		return err
	}

	if err := t.db.WithContext(ctx).Create(p).Error; err != nil {
		t.log.Error("failed to create poll", "poll_id", p.ID, "error", err)
		return fmt.Errorf("failed to create poll: %w", err)
	}

	t.log.Info("poll created", "poll_id", p.ID, "event_id", p.EventID)
	return nil
}

func (t *pollTx) GetPoll(ctx context.Context, id uuid.UUID, lock poll.Lock) (*poll.Poll, error) {
	query := t.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_index ASC")
		})
	if locking, ok := lockClause(lock); ok {
		query = query.Clauses(locking)
	}

	var p poll.Poll
	if err := query.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t.log.Debug("poll not found", "poll_id", id)
			return nil, poll.ErrPollNotFound
		}
		t.log.Error("failed to retrieve poll", "poll_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve poll: %w", err)
	}
	return &p, nil
}

func (t *pollTx) ListPolls(ctx context.Context, eventID uuid.UUID, page common.PageRequest) ([]*poll.Poll, int64, error) {
	page = page.Normalize()
	t.log.Debug("listing polls", "event_id", eventID, "page", page.Page, "size", page.PageSize)

	var total int64
	if err := t.db.WithContext(ctx).Model(&poll.Poll{}).
		Where("event_id = ?", eventID).
		Count(&total).Error; err != nil {
		t.log.Error("failed to count polls", "event_id", eventID, "error", err)
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}

	var polls []*poll.Poll
	if err := t.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_index ASC")
		}).
		Where("event_id = ?", eventID).
		Order("created_at ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&polls).Error; err != nil {
		t.log.Error("failed to list polls", "event_id", eventID, "error", err)
		return nil, 0, fmt.Errorf("failed to list polls: %w", err)
	}

	return polls, total, nil
}

func (t *pollTx) FinishPoll(ctx context.Context, id uuid.UUID) error {
	res := t.db.WithContext(ctx).Model(&poll.Poll{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		t.log.Error("failed to finish poll", "poll_id", id, "error", res.Error)
		return fmt.Errorf("failed to finish poll: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return poll.ErrDeactivatedPoll
	}

	t.log.Info("poll finished", "poll_id", id)
	return nil
}

func (t *pollTx) DeletePoll(ctx context.Context, id uuid.UUID) error {
	db := t.db.WithContext(ctx)

	if err := db.Where("poll_id = ?", id).Delete(&poll.Vote{}).Error; err != nil {
		t.log.Error("failed to delete poll votes", "poll_id", id, "error", err)
		return fmt.Errorf("failed to delete poll votes: %w", err)
	}
	if err := db.Where("poll_id = ?", id).Delete(&poll.Option{}).Error; err != nil {
		t.log.Error("failed to delete poll options", "poll_id", id, "error", err)
		return fmt.Errorf("failed to delete poll options: %w", err)
	}

	res := db.Where("id = ?", id).Delete(&poll.Poll{})
	if res.Error != nil {
		t.log.Error("failed to delete poll", "poll_id", id, "error", res.Error)
		return fmt.Errorf("failed to delete poll: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return poll.ErrPollNotFound
	}

	t.log.Info("poll deleted", "poll_id", id)
	return nil
}

func (t *pollTx) GetVote(ctx context.Context, pollID, voterID uuid.UUID) (*poll.Vote, bool, error) {
	var v poll.Vote
	err := t.db.WithContext(ctx).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		t.log.Error("failed to retrieve vote", "poll_id", pollID, "voter_id", voterID, "error", err)
		return nil, false, fmt.Errorf("failed to retrieve vote: %w", err)
	}
	return &v, true, nil
}

// CreateVote inserts a first vote. Losing the race against another first vote
// by the same voter surfaces as a conflict.
func (t *pollTx) CreateVote(ctx context.Context, v *poll.Vote) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("vote validation failed: %w", err)
	}

	if err := t.db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return poll.ErrConcurrentVoteConflict
		}
		t.log.Error("failed to create vote", "poll_id", v.PollID, "voter_id", v.VoterID, "error", err)
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (t *pollTx) UpdateVote(ctx context.Context, v *poll.Vote, expectedVersion int64) error {
	res := t.db.WithContext(ctx).Model(&poll.Vote{}).
		Where("poll_id = ? AND voter_id = ? AND version = ?", v.PollID, v.VoterID, expectedVersion).
		Updates(map[string]any{
			"selected_option": v.SelectedOption,
			"counted":         v.Counted,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		t.log.Error("failed to update vote", "poll_id", v.PollID, "voter_id", v.VoterID, "error", res.Error)
		return fmt.Errorf("failed to update vote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		t.log.Debug("stale vote version", "poll_id", v.PollID, "voter_id", v.VoterID, "expected_version", expectedVersion)
		return poll.ErrConcurrentVoteConflict
	}

	v.Version = expectedVersion + 1
	return nil
}

// AdjustOptionCount changes the counter in a single UPDATE so concurrent
// voters never overwrite each other's increments
func (t *pollTx) AdjustOptionCount(ctx context.Context, pollID uuid.UUID, optionIndex, delta int) error {
	res := t.db.WithContext(ctx).Model(&poll.Option{}).
		Where("poll_id = ? AND option_index = ? AND vote_count + ? >= 0", pollID, optionIndex, delta).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta))
	if res.Error != nil {
		if isCheckViolation(res.Error) {
			return fmt.Errorf("%w: poll %s option %d", poll.ErrCounterInvariant, pollID, optionIndex)
		}
		t.log.Error("failed to adjust option counter", "poll_id", pollID, "option", optionIndex, "error", res.Error)
		return fmt.Errorf("failed to adjust option counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		t.log.Error("option counter would become negative", "poll_id", pollID, "option", optionIndex, "delta", delta)
		return fmt.Errorf("%w: poll %s option %d", poll.ErrCounterInvariant, pollID, optionIndex)
	}
	return nil
}

var (
	_ poll.Store = (*PollRepository)(nil)
	_ poll.Tx    = (*pollTx)(nil)
)
