// Package memory is an in-process implementation of the poll store and the
// gathering directory. Each transaction works on a private copy of the state
// that replaces the shared state only when the transaction succeeds.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
)

type voteKey struct {
	pollID  uuid.UUID
	voterID uuid.UUID
}

type state struct {
	gatherings map[uuid.UUID]gathering.Gathering
	events     map[uuid.UUID]gathering.Event
	polls      map[uuid.UUID]poll.Poll
	pollOrder  []uuid.UUID
	votes      map[voteKey]poll.Vote
}

func newState() *state {
	return &state{
		gatherings: make(map[uuid.UUID]gathering.Gathering),
		events:     make(map[uuid.UUID]gathering.Event),
		polls:      make(map[uuid.UUID]poll.Poll),
		votes:      make(map[voteKey]poll.Vote),
	}
}

func (s *state) clone() *state {
	c := &state{
		gatherings: make(map[uuid.UUID]gathering.Gathering, len(s.gatherings)),
		events:     make(map[uuid.UUID]gathering.Event, len(s.events)),
		polls:      make(map[uuid.UUID]poll.Poll, len(s.polls)),
		pollOrder:  slices.Clone(s.pollOrder),
		votes:      make(map[voteKey]poll.Vote, len(s.votes)),
	}
	for id, g := range s.gatherings {
		c.gatherings[id] = g
	}
	for id, e := range s.events {
		c.events[id] = copyEvent(e)
	}
	for id, p := range s.polls {
		c.polls[id] = copyPoll(p)
	}
	for k, v := range s.votes {
		c.votes[k] = v
	}
	return c
}

func copyEvent(e gathering.Event) gathering.Event {
	e.ParticipantIDs = slices.Clone(e.ParticipantIDs)
	return e
}

func copyPoll(p poll.Poll) poll.Poll {
	p.Options = slices.Clone(p.Options)
	return p
}

// Store holds all state in memory
type Store struct {
	mu    sync.Mutex
	state *state
	log   *log.Logger
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		state: newState(),
		log:   logger.Repository("memory"),
	}
}

// WithinTx runs fn against a copy of the state and commits it if fn succeeds.
// Transactions run one at a time, so two casts by the same voter are applied
// in sequence and never see a stale version here; ErrConcurrentVoteConflict
// only arises from the postgres store.
func (s *Store) WithinTx(ctx context.Context, fn func(tx poll.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Polls returns the store itself; it also implements poll.Store
func (s *Store) Polls() poll.Store {
	return s
}

// Directory returns the store itself; it also implements gathering.Repository
func (s *Store) Directory() gathering.Repository {
	return s
}

// Health always succeeds for the in-memory store
func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	s.log.Debug("in-memory store closed")
	return nil
}

// CounterDrift returns the ids of polls whose option counters disagree with
// the number of counted votes
func (s *Store) CounterDrift(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counted := make(map[uuid.UUID]map[int]int)
	for k, v := range s.state.votes {
		if !v.Counted {
			continue
		}
		if counted[k.pollID] == nil {
			counted[k.pollID] = make(map[int]int)
		}
		counted[k.pollID][v.SelectedOption]++
	}

	var drift []uuid.UUID
	for _, id := range s.state.pollOrder {
		p := s.state.polls[id]
		for _, opt := range p.Options {
			if opt.VoteCount != counted[id][opt.Index] {
				drift = append(drift, id)
				break
			}
		}
	}
	if len(drift) > 0 {
		s.log.Warn("option counters out of sync", "polls", len(drift))
	}
	return drift, nil
}

// CreateGathering stores a new gathering
func (s *Store) CreateGathering(ctx context.Context, g *gathering.Gathering) error {
	return s.update(func(st *state) error {
		if _, exists := st.gatherings[g.ID]; exists {
			return fmt.Errorf("gathering %s already exists", g.ID)
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = time.Now().UTC()
		}
		g.UpdatedAt = g.CreatedAt
		st.gatherings[g.ID] = *g
		return nil
	})
}

// GetGathering returns a gathering by id
func (s *Store) GetGathering(ctx context.Context, id uuid.UUID) (*gathering.Gathering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{state: s.state}).GetGathering(ctx, id)
}

// CreateEvent stores a new event and its initial participants
func (s *Store) CreateEvent(ctx context.Context, e *gathering.Event) error {
	return s.update(func(st *state) error {
		if _, exists := st.gatherings[e.GatheringID]; !exists {
			return gathering.ErrGatheringNotFound
		}
		if _, exists := st.events[e.ID]; exists {
			return fmt.Errorf("event %s already exists", e.ID)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		e.UpdatedAt = e.CreatedAt
		e.AddParticipant(e.HostID)
		st.events[e.ID] = copyEvent(*e)
		return nil
	})
}

// GetEvent returns an event with its participants
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*gathering.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{state: s.state}).GetEvent(ctx, id)
}

// AddParticipant records userID as a participant of the event
func (s *Store) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.update(func(st *state) error {
		e, exists := st.events[eventID]
		if !exists {
			return gathering.ErrEventNotFound
		}
		e.AddParticipant(userID)
		st.events[eventID] = e
		return nil
	})
}

// RemoveParticipant removes userID from the event
func (s *Store) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.update(func(st *state) error {
		e, exists := st.events[eventID]
		if !exists {
			return gathering.ErrEventNotFound
		}
		if err := e.RemoveParticipant(userID); err != nil {
			return err
		}
		st.events[eventID] = e
		return nil
	})
}

type tx struct {
	state *state
}

func (t *tx) GetGathering(ctx context.Context, id uuid.UUID) (*gathering.Gathering, error) {
	g, exists := t.state.gatherings[id]
	if !exists {
		return nil, gathering.ErrGatheringNotFound
	}
	return &g, nil
}

func (t *tx) GetEvent(ctx context.Context, id uuid.UUID) (*gathering.Event, error) {
	e, exists := t.state.events[id]
	if !exists {
		return nil, gathering.ErrEventNotFound
	}
	e = copyEvent(e)
	return &e, nil
}

func (t *tx) CreatePoll(ctx context.Context, p *poll.Poll) error {
	if _, exists := t.state.polls[p.ID]; exists {
		return fmt.Errorf("poll %s already exists", p.ID)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	for i := range p.Options {
		p.Options[i].PollID = p.ID
	}
	t.state.polls[p.ID] = copyPoll(*p)
	t.state.pollOrder = append(t.state.pollOrder, p.ID)
	return nil
}

func (t *tx) GetPoll(ctx context.Context, id uuid.UUID, lock poll.Lock) (*poll.Poll, error) {
	p, exists := t.state.polls[id]
	if !exists {
		return nil, poll.ErrPollNotFound
	}
	p = copyPoll(p)
	return &p, nil
}

func (t *tx) ListPolls(ctx context.Context, eventID uuid.UUID, page common.PageRequest) ([]*poll.Poll, int64, error) {
	page = page.Normalize()

	var matching []uuid.UUID
	for _, id := range t.state.pollOrder {
		if t.state.polls[id].EventID == eventID {
			matching = append(matching, id)
		}
	}

	total := int64(len(matching))
	start := page.Offset()
	if start < 0 || start > len(matching) {
		start = len(matching)
	}
	end := start + min(page.PageSize, len(matching)-start)

	polls := make([]*poll.Poll, 0, end-start)
	for _, id := range matching[start:end] {
		p := copyPoll(t.state.polls[id])
		polls = append(polls, &p)
	}
	return polls, total, nil
}

func (t *tx) FinishPoll(ctx context.Context, id uuid.UUID) error {
	p, exists := t.state.polls[id]
	if !exists {
		return poll.ErrPollNotFound
	}
	if !p.Active {
		return poll.ErrDeactivatedPoll
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	t.state.polls[id] = p
	return nil
}

func (t *tx) DeletePoll(ctx context.Context, id uuid.UUID) error {
	if _, exists := t.state.polls[id]; !exists {
		return poll.ErrPollNotFound
	}
	for k := range t.state.votes {
		if k.pollID == id {
			delete(t.state.votes, k)
		}
	}
	delete(t.state.polls, id)
	t.state.pollOrder = slices.DeleteFunc(t.state.pollOrder, func(other uuid.UUID) bool {
		return other == id
	})
	return nil
}

func (t *tx) GetVote(ctx context.Context, pollID, voterID uuid.UUID) (*poll.Vote, bool, error) {
	v, exists := t.state.votes[voteKey{pollID: pollID, voterID: voterID}]
	if !exists {
		return nil, false, nil
	}
	return &v, true, nil
}

func (t *tx) CreateVote(ctx context.Context, v *poll.Vote) error {
	if err := v.Validate(); err != nil {
		return err
	}
	key := voteKey{pollID: v.PollID, voterID: v.VoterID}
	if _, exists := t.state.votes[key]; exists {
		return poll.ErrConcurrentVoteConflict
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	t.state.votes[key] = *v
	return nil
}

func (t *tx) UpdateVote(ctx context.Context, v *poll.Vote, expectedVersion int64) error {
	key := voteKey{pollID: v.PollID, voterID: v.VoterID}
	stored, exists := t.state.votes[key]
	if !exists || stored.Version != expectedVersion {
		return poll.ErrConcurrentVoteConflict
	}
	stored.SelectedOption = v.SelectedOption
	stored.Counted = v.Counted
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now().UTC()
	t.state.votes[key] = stored

	v.Version = stored.Version
	v.UpdatedAt = stored.UpdatedAt
	return nil
}

func (t *tx) AdjustOptionCount(ctx context.Context, pollID uuid.UUID, optionIndex, delta int) error {
	p, exists := t.state.polls[pollID]
	if !exists {
		return poll.ErrPollNotFound
	}
	if !p.HasOption(optionIndex) {
		return poll.ErrOptionNotFound
	}
	next := p.Options[optionIndex].VoteCount + delta
	if next < 0 {
		return fmt.Errorf("%w: poll %s option %d", poll.ErrCounterInvariant, pollID, optionIndex)
	}
	p.Options[optionIndex].VoteCount = next
	t.state.polls[pollID] = p
	return nil
}

var (
	_ poll.Store           = (*Store)(nil)
	_ poll.Tx              = (*tx)(nil)
	_ gathering.Repository = (*Store)(nil)
)
