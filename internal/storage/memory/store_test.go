package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
)

func seedEvent(t *testing.T, s *Store) (*gathering.Gathering, *gathering.Event) {
	t.Helper()
	ctx := context.Background()

	g := gathering.NewGathering("Runners", uuid.New())
	require.NoError(t, s.CreateGathering(ctx, g))

	e := gathering.NewEvent(g.ID, "Sunday long run", g.OwnerID, nil)
	require.NoError(t, s.CreateEvent(ctx, e))
	return g, e
}

func seedPoll(t *testing.T, s *Store, g *gathering.Gathering, e *gathering.Event) *poll.Poll {
	t.Helper()
	p, err := poll.NewPoll(g.ID, e.ID, "Route?", []string{"Park", "River"})
	require.NoError(t, err)
	require.NoError(t, s.WithinTx(context.Background(), func(tx poll.Tx) error {
		return tx.CreatePoll(context.Background(), p)
	}))
	return p
}

func TestDirectory(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	guest := uuid.New()

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{e.HostID}, got.ParticipantIDs)

	require.NoError(t, s.AddParticipant(ctx, e.ID, guest))
	require.NoError(t, s.AddParticipant(ctx, e.ID, guest))
	got, err = s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.ParticipantIDs, 2)

	assert.ErrorIs(t, s.RemoveParticipant(ctx, e.ID, e.HostID), gathering.ErrHostCannotLeave)
	require.NoError(t, s.RemoveParticipant(ctx, e.ID, guest))
	assert.ErrorIs(t, s.RemoveParticipant(ctx, e.ID, guest), gathering.ErrNotParticipant)

	_, err = s.GetGathering(ctx, uuid.New())
	assert.ErrorIs(t, err, gathering.ErrGatheringNotFound)
	_, err = s.GetEvent(ctx, uuid.New())
	assert.ErrorIs(t, err, gathering.ErrEventNotFound)
	assert.ErrorIs(t, s.AddParticipant(ctx, uuid.New(), guest), gathering.ErrEventNotFound)

	orphan := gathering.NewEvent(uuid.New(), "Nowhere", g.OwnerID, nil)
	assert.ErrorIs(t, s.CreateEvent(ctx, orphan), gathering.ErrGatheringNotFound)
}

func TestReturnedEventsAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, e := seedEvent(t, s)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	got.AddParticipant(uuid.New())

	again, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, again.ParticipantIDs, 1)
}

func TestFailedTransactionLeavesNoTrace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	p := seedPoll(t, s, g, e)
	voter := uuid.New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx poll.Tx) error {
		v, _ := poll.NewVote(p, voter, 0)
		require.NoError(t, tx.CreateVote(ctx, v))
		require.NoError(t, tx.AdjustOptionCount(ctx, p.ID, 0, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		_, found, err := tx.GetVote(ctx, p.ID, voter)
		require.NoError(t, err)
		assert.False(t, found)

		stored, err := tx.GetPoll(ctx, p.ID, poll.LockNone)
		require.NoError(t, err)
		assert.Zero(t, stored.TotalVotes())
		return nil
	}))
}

func TestVoteVersionCompareAndSwap(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	p := seedPoll(t, s, g, e)
	voter := uuid.New()

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		v, _ := poll.NewVote(p, voter, 0)
		return tx.CreateVote(ctx, v)
	}))

	err := s.WithinTx(ctx, func(tx poll.Tx) error {
		v, _ := poll.NewVote(p, voter, 1)
		return tx.CreateVote(ctx, v)
	})
	assert.ErrorIs(t, err, poll.ErrConcurrentVoteConflict)

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		v, found, err := tx.GetVote(ctx, p.ID, voter)
		require.NoError(t, err)
		require.True(t, found)
		v.Cast(1)
		require.NoError(t, tx.UpdateVote(ctx, v, 0))
		assert.Equal(t, int64(1), v.Version)

		v.Cast(0)
		assert.ErrorIs(t, tx.UpdateVote(ctx, v, 0), poll.ErrConcurrentVoteConflict)
		return nil
	}))
}

func TestAdjustOptionCountNeverGoesNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	p := seedPoll(t, s, g, e)

	err := s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.AdjustOptionCount(ctx, p.ID, 1, -1)
	})
	assert.ErrorIs(t, err, poll.ErrCounterInvariant)

	err = s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.AdjustOptionCount(ctx, p.ID, 5, 1)
	})
	assert.ErrorIs(t, err, poll.ErrOptionNotFound)
}

func TestCounterDriftDetectsMismatch(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	p := seedPoll(t, s, g, e)

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.AdjustOptionCount(ctx, p.ID, 0, 1)
	}))

	drift, err := s.CounterDrift(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, drift)
}

func TestFinishAndDeletePoll(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	g, e := seedEvent(t, s)
	p := seedPoll(t, s, g, e)
	other := seedPoll(t, s, g, e)

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.FinishPoll(ctx, p.ID)
	}))
	err := s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.FinishPoll(ctx, p.ID)
	})
	assert.ErrorIs(t, err, poll.ErrDeactivatedPoll)

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		return tx.DeletePoll(ctx, p.ID)
	}))

	require.NoError(t, s.WithinTx(ctx, func(tx poll.Tx) error {
		polls, total, err := tx.ListPolls(ctx, e.ID, common.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, polls, 1)
		assert.Equal(t, other.ID, polls[0].ID)

		_, err = tx.GetPoll(ctx, p.ID, poll.LockUpdate)
		assert.ErrorIs(t, err, poll.ErrPollNotFound)
		return nil
	}))
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(tx poll.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
