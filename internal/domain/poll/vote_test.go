package poll

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoll(t *testing.T, options ...string) *Poll {
	t.Helper()
	p, err := NewPoll(uuid.New(), uuid.New(), "Pick one", options)
	require.NoError(t, err)
	return p
}

func TestNewVoteStartsCounted(t *testing.T) {
	p := newTestPoll(t, "A", "B")
	voter := uuid.New()

	v, tr := NewVote(p, voter, 1)

	require.NoError(t, v.Validate())
	assert.Equal(t, TransitionCast, tr.Kind)
	assert.Equal(t, []CounterDelta{{OptionIndex: 1, Delta: 1}}, tr.Deltas)
	assert.Equal(t, 1, v.SelectedOption)
	assert.True(t, v.Counted)
	assert.Zero(t, v.Version)
	assert.Equal(t, p.EventID, v.EventID)
}

func TestVoteCastTransitions(t *testing.T) {
	tests := []struct {
		name         string
		counted      bool
		selected     int
		target       int
		wantKind     TransitionKind
		wantDeltas   []CounterDelta
		wantSelected int
		wantCounted  bool
	}{
		{
			name: "counted same option cancels", counted: true, selected: 0, target: 0,
			wantKind: TransitionCancel, wantDeltas: []CounterDelta{{0, -1}},
			wantSelected: 0, wantCounted: false,
		},
		{
			name: "counted other option switches", counted: true, selected: 0, target: 1,
			wantKind: TransitionSwitch, wantDeltas: []CounterDelta{{0, -1}, {1, 1}},
			wantSelected: 1, wantCounted: true,
		},
		{
			name: "cancelled same option restores", counted: false, selected: 0, target: 0,
			wantKind: TransitionRestore, wantDeltas: []CounterDelta{{0, 1}},
			wantSelected: 0, wantCounted: true,
		},
		{
			name: "cancelled other option recasts without decrement", counted: false, selected: 0, target: 1,
			wantKind: TransitionRecast, wantDeltas: []CounterDelta{{1, 1}},
			wantSelected: 1, wantCounted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Vote{
				PollID:         uuid.New(),
				VoterID:        uuid.New(),
				SelectedOption: tt.selected,
				Counted:        tt.counted,
				Version:        4,
			}

			tr := v.Cast(tt.target)

			assert.Equal(t, tt.wantKind, tr.Kind)
			assert.Equal(t, tt.wantDeltas, tr.Deltas)
			assert.Equal(t, tt.wantSelected, v.SelectedOption)
			assert.Equal(t, tt.wantCounted, v.Counted)
			assert.Equal(t, int64(4), v.Version, "Cast must leave the version to the store")
		})
	}
}

// replay applies a sequence of casts by one voter and returns the final vote
// and the counters obtained by summing the deltas.
func replay(p *Poll, voter uuid.UUID, casts []int) (*Vote, []int) {
	counters := make([]int, len(p.Options))
	var v *Vote
	for _, idx := range casts {
		var tr Transition
		if v == nil {
			v, tr = NewVote(p, voter, idx)
		} else {
			tr = v.Cast(idx)
		}
		for _, d := range tr.Deltas {
			counters[d.OptionIndex] += d.Delta
		}
	}
	return v, counters
}

func TestCastSequencesAreDeterministicAndKeepCountersConsistent(t *testing.T) {
	p := newTestPoll(t, "A", "B", "C")
	voter := uuid.New()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		casts := make([]int, 1+rng.Intn(12))
		for i := range casts {
			casts[i] = rng.Intn(len(p.Options))
		}

		first, firstCounters := replay(p, voter, casts)
		second, secondCounters := replay(p, voter, casts)

		assert.Equal(t, first.SelectedOption, second.SelectedOption)
		assert.Equal(t, first.Counted, second.Counted)
		assert.Equal(t, firstCounters, secondCounters)

		total := 0
		for idx, c := range firstCounters {
			require.GreaterOrEqual(t, c, 0, "casts %v", casts)
			total += c
			if first.Counted && idx == first.SelectedOption {
				assert.Equal(t, 1, c, "casts %v", casts)
			}
		}
		if first.Counted {
			assert.Equal(t, 1, total, "casts %v", casts)
		} else {
			assert.Zero(t, total, "casts %v", casts)
		}
	}
}

func TestVoteValidate(t *testing.T) {
	assert.Error(t, (&Vote{VoterID: uuid.New()}).Validate())
	assert.Error(t, (&Vote{PollID: uuid.New()}).Validate())
	assert.Error(t, (&Vote{PollID: uuid.New(), VoterID: uuid.New(), SelectedOption: -1}).Validate())
	assert.NoError(t, (&Vote{PollID: uuid.New(), VoterID: uuid.New()}).Validate())
}
