package poll

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoll(t *testing.T) {
	gatheringID, eventID := uuid.New(), uuid.New()

	p, err := NewPoll(gatheringID, eventID, " Where do we eat? ", []string{"Pizza", " Sushi "})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Where do we eat?", p.Agenda)
	assert.True(t, p.Active)
	assert.True(t, p.BelongsTo(gatheringID, eventID))
	assert.False(t, p.BelongsTo(gatheringID, uuid.New()))
	require.Len(t, p.Options, 2)
	assert.Equal(t, "Sushi", p.Options[1].Name)
	for i, opt := range p.Options {
		assert.Equal(t, i, opt.Index)
		assert.Equal(t, p.ID, opt.PollID)
		assert.Zero(t, opt.VoteCount)
	}
}

func TestNewPollDuplicateNamesGetDistinctIndices(t *testing.T) {
	p, err := NewPoll(uuid.New(), uuid.New(), "Pick one", []string{"A", "B", "A"})
	require.NoError(t, err)

	require.Len(t, p.Options, 3)
	assert.Equal(t, 0, p.Options[0].Index)
	assert.Equal(t, 2, p.Options[2].Index)
	assert.Equal(t, p.Options[0].Name, p.Options[2].Name)
}

func TestNewPollRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		agenda  string
		options []string
	}{
		{name: "single option", agenda: "Pick", options: []string{"A"}},
		{name: "no options", agenda: "Pick", options: nil},
		{name: "blank agenda", agenda: "   ", options: []string{"A", "B"}},
		{name: "blank option name", agenda: "Pick", options: []string{"A", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPoll(uuid.New(), uuid.New(), tt.agenda, tt.options)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidPollDefinition)
		})
	}
}

func TestPollHasOptionAndTotals(t *testing.T) {
	p, err := NewPoll(uuid.New(), uuid.New(), "Pick", []string{"A", "B"})
	require.NoError(t, err)

	assert.True(t, p.HasOption(0))
	assert.True(t, p.HasOption(1))
	assert.False(t, p.HasOption(2))
	assert.False(t, p.HasOption(-1))

	p.Options[0].VoteCount = 3
	p.Options[1].VoteCount = 2
	assert.Equal(t, 5, p.TotalVotes())

	view := NewPollView(p)
	assert.Equal(t, p.ID, view.PollID)
	assert.Equal(t, 3, view.Options[0].VoteCount)
	assert.Equal(t, "B", view.Options[1].Name)
}
