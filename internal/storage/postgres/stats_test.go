package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHints(t *testing.T) {
	analyzed := time.Now()

	report := &StatsReport{
		Tables: []TableStats{
			{TableName: "poll_votes", LiveRows: 5000, SeqScans: 90, IndexScans: 10, LastAnalyzed: &analyzed},
			{TableName: "polls", LiveRows: 20, SeqScans: 90, IndexScans: 10},
			{TableName: "gatherings", LiveRows: 0},
		},
		Connections: ConnectionStats{TotalConnections: 90, MaxConnections: 100, ConnectionsPercent: 90},
	}

	hints := buildHints(report)
	require.Len(t, hints, 3)

	assert.Equal(t, "high", hints[0].Priority)
	assert.Equal(t, "poll_votes", hints[0].Table)
	assert.Equal(t, "high", hints[1].Priority)
	assert.Empty(t, hints[1].Table)
	assert.Equal(t, "medium", hints[2].Priority)
	assert.Equal(t, "polls", hints[2].Table)
}

func TestBuildHintsQuietDatabase(t *testing.T) {
	analyzed := time.Now()
	report := &StatsReport{
		Tables: []TableStats{
			{TableName: "poll_votes", LiveRows: 5000, SeqScans: 1, IndexScans: 99, LastAnalyzed: &analyzed},
		},
		Connections: ConnectionStats{ConnectionsPercent: 10},
	}

	assert.Empty(t, buildHints(report))
}
