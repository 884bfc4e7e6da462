package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/storage/memory"
	"github.com/gatherly/gathering-api/internal/validation"
)

func TestDirectoryServiceFlow(t *testing.T) {
	svc := NewDirectoryService(memory.NewStore())
	ctx := context.Background()
	host, guest := uuid.New(), uuid.New()

	g, err := svc.CreateGathering(ctx, host, CreateGatheringRequest{Name: "Chess club"})
	require.NoError(t, err)
	assert.Equal(t, host, g.OwnerID)

	e, err := svc.CreateEvent(ctx, g.ID, host, CreateEventRequest{Title: "Blitz night"})
	require.NoError(t, err)
	assert.True(t, e.IsHost(host))

	require.NoError(t, svc.JoinEvent(ctx, g.ID, e.ID, guest))
	got, err := svc.GetEvent(ctx, g.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, got.IsParticipant(guest))

	assert.ErrorIs(t, svc.LeaveEvent(ctx, g.ID, e.ID, host), gathering.ErrHostCannotLeave)
	require.NoError(t, svc.LeaveEvent(ctx, g.ID, e.ID, guest))
	assert.ErrorIs(t, svc.LeaveEvent(ctx, g.ID, e.ID, guest), gathering.ErrNotParticipant)
}

func TestDirectoryServiceRejectsBadInput(t *testing.T) {
	svc := NewDirectoryService(memory.NewStore())
	ctx := context.Background()
	host := uuid.New()

	_, err := svc.CreateGathering(ctx, host, CreateGatheringRequest{Name: "x"})
	assert.ErrorIs(t, err, validation.ErrInvalidInput)

	_, err = svc.CreateEvent(ctx, uuid.New(), host, CreateEventRequest{Title: "Lost"})
	assert.ErrorIs(t, err, gathering.ErrGatheringNotFound)

	g, err := svc.CreateGathering(ctx, host, CreateGatheringRequest{Name: "Chess club"})
	require.NoError(t, err)

	past := time.Now().Add(-72 * time.Hour)
	_, err = svc.CreateEvent(ctx, g.ID, host, CreateEventRequest{Title: "Old", StartsAt: &past})
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
}

func TestGetEventChecksGathering(t *testing.T) {
	svc := NewDirectoryService(memory.NewStore())
	ctx := context.Background()
	host := uuid.New()

	first, err := svc.CreateGathering(ctx, host, CreateGatheringRequest{Name: "First"})
	require.NoError(t, err)
	second, err := svc.CreateGathering(ctx, host, CreateGatheringRequest{Name: "Second"})
	require.NoError(t, err)

	e, err := svc.CreateEvent(ctx, first.ID, host, CreateEventRequest{Title: "Meetup"})
	require.NoError(t, err)

	_, err = svc.GetEvent(ctx, second.ID, e.ID)
	assert.ErrorIs(t, err, gathering.ErrEventNotFound)

	_, err = svc.GetEvent(ctx, first.ID, uuid.New())
	assert.ErrorIs(t, err, gathering.ErrEventNotFound)
}
