package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/response"
	"github.com/gatherly/gathering-api/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{gathering.ErrGatheringNotFound, http.StatusNotFound, "not_found_gathering"},
		{gathering.ErrEventNotFound, http.StatusNotFound, "not_found_event"},
		{poll.ErrPollNotFound, http.StatusNotFound, "not_found_poll"},
		{fmt.Errorf("%w: index 7", poll.ErrOptionNotFound), http.StatusNotFound, "not_found_option"},
		{poll.ErrVoteNotFound, http.StatusNotFound, "not_found_vote"},
		{poll.ErrEventCreatorOnly, http.StatusForbidden, "event_creator_only"},
		{poll.ErrNotParticipated, http.StatusForbidden, "not_participated"},
		{poll.ErrDeactivatedPoll, http.StatusConflict, "deactivated_poll"},
		{poll.ErrConcurrentVoteConflict, http.StatusConflict, "concurrent_vote_conflict"},
		{gathering.ErrHostCannotLeave, http.StatusConflict, "host_cannot_leave"},
		{fmt.Errorf("%w: agenda is required", poll.ErrInvalidPollDefinition), http.StatusBadRequest, "invalid_poll_definition"},
		{validation.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{poll.ErrCounterInvariant, http.StatusInternalServerError, "internal"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.status, body.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
}
