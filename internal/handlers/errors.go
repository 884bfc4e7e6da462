package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/middleware/events"
	"github.com/gatherly/gathering-api/internal/response"
	"github.com/gatherly/gathering-api/internal/validation"
)

type errorMapping struct {
	target error
	status int
	kind   string
}

// errorMappings is checked in order; the first match wins
var errorMappings = []errorMapping{
	{gathering.ErrGatheringNotFound, http.StatusNotFound, "not_found_gathering"},
	{gathering.ErrEventNotFound, http.StatusNotFound, "not_found_event"},
	{poll.ErrPollNotFound, http.StatusNotFound, "not_found_poll"},
	{poll.ErrOptionNotFound, http.StatusNotFound, "not_found_option"},
	{poll.ErrVoteNotFound, http.StatusNotFound, "not_found_vote"},
	{gathering.ErrNotParticipant, http.StatusNotFound, "not_participant"},

	{poll.ErrEventCreatorOnly, http.StatusForbidden, "event_creator_only"},
	{poll.ErrNotParticipated, http.StatusForbidden, "not_participated"},

	{poll.ErrDeactivatedPoll, http.StatusConflict, "deactivated_poll"},
	{poll.ErrConcurrentVoteConflict, http.StatusConflict, "concurrent_vote_conflict"},
	{gathering.ErrHostCannotLeave, http.StatusConflict, "host_cannot_leave"},

	{poll.ErrInvalidPollDefinition, http.StatusBadRequest, "invalid_poll_definition"},
	{validation.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
}

// writeError translates a service error into the API error body. Anything
// unrecognised is logged and reported as a 500 without its details.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			response.ErrorWithKind(c, m.status, m.kind, err.Error())
			return
		}
	}

	logger.Handler("error").Error("unhandled error",
		"request_id", events.RequestID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err)
	response.InternalServerError(c, "internal server error")
}
