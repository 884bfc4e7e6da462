package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gathering-api/internal/domain/common"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/response"
	"github.com/gatherly/gathering-api/internal/validation"
)

type PollHandler struct {
	polls     *poll.PollService
	validator validation.PollValidation
}

func NewPollHandler(polls *poll.PollService) *PollHandler {
	return &PollHandler{
		polls:     polls,
		validator: validation.PollValidation{},
	}
}

type CreatePollRequest struct {
	Agenda      string   `json:"agenda"`
	OptionNames []string `json:"option_names"`
}

type CastVoteRequest struct {
	// pointer so that option 0 passes the required check
	OptionIndex *int `json:"option_index" binding:"required"`
}

func (h *PollHandler) pollRef(c *gin.Context) (poll.PollRef, bool) {
	userID, ok := requester(c)
	if !ok {
		return poll.PollRef{}, false
	}
	ids, ok := pathIDs(c, "gathering_id", "event_id", "poll_id")
	if !ok {
		return poll.PollRef{}, false
	}
	return poll.PollRef{GatheringID: ids[0], EventID: ids[1], RequesterID: userID, PollID: ids[2]}, true
}

func (h *PollHandler) eventRef(c *gin.Context) (poll.EventRef, bool) {
	userID, ok := requester(c)
	if !ok {
		return poll.EventRef{}, false
	}
	ids, ok := pathIDs(c, "gathering_id", "event_id")
	if !ok {
		return poll.EventRef{}, false
	}
	return poll.EventRef{GatheringID: ids[0], EventID: ids[1], RequesterID: userID}, true
}

// CreatePoll handles POST /api/gatherings/{gathering_id}/events/{event_id}/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	ref, ok := h.eventRef(c)
	if !ok {
		return
	}

	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}
	if err := h.validator.ValidateAgenda(req.Agenda); err != nil {
		writeError(c, err)
		return
	}
	if err := h.validator.ValidateOptionNames(req.OptionNames); err != nil {
		writeError(c, err)
		return
	}

	view, err := h.polls.CreatePoll(c.Request.Context(), poll.CreatePollRequest{
		GatheringID: ref.GatheringID,
		EventID:     ref.EventID,
		RequesterID: ref.RequesterID,
		Agenda:      req.Agenda,
		OptionNames: req.OptionNames,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "poll created", view)
}

// ListPolls handles GET /api/gatherings/{gathering_id}/events/{event_id}/polls?page=&size=
func (h *PollHandler) ListPolls(c *gin.Context) {
	ref, ok := h.eventRef(c)
	if !ok {
		return
	}

	var page common.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequestError(c, "invalid pagination parameters: "+err.Error())
		return
	}

	result, err := h.polls.GetPolls(c.Request.Context(), ref, page)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", result)
}

// GetPoll handles GET /api/gatherings/{gathering_id}/events/{event_id}/polls/{poll_id}
func (h *PollHandler) GetPoll(c *gin.Context) {
	ref, ok := h.pollRef(c)
	if !ok {
		return
	}

	view, err := h.polls.GetPoll(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", view)
}

// CastVote handles POST /api/gatherings/{gathering_id}/events/{event_id}/polls/{poll_id}/votes
func (h *PollHandler) CastVote(c *gin.Context) {
	ref, ok := h.pollRef(c)
	if !ok {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	result, err := h.polls.CastVote(c.Request.Context(), poll.CastVoteRequest{
		GatheringID: ref.GatheringID,
		EventID:     ref.EventID,
		VoterID:     ref.RequesterID,
		PollID:      ref.PollID,
		OptionIndex: *req.OptionIndex,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "vote "+string(result.Transition), result)
}

// GetMyVote handles GET /api/gatherings/{gathering_id}/events/{event_id}/polls/{poll_id}/votes/me
func (h *PollHandler) GetMyVote(c *gin.Context) {
	ref, ok := h.pollRef(c)
	if !ok {
		return
	}

	vote, err := h.polls.GetMyVote(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", vote)
}

// FinishPoll handles PATCH /api/gatherings/{gathering_id}/events/{event_id}/polls/{poll_id}/finish
func (h *PollHandler) FinishPoll(c *gin.Context) {
	ref, ok := h.pollRef(c)
	if !ok {
		return
	}

	if err := h.polls.FinishPoll(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "poll finished", gin.H{"poll_id": ref.PollID, "active": false})
}

// DeletePoll handles DELETE /api/gatherings/{gathering_id}/events/{event_id}/polls/{poll_id}
func (h *PollHandler) DeletePoll(c *gin.Context) {
	ref, ok := h.pollRef(c)
	if !ok {
		return
	}

	if err := h.polls.DeletePoll(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
