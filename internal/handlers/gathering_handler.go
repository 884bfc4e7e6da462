package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gathering-api/internal/response"
	"github.com/gatherly/gathering-api/internal/services"
)

type GatheringHandler struct {
	directory *services.DirectoryService
}

func NewGatheringHandler(directory *services.DirectoryService) *GatheringHandler {
	return &GatheringHandler{directory: directory}
}

// CreateGathering handles POST /api/gatherings
func (h *GatheringHandler) CreateGathering(c *gin.Context) {
	userID, ok := requester(c)
	if !ok {
		return
	}

	var req services.CreateGatheringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	g, err := h.directory.CreateGathering(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "gathering created", g)
}

// CreateEvent handles POST /api/gatherings/{gathering_id}/events
func (h *GatheringHandler) CreateEvent(c *gin.Context) {
	userID, ok := requester(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "gathering_id")
	if !ok {
		return
	}

	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	e, err := h.directory.CreateEvent(c.Request.Context(), ids[0], userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "event created", e)
}

// GetEvent handles GET /api/gatherings/{gathering_id}/events/{event_id}
func (h *GatheringHandler) GetEvent(c *gin.Context) {
	if _, ok := requester(c); !ok {
		return
	}
	ids, ok := pathIDs(c, "gathering_id", "event_id")
	if !ok {
		return
	}

	e, err := h.directory.GetEvent(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "", e)
}

// JoinEvent handles POST /api/gatherings/{gathering_id}/events/{event_id}/participants
func (h *GatheringHandler) JoinEvent(c *gin.Context) {
	userID, ok := requester(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "gathering_id", "event_id")
	if !ok {
		return
	}

	if err := h.directory.JoinEvent(c.Request.Context(), ids[0], ids[1], userID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessResponse(c, http.StatusOK, "joined event", gin.H{"event_id": ids[1], "user_id": userID})
}

// LeaveEvent handles DELETE /api/gatherings/{gathering_id}/events/{event_id}/participants
func (h *GatheringHandler) LeaveEvent(c *gin.Context) {
	userID, ok := requester(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "gathering_id", "event_id")
	if !ok {
		return
	}

	if err := h.directory.LeaveEvent(c.Request.Context(), ids[0], ids[1], userID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
