package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/middleware/auth"
	"github.com/gatherly/gathering-api/internal/response"
	"github.com/gatherly/gathering-api/internal/validation"
)

// pathIDs parses the named uuid path parameters in order. On failure the
// error response has already been written.
func pathIDs(c *gin.Context, names ...string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := validation.ParseUUID(c.Param(name), name)
		if err != nil {
			writeError(c, err)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// requester returns the authenticated caller. On failure the error response
// has already been written.
func requester(c *gin.Context) (uuid.UUID, bool) {
	id, err := auth.UserID(c)
	if err != nil {
		response.UnauthorizedError(c, "authentication required")
		return uuid.Nil, false
	}
	return id, true
}
