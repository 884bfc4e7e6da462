package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(cfg Config, seen *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		id, err := UserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		*seen = id
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestBearerToken(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "gathering-api"}
	var seen uuid.UUID
	r := newRouter(cfg, &seen)
	user := uuid.New()

	token, err := IssueToken(cfg, user, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "Authorization", "Bearer "+token))
	assert.Equal(t, user, seen)

	assert.Equal(t, http.StatusUnauthorized, get(r, "", ""))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", token))
	assert.Equal(t, http.StatusUnauthorized, get(r, DevUserHeader, user.String()))
}

func TestRejectsForeignOrExpiredTokens(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "gathering-api"}
	var seen uuid.UUID
	r := newRouter(cfg, &seen)

	forged, err := IssueToken(Config{Secret: "other", Issuer: cfg.Issuer}, uuid.New(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+forged))

	wrongIssuer, err := IssueToken(Config{Secret: cfg.Secret, Issuer: "elsewhere"}, uuid.New(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+wrongIssuer))

	expired, err := IssueToken(cfg, uuid.New(), -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Authorization", "Bearer "+expired))
}

func TestDevHeaderWithoutSecret(t *testing.T) {
	var seen uuid.UUID
	r := newRouter(Config{}, &seen)
	user := uuid.New()

	assert.Equal(t, http.StatusOK, get(r, DevUserHeader, user.String()))
	assert.Equal(t, user, seen)
	assert.Equal(t, http.StatusUnauthorized, get(r, DevUserHeader, "nobody"))
}
