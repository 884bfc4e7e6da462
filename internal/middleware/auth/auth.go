// Package auth resolves the caller's user id from a bearer token
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/response"
)

const (
	userIDKey = "user_id"

	// DevUserHeader names the user directly when no signing secret is
	// configured. Only honoured in that mode.
	DevUserHeader = "X-User-ID"
)

var ErrNoIdentity = errors.New("no authenticated user")

// Config selects how tokens are verified
type Config struct {
	Secret string
	Issuer string
}

// Middleware authenticates the request. With a secret, an HS256 bearer token
// whose subject is the user id is required; without one the DevUserHeader is
// trusted instead.
func Middleware(cfg Config) gin.HandlerFunc {
	log := logger.HTTP().With("component", "auth")
	if cfg.Secret == "" {
		log.Warn("no JWT secret configured, trusting the " + DevUserHeader + " header")
	}

	return func(c *gin.Context) {
		var userID uuid.UUID
		var err error

		if cfg.Secret == "" {
			userID, err = uuid.Parse(c.GetHeader(DevUserHeader))
		} else {
			userID, err = parseBearer(c.GetHeader("Authorization"), cfg)
		}
		if err != nil || userID == uuid.Nil {
			log.Debug("rejected request without valid identity", "path", c.Request.URL.Path, "error", err)
			response.UnauthorizedError(c, "authentication required")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func parseBearer(header string, cfg Config) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, ErrNoIdentity
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(claims.Subject)
}

// UserID returns the authenticated user of the request
func UserID(c *gin.Context) (uuid.UUID, error) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoIdentity
	}
	return id, nil
}

// IssueToken signs a token for userID that Middleware accepts
func IssueToken(cfg Config, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
