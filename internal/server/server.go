package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gatherly/gathering-api/internal/config"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/handlers"
	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/middleware/auth"
	"github.com/gatherly/gathering-api/internal/middleware/events"
	"github.com/gatherly/gathering-api/internal/services"
)

// HealthChecker reports whether the storage backend is usable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	health     HealthChecker
	polls      *poll.PollService
	directory  *services.DirectoryService
}

// New creates a new server instance. The HTTP server is built here so that
// Stop can run concurrently with Start.
func New(cfg *config.Config, health HealthChecker, polls *poll.PollService, directory *services.DirectoryService) *Server {
	s := &Server{
		config:    cfg,
		health:    health,
		polls:     polls,
		directory: directory,
	}

	s.httpServer = &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: s.Router(),

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves HTTP and blocks until the server is stopped. If Stop has
// already run, Start returns immediately.
func (s *Server) Start() error {
	logger.HTTP().Info("starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP().Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router configures the HTTP router with middleware and routes
func (s *Server) Router() *gin.Engine {
	if s.config.Server.GinMode != "" {
		gin.SetMode(s.config.Server.GinMode)
	}
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(events.CreateEvent())

	corsConfig := cors.DefaultConfig()
	origins := config.SplitList(s.config.CORS.AllowOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = config.SplitList(s.config.CORS.AllowMethods)
	corsConfig.AllowHeaders = append(config.SplitList(s.config.CORS.AllowHeaders), auth.DevUserHeader, "X-Request-ID")
	router.Use(cors.New(corsConfig))

	router.GET("/ping", s.ping)

	s.setupAPIRoutes(router)

	return router
}

func (s *Server) ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		logger.HTTP().Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "storage unavailable",
			"status":  "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Gathering API is running",
		"status":  "healthy",
	})
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(router *gin.Engine) {
	gatheringHandler := handlers.NewGatheringHandler(s.directory)
	pollHandler := handlers.NewPollHandler(s.polls)

	api := router.Group("/api")
	api.Use(auth.Middleware(auth.Config{
		Secret: s.config.Auth.JWTSecret,
		Issuer: s.config.Auth.Issuer,
	}))
	{
		api.POST("/gatherings", gatheringHandler.CreateGathering)
		api.POST("/gatherings/:gathering_id/events", gatheringHandler.CreateEvent)

		event := api.Group("/gatherings/:gathering_id/events/:event_id")
		{
			event.GET("", gatheringHandler.GetEvent)
			event.POST("/participants", gatheringHandler.JoinEvent)
			event.DELETE("/participants", gatheringHandler.LeaveEvent)

			event.POST("/polls", pollHandler.CreatePoll)
			event.GET("/polls", pollHandler.ListPolls)
			event.GET("/polls/:poll_id", pollHandler.GetPoll)
			event.DELETE("/polls/:poll_id", pollHandler.DeletePoll)
			event.PATCH("/polls/:poll_id/finish", pollHandler.FinishPoll)
			event.POST("/polls/:poll_id/votes", pollHandler.CastVote)
			event.GET("/polls/:poll_id/votes/me", pollHandler.GetMyVote)
		}
	}
}
