package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatherly/gathering-api/internal/config"
	"github.com/gatherly/gathering-api/internal/domain/gathering"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
)

// Container holds the PostgreSQL repositories over one connection pool
type Container struct {
	db        *gorm.DB
	log       *log.Logger
	polls     *PollRepository
	directory *DirectoryRepository
}

// NewContainer connects, applies migrations and initializes the repositories
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("initializing PostgreSQL repository container")

	db, err := Connect(cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		log.Error("failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(context.Background()); err != nil {
		log.Error("container health check failed", "error", err)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized")
	return container, nil
}

// NewContainerWithDB creates a container over an existing connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:        db,
		log:       logger.Repository("postgres_container"),
		polls:     NewPollRepository(db),
		directory: NewDirectoryRepository(db),
	}
}

// Polls returns the transactional poll store
func (c *Container) Polls() poll.Store {
	return c.polls
}

// Directory returns the gathering and event repository
func (c *Container) Directory() gathering.Repository {
	return c.directory
}

// CounterDrift reports polls whose counters disagree with their counted votes
func (c *Container) CounterDrift(ctx context.Context) ([]uuid.UUID, error) {
	return c.polls.CounterDrift(ctx)
}

// Health pings the database and checks that every table is reachable
func (c *Container) Health(ctx context.Context) error {
	if err := HealthCheck(ctx, c.db); err != nil {
		c.log.Error("database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	stats := Stats(c.db)
	c.log.Debug("database connection metrics",
		"open_connections", stats.OpenConnections,
		"in_use_connections", stats.InUseConnections,
		"idle_connections", stats.IdleConnections)

	for _, table := range []string{"gatherings", "events", "event_participants", "polls", "poll_options", "poll_votes"} {
		var count int64
		if err := c.db.WithContext(ctx).Table(table).Limit(1).Count(&count).Error; err != nil {
			c.log.Error("table health check failed", "table", table, "error", err)
			return fmt.Errorf("table %s health check failed: %w", table, err)
		}
	}
	return nil
}

// Close releases the connection pool
func (c *Container) Close() error {
	c.log.Info("closing PostgreSQL repository container")

	if err := Close(c.db); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	c.db = nil
	return nil
}

// CloseWithTimeout closes the container, giving up after timeout
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- c.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		c.log.Error("container close timed out", "timeout", timeout)
		return fmt.Errorf("container close timed out after %v", timeout)
	}
}

// DB returns the underlying connection
func (c *Container) DB() *gorm.DB {
	return c.db
}
