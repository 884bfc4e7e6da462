package migrations

import (
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/gatherly/gathering-api/internal/logger"
)

// ErrNothingToRollback is returned by RollbackMigration on an empty schema
var ErrNothingToRollback = errors.New("no applied migrations to roll back")

// Migration represents a database migration
type Migration struct {
	ID   string
	Name string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// GetMigrations returns all available migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			ID:   "001",
			Name: "create_extensions",
			Up:   migration001Up,
			Down: migration001Down,
		},
		{
			ID:   "002",
			Name: "create_core_tables",
			Up:   migration002Up,
			Down: migration002Down,
		},
		{
			ID:   "003",
			Name: "create_indexes",
			Up:   migration003Up,
			Down: migration003Down,
		},
		{
			ID:   "004",
			Name: "create_poll_constraints",
			Up:   migration004Up,
			Down: migration004Down,
		},
		{
			ID:   "005",
			Name: "create_result_views",
			Up:   migration005Up,
			Down: migration005Down,
		},
		{
			ID:   "006",
			Name: "insert_sample_gathering",
			Up:   migration006Up,
			Down: migration006Down,
		},
	}
}

// RunMigrations applies every pending migration in ID order, each in its own
// transaction together with its schema_migrations row
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	applied, err := appliedIDs(db)
	if err != nil {
		return err
	}

	todo := pending(GetMigrations(), applied)
	if len(todo) == 0 {
		log.Info("schema is up to date", "applied", len(applied))
		return nil
	}

	for _, m := range todo {
		log.Info("applying migration", "id", m.ID, "name", m.Name)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %s (%s): %w", m.ID, m.Name, err)
			}
			return tx.Exec("INSERT INTO schema_migrations (id, name) VALUES (?, ?)", m.ID, m.Name).Error
		})
		if err != nil {
			log.Error("migration failed", "id", m.ID, "error", err)
			return err
		}
	}

	log.Info("migrations applied", "count", len(todo))
	return nil
}

// RollbackMigration reverts the applied migration with the highest ID
func RollbackMigration(db *gorm.DB) error {
	log := logger.Migration()

	applied, err := appliedIDs(db)
	if err != nil {
		return err
	}

	m, err := lastApplied(GetMigrations(), applied)
	if err != nil {
		return err
	}

	log.Info("rolling back migration", "id", m.ID, "name", m.Name)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := m.Down(tx); err != nil {
			return fmt.Errorf("rollback of migration %s (%s): %w", m.ID, m.Name, err)
		}
		return tx.Exec("DELETE FROM schema_migrations WHERE id = ?", m.ID).Error
	})
	if err != nil {
		return err
	}

	log.Info("migration rolled back", "id", m.ID)
	return nil
}

// MigrationStatus reports whether one migration has been applied
type MigrationStatus struct {
	ID      string
	Name    string
	Applied bool
}

// Status lists every known migration with its applied state
func Status(db *gorm.DB) ([]MigrationStatus, error) {
	applied, err := appliedIDs(db)
	if err != nil {
		return nil, err
	}

	var status []MigrationStatus
	for _, m := range GetMigrations() {
		status = append(status, MigrationStatus{ID: m.ID, Name: m.Name, Applied: applied[m.ID]})
	}
	return status, nil
}

// appliedIDs creates the tracking table if needed and returns the applied IDs
func appliedIDs(db *gorm.DB) (map[string]bool, error) {
	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id VARCHAR(10) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var ids []string
	if err := db.Raw("SELECT id FROM schema_migrations").Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	applied := make(map[string]bool, len(ids))
	for _, id := range ids {
		applied[id] = true
	}
	return applied, nil
}

func pending(all []Migration, applied map[string]bool) []Migration {
	var todo []Migration
	for _, m := range all {
		if !applied[m.ID] {
			todo = append(todo, m)
		}
	}
	return todo
}

// lastApplied picks the highest applied ID. An ID this binary does not know
// is an error rather than something to skip over.
func lastApplied(all []Migration, applied map[string]bool) (Migration, error) {
	if len(applied) == 0 {
		return Migration{}, ErrNothingToRollback
	}

	ids := make([]string, 0, len(applied))
	for id := range applied {
		ids = append(ids, id)
	}
	last := slices.Max(ids)

	idx := slices.IndexFunc(all, func(m Migration) bool { return m.ID == last })
	if idx < 0 {
		return Migration{}, fmt.Errorf("applied migration %s is unknown to this binary", last)
	}
	return all[idx], nil
}
