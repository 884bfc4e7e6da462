package migrations

import "gorm.io/gorm"

// migration001Up enables the extensions the schema relies on
func migration001Up(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// migration001Down is a no-op
func migration001Down(db *gorm.DB) error {
	// NOTE: the uuid extension is left in place, other schemas may use it
	return nil
}
