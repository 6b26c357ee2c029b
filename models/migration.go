package models

import "gorm.io/gorm"

// MigrateTables creates/updates the reconciliation tables.
func MigrateTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Farmer{},
		&Scheme{},
		&Payment{},
		&SyncRun{},
		&User{},
	)
}
