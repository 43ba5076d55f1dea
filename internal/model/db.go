package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the record table.
func Migrate(db *gorm.DB, table string) error {
	if !ValidTableName(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	return db.Table(table).AutoMigrate(&Document{})
}
