package db

import (
	"crm/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Agent{},
		&models.Call{},
		&models.Lead{},
		&models.Reminder{},
		&models.SyncLog{},
		&models.Notification{},
		&models.AutomationRule{},
	)
}
