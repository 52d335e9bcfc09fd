package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию таблиц ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Snapshot{},
		&Event{},
	)
}
