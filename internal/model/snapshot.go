package model

import (
	"time"

	"gorm.io/datatypes"
)

// snapshots — последний снимок состояния ядра, по одной строке на ключ.
// Тип json, а не jsonb: blob должен возвращаться байт в байт.
type Snapshot struct {
	Name      string         `gorm:"type:varchar(128);primaryKey"`
	Data      datatypes.JSON `gorm:"type:json;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
