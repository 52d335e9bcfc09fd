package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// events — журнал аудита жизненного цикла броней и удержаний.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Тип события, совпадает с routing key в брокере.
	EventType string `gorm:"type:varchar(64);not null;index"`

	SlotID         string `gorm:"type:varchar(32);not null;index"`
	OwnerID        string `gorm:"type:varchar(255);not null;index"`
	BookingID      string `gorm:"type:varchar(64);index"`
	ConfirmationID string `gorm:"type:varchar(32)"`

	OccurredAt time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`

	// Полное событие в JSON, как его видят подписчики брокера.
	Details datatypes.JSON `gorm:"type:json"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
