package events

import (
	"context"
	"errors"
	"time"
)

// Type — тип события жизненного цикла брони. Используется и как routing key.
type Type string

const (
	BookingCreated      Type = "booking.created"
	BookingCancelled    Type = "booking.cancelled"
	ReservationCreated  Type = "reservation.created"
	ReservationReleased Type = "reservation.released"
	ReservationExpired  Type = "reservation.expired"
)

type Event struct {
	Type           Type      `json:"type"`
	SlotID         string    `json:"slot_id"`
	OwnerID        string    `json:"owner_id"`
	BookingID      string    `json:"booking_id,omitempty"`
	ConfirmationID string    `json:"confirmation_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher доставляет событие во внешний мир (брокер, аудит и т.п.).
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi рассылает событие всем публикаторам и собирает их ошибки.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard — публикатор по умолчанию.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
