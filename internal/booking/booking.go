package booking

import (
	"time"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/validation"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking — запись о брони. Записи не удаляются: отмена только меняет статус.
type Booking struct {
	ID             string                 `json:"id"`
	ConfirmationID string                 `json:"confirmation_id"`
	Seq            uint64                 `json:"seq"`
	OwnerID        string                 `json:"owner_id"`
	Contact        validation.ContactInfo `json:"contact"`
	Slot           calendar.TimeSlot      `json:"slot"`
	Status         Status                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
}

func (b *Booking) clone() Booking {
	out := *b
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return out
}

// Confirmation — то, что видит клиент после успешного бронирования.
type Confirmation struct {
	BookingID      string                 `json:"booking_id"`
	ConfirmationID string                 `json:"confirmation_id"`
	Contact        validation.ContactInfo `json:"contact"`
	Slot           calendar.TimeSlot      `json:"slot"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (b *Booking) confirmation() Confirmation {
	return Confirmation{
		BookingID:      b.ID,
		ConfirmationID: b.ConfirmationID,
		Contact:        b.Contact,
		Slot:           b.Slot,
		CreatedAt:      b.CreatedAt,
	}
}

// Stats — счётчики для мониторинга и админки.
type Stats struct {
	Total              int    `json:"total"`
	Pending            int    `json:"pending"`
	Confirmed          int    `json:"confirmed"`
	Cancelled          int    `json:"cancelled"`
	ActiveReservations int    `json:"active_reservations"`
	BookedSlots        int    `json:"booked_slots"`
	SnapshotFailures   uint64 `json:"snapshot_failures"`
}
