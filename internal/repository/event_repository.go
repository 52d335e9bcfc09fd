package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/model"
)

type EventRepository interface {
	// Записать событие в журнал.
	Publish(ctx context.Context, ev events.Event) error
	// События владельца за период с пагинацией, новые первыми.
	ListByOwnerAndRange(
		ctx context.Context,
		ownerID string,
		from, to time.Time,
		limit, offset int,
	) ([]model.Event, int64, error)
	// Вся история одной брони в порядке возникновения.
	ListByBooking(ctx context.Context, bookingID string) ([]model.Event, error)
}

// Реализация на GORM. Одновременно служит events.Publisher.
type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

var _ events.Publisher = (*GormEventRepository)(nil)

func (r *GormEventRepository) Publish(ctx context.Context, ev events.Event) error {
	details, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	row := &model.Event{
		EventType:      string(ev.Type),
		SlotID:         ev.SlotID,
		OwnerID:        ev.OwnerID,
		BookingID:      ev.BookingID,
		ConfirmationID: ev.ConfirmationID,
		OccurredAt:     ev.OccurredAt.UTC(),
		Details:        datatypes.JSON(details),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert event %s: %w", ev.Type, err)
	}
	return nil
}

func (r *GormEventRepository) ListByOwnerAndRange(
	ctx context.Context,
	ownerID string,
	from, to time.Time,
	limit, offset int,
) ([]model.Event, int64, error) {
	var (
		rows  []model.Event
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("owner_id = ?", ownerID).
		Where("occurred_at >= ? AND occurred_at <= ?", from.UTC(), to.UTC())

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("occurred_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *GormEventRepository) ListByBooking(ctx context.Context, bookingID string) ([]model.Event, error) {
	var rows []model.Event
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
