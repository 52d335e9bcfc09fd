package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/events"
)

// SweepExpired вычищает просроченные удержания и возвращает их число.
// На корректность не влияет: просроченное удержание и так не видно чтениям.
func (r *Registry) SweepExpired(ctx context.Context) int {
	now := r.cal.Now()
	expired := r.cal.SweepExpired(now)
	if len(expired) == 0 {
		return 0
	}

	for _, res := range expired {
		r.publish(ctx, events.Event{
			Type:       events.ReservationExpired,
			SlotID:     res.SlotID,
			OwnerID:    res.OwnerID,
			OccurredAt: res.ExpiresAt.UTC(),
		})
	}
	r.log.Debug("expired reservations swept", zap.Int("count", len(expired)))
	r.persist(ctx)
	return len(expired)
}

// RunSweeper периодически вызывает SweepExpired, пока не отменён ctx.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.SweepExpired(ctx)
		}
	}
}
