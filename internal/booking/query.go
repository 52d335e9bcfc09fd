package booking

import "github.com/Leganyst/booking-core/internal/calendar"

// SlotQuery — параметры выдачи свободных слотов. Нулевые поля берутся из умолчаний.
type SlotQuery struct {
	DaysAhead       int
	Start           calendar.TimeOfDay
	End             calendar.TimeOfDay
	IntervalMinutes int
}

func (q SlotQuery) Or(def SlotQuery) SlotQuery {
	if q.DaysAhead <= 0 {
		q.DaysAhead = def.DaysAhead
	}
	if q.Start == 0 && q.End == 0 {
		q.Start, q.End = def.Start, def.End
	}
	if q.IntervalMinutes <= 0 {
		q.IntervalMinutes = def.IntervalMinutes
	}
	return q
}

// AvailableSlots — GetAvailableSlots по параметрам запроса.
func (r *Registry) AvailableSlots(q SlotQuery) ([]calendar.TimeSlot, error) {
	return r.GetAvailableSlots(q.DaysAhead, q.Start, q.End, q.IntervalMinutes)
}
