package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultIntervalMinutes — шаг сетки слотов по умолчанию.
	DefaultIntervalMinutes = 30
	MinIntervalMinutes     = 5
)

var (
	ErrInvalidSlotID = errors.New("invalid slot id")
	ErrOffGrid       = errors.New("slot is outside the working grid")
	ErrInvalidGrid   = errors.New("invalid slot grid")
)

// Status — состояние слота в календаре.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusBooked    Status = "booked"
)

// TimeSlot — значение, однозначно выводимое из (дата, начало, шаг).
// OwnerID заполнен только для reserved и booked.
type TimeSlot struct {
	ID      string    `json:"id"`
	Date    Date      `json:"date"`
	Start   TimeOfDay `json:"start_time"`
	End     TimeOfDay `json:"end_time"`
	Status  Status    `json:"status"`
	OwnerID string    `json:"owner_id,omitempty"`
}

// Range — интервал слота в поясе loc.
func (s TimeSlot) Range(loc *time.Location) TimeRange {
	return TimeRange{Start: s.Date.At(s.Start, loc), End: s.Date.At(s.End, loc)}
}

// SlotID строит идентификатор вида "2024-01-16_09:00".
func SlotID(d Date, start TimeOfDay) string {
	return d.String() + "_" + start.String()
}

// ParseSlotID разбирает идентификатор обратно в дату и время начала.
// Принимается только каноническая запись: "2024-01-16_9:00" отвергается,
// иначе один слот получил бы два ключа.
func ParseSlotID(id string) (Date, TimeOfDay, error) {
	datePart, timePart, ok := strings.Cut(id, "_")
	if !ok {
		return Date{}, 0, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	d, err := ParseDate(datePart)
	if err != nil {
		return Date{}, 0, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	start, err := ParseTimeOfDay(timePart)
	if err != nil {
		return Date{}, 0, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	if SlotID(d, start) != id {
		return Date{}, 0, fmt.Errorf("%w: %q is not canonical", ErrInvalidSlotID, id)
	}
	return d, start, nil
}

// Grid — рабочая сетка: окно дня [Start, End) и шаг. Бронировать можно
// только слоты этой сетки.
type Grid struct {
	Start           TimeOfDay
	End             TimeOfDay
	IntervalMinutes int
}

func DefaultGrid() Grid {
	return Grid{Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("17:00"), IntervalMinutes: DefaultIntervalMinutes}
}

// Validate: окно непустое, шаг от MinIntervalMinutes до длины окна и делит его нацело.
func (g Grid) Validate() error {
	if g.Start >= g.End {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidGrid, g.Start, g.End)
	}
	if g.IntervalMinutes < MinIntervalMinutes || g.IntervalMinutes > int(g.End-g.Start) {
		return fmt.Errorf("%w: interval must be %d..%d minutes", ErrInvalidGrid, MinIntervalMinutes, int(g.End-g.Start))
	}
	if int(g.End-g.Start)%g.IntervalMinutes != 0 {
		return fmt.Errorf("%w: interval %d does not divide the window %s-%s", ErrInvalidGrid, g.IntervalMinutes, g.Start, g.End)
	}
	return nil
}

// OnGrid — t совпадает с границей слота сетки (включая конец последнего слота).
func (g Grid) OnGrid(t TimeOfDay) bool {
	if t < g.Start || t > g.End {
		return false
	}
	return int(t-g.Start)%g.IntervalMinutes == 0
}

// Slot строит слот сетки для d и start или возвращает ErrOffGrid.
func (g Grid) Slot(d Date, start TimeOfDay) (TimeSlot, error) {
	end := start + TimeOfDay(g.IntervalMinutes)
	if d.IsWeekend() || !g.OnGrid(start) || end > g.End {
		return TimeSlot{}, fmt.Errorf("%w: %s", ErrOffGrid, SlotID(d, start))
	}
	return TimeSlot{ID: SlotID(d, start), Date: d, Start: start, End: end, Status: StatusAvailable}, nil
}

// ParseSlot разбирает идентификатор и проверяет, что слот лежит на сетке.
func (g Grid) ParseSlot(id string) (TimeSlot, error) {
	d, start, err := ParseSlotID(id)
	if err != nil {
		return TimeSlot{}, err
	}
	return g.Slot(d, start)
}

// GenerateSlots строит сетку рабочих слотов для дней [startDate, endDate],
// пропуская субботу и воскресенье. Каждый день делится на интервалы
// [startTime, endTime) шириной intervalMinutes; неполный хвост отбрасывается.
// Все слоты возвращаются в статусе available.
func GenerateSlots(startDate, endDate Date, startTime, endTime TimeOfDay, intervalMinutes int) []TimeSlot {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	slots := []TimeSlot{}
	if startTime >= endTime || endDate.Before(startDate) {
		return slots
	}

	step := time.Duration(intervalMinutes) * time.Minute
	for d := startDate; !d.After(endDate); d = d.AddDays(1) {
		if d.IsWeekend() {
			continue
		}
		// Считаем в UTC: сетка не должна зависеть от переходов на летнее время.
		ranges, err := SplitToTimeSlots(TimeRange{Start: d.At(startTime, time.UTC), End: d.At(endTime, time.UTC)}, step)
		if err != nil {
			return slots
		}
		for _, r := range ranges {
			start := TimeOfDay(r.Start.Hour()*60 + r.Start.Minute())
			end := start + TimeOfDay(intervalMinutes)
			slots = append(slots, TimeSlot{
				ID:     SlotID(d, start),
				Date:   d,
				Start:  start,
				End:    end,
				Status: StatusAvailable,
			})
		}
	}
	return slots
}
