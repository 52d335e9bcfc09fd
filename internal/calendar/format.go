package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// To12Hour переводит время в вид "9:30 AM".
func To12Hour(t TimeOfDay) string {
	h, m := t.Hour(), t.Minute()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}

// From12Hour разбирает "9:30 AM" / "12:05 pm" обратно во время суток.
func From12Hour(s string) (TimeOfDay, error) {
	clock, suffix, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hs, ms, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 || h > 12 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || len(ms) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	switch strings.ToUpper(strings.TrimSpace(suffix)) {
	case "AM":
		if h == 12 {
			h = 0
		}
	case "PM":
		if h != 12 {
			h += 12
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return NewTimeOfDay(h, m)
}

// DayLabel — "Today", "Tomorrow" или "Tue, Jan 16" относительно today.
func DayLabel(d, today Date) string {
	switch today.DaysUntil(d) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return d.midnightUTC().Format("Mon, Jan 2")
	}
}

// FormatSlot форматирует слот для пользователя.
// Если includeID = true, в конце добавляется идентификатор слота в скобках.
func FormatSlot(slot TimeSlot, today Date, includeID bool) string {
	base := fmt.Sprintf("%s, %s – %s", DayLabel(slot.Date, today), To12Hour(slot.Start), To12Hour(slot.End))
	if includeID && slot.ID != "" {
		return fmt.Sprintf("%s (ID: %s)", base, slot.ID)
	}
	return base
}
