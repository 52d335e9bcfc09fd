package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTo12Hour(t *testing.T) {
	cases := map[string]string{
		"00:00": "12:00 AM",
		"00:30": "12:30 AM",
		"09:05": "9:05 AM",
		"12:00": "12:00 PM",
		"13:45": "1:45 PM",
		"23:59": "11:59 PM",
	}
	for in, want := range cases {
		assert.Equal(t, want, To12Hour(MustTimeOfDay(in)), in)
	}
}

func TestFrom12Hour_RoundTrip(t *testing.T) {
	for m := 0; m < minutesPerDay; m += 7 {
		tod := TimeOfDay(m)
		back, err := From12Hour(To12Hour(tod))
		require.NoError(t, err)
		require.Equal(t, tod, back)
	}

	got, err := From12Hour(" 12:05 pm ")
	require.NoError(t, err)
	assert.Equal(t, MustTimeOfDay("12:05"), got)

	for _, s := range []string{"13:00 PM", "0:30 AM", "9:5 AM", "9:30", "9:30 XM", "noon"} {
		_, err := From12Hour(s)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, s)
	}
}

func TestDayLabel(t *testing.T) {
	today := NewDate(2024, time.January, 16)

	assert.Equal(t, "Today", DayLabel(today, today))
	assert.Equal(t, "Tomorrow", DayLabel(today.AddDays(1), today))
	assert.Equal(t, "Thu, Jan 18", DayLabel(today.AddDays(2), today))
	assert.Equal(t, "Mon, Jan 15", DayLabel(today.AddDays(-1), today))
}

func TestFormatSlot(t *testing.T) {
	today := NewDate(2024, time.January, 16)
	slot := GenerateSlots(today, today, MustTimeOfDay("13:00"), MustTimeOfDay("13:30"), 30)[0]

	assert.Equal(t, "Today, 1:00 PM – 1:30 PM", FormatSlot(slot, today, false))
	assert.Equal(t, "Tomorrow, 1:00 PM – 1:30 PM (ID: 2024-01-16_13:00)", FormatSlot(slot, today.AddDays(-1), true))
}
