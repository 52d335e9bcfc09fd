package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_IsTimezoneFree(t *testing.T) {
	d, err := ParseDate("2024-01-16")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 16}, d)
	assert.Equal(t, time.Tuesday, d.Weekday())
	assert.Equal(t, "2024-01-16", d.String())

	// Поздний вечер в поясе с отрицательным смещением не должен сдвигать дату.
	ny := time.FixedZone("EST", -5*60*60)
	evening := time.Date(2024, 1, 16, 23, 30, 0, 0, ny)
	assert.Equal(t, d, DateOf(evening, ny))
	assert.Equal(t, d.AddDays(1), DateOf(evening, time.UTC))
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024-1-16", "2024-02-30", "16.01.2024"} {
		_, err := ParseDate(s)
		assert.True(t, errors.Is(err, ErrInvalidDate), s)
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	assert.Equal(t, NewDate(2024, time.February, 29), d.AddDays(1))
	assert.Equal(t, NewDate(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, 2, d.DaysUntil(NewDate(2024, time.March, 1)))
	assert.Equal(t, -28, d.DaysUntil(NewDate(2024, time.January, 31)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
	assert.True(t, NewDate(2024, time.January, 20).IsWeekend())
	assert.True(t, NewDate(2024, time.January, 21).IsWeekend())
	assert.False(t, NewDate(2024, time.January, 22).IsWeekend())
}

func TestTimeOfDay_Parse(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, 9, tod.Hour())
	assert.Equal(t, 30, tod.Minute())
	assert.Equal(t, "09:30", tod.String())

	for _, s := range []string{"24:00", "9:3", "ab:cd", ""} {
		_, err := ParseTimeOfDay(s)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, s)
	}

	_, err = NewTimeOfDay(12, 60)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestDateAndTime_JSON(t *testing.T) {
	type payload struct {
		Date  Date      `json:"date"`
		Start TimeOfDay `json:"start"`
	}
	in := payload{Date: NewDate(2024, time.January, 16), Start: MustTimeOfDay("09:00")}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-16","start":"09:00"}`, string(b))

	var out payload
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}
