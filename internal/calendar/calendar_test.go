package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_TodayUsesLocation(t *testing.T) {
	caracas, err := time.LoadLocation("America/Caracas")
	require.NoError(t, err)

	// 02:30 UTC on the 18th is still the 17th in Caracas (UTC-4).
	instant := time.Date(2026, 10, 18, 2, 30, 0, 0, time.UTC)
	clock := NewClockFunc(caracas, func() time.Time { return instant })

	assert.Equal(t, Day(2026, 10, 17), clock.Today())
	assert.Equal(t, Day(2026, 10, 18), NewClockFunc(time.UTC, func() time.Time { return instant }).Today())
}

func TestWithin(t *testing.T) {
	start, end := Day(2026, 10, 10), Day(2026, 10, 20)

	assert.True(t, Within(start, start, end))
	assert.True(t, Within(end, start, end))
	assert.True(t, Within(Day(2026, 10, 15), start, end))
	assert.False(t, Within(Day(2026, 10, 9), start, end))
	assert.False(t, Within(Day(2026, 10, 21), start, end))
}

func TestServiceTime(t *testing.T) {
	tests := []struct {
		name         string
		from, to     time.Time
		years, month int
	}{
		{name: "same month", from: Day(2010, 5, 3), to: Day(2026, 5, 30), years: 16, month: 0},
		{name: "later month", from: Day(2010, 3, 1), to: Day(2026, 10, 17), years: 16, month: 7},
		{name: "earlier month borrows a year", from: Day(2010, 11, 1), to: Day(2026, 10, 17), years: 15, month: 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := ServiceTime(tt.from, tt.to)
			assert.Equal(t, tt.years, y)
			assert.Equal(t, tt.month, m)
		})
	}
}

func TestParseAndFormat(t *testing.T) {
	d, err := Parse("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, Day(2026, 10, 17), d)
	assert.Equal(t, "2026-10-17", ISO(d))
	assert.Equal(t, "17/10/2026", Display(d))

	_, err = Parse("17/10/2026")
	assert.Error(t, err)
}
