package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWholeDaysBetween(t *testing.T) {
	base := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int64
	}{
		{name: "same instant", end: base, want: 0},
		{name: "23 hours", end: base.Add(23 * time.Hour), want: 0},
		{name: "exactly one day", end: base.Add(24 * time.Hour), want: 1},
		{name: "47 hours truncates", end: base.Add(47 * time.Hour), want: 1},
		{name: "six days", end: base.AddDate(0, 0, 6), want: 6},
		{name: "negative span", end: base.Add(-25 * time.Hour), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WholeDaysBetween(base, tt.end))
		})
	}
}

func TestAddDays(t *testing.T) {
	start := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC), AddDays(start, 14))
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2025-05-01T12:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), got)

	_, err = ParseInstant("yesterday")
	assert.Error(t, err)
}

func TestStartOfDayUTC(t *testing.T) {
	MustInit("Europe/Istanbul")
	// 22:30 UTC is already 01:30 the next day in Istanbul (UTC+3)
	in := time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC), StartOfDayUTC(in))
}
