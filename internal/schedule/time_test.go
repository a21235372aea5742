package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/brewer/internal/device"
)

func TestIsStrictlyFuture(t *testing.T) {
	now := device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8, Minute: 0}

	tests := []struct {
		name string
		t    Time
		want bool
	}{
		{"one minute later", Time{Month: 6, Day: 10, Hour: 8, Minute: 1}, true},
		{"identical", Time{Month: 6, Day: 10, Hour: 8, Minute: 0}, false},
		{"previous day late", Time{Month: 6, Day: 9, Hour: 23, Minute: 59}, false},
		{"later hour", Time{Month: 6, Day: 10, Hour: 9, Minute: 0}, true},
		{"earlier hour later minute", Time{Month: 6, Day: 10, Hour: 7, Minute: 59}, false},
		{"next day early", Time{Month: 6, Day: 11, Hour: 0, Minute: 0}, true},
		{"next month", Time{Month: 7, Day: 1, Hour: 0, Minute: 0}, true},
		{"previous month", Time{Month: 5, Day: 31, Hour: 23, Minute: 59}, false},
		{"timed out day", Time{Month: 0, Day: 0, Hour: 23, Minute: 59}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrictlyFuture(tt.t, now))
		})
	}
}

func TestYearIsIgnored(t *testing.T) {
	now := device.DateTime{Year: 2026, Month: 12, Day: 31, Hour: 23, Minute: 0}

	// Tomorrow across the year boundary compares as January < December.
	d, m, y := NextDay(31, 12, 2026)
	assert.Equal(t, 2027, y)
	assert.False(t, IsStrictlyFuture(Time{Day: d, Month: m, Hour: 8}, now))

	// A reading a year later still matches the same month/day/hour/minute.
	sched := Time{Month: 6, Day: 10, Hour: 8, Minute: 0, Valid: true}
	assert.True(t, Due(sched, device.DateTime{Year: 2027, Month: 6, Day: 10, Hour: 8}, MatchExact))
}

func TestNextDay(t *testing.T) {
	tests := []struct {
		d, m, y          int
		wantD, wantM, wy int
	}{
		{10, 6, 2026, 11, 6, 2026},
		{30, 6, 2026, 1, 7, 2026},
		{31, 1, 2026, 1, 2, 2026},
		{28, 2, 2026, 1, 3, 2026},
		{28, 2, 2028, 29, 2, 2028},
		{29, 2, 2028, 1, 3, 2028},
		{28, 2, 2100, 1, 3, 2100},
		{28, 2, 2000, 29, 2, 2000},
		{31, 12, 2026, 1, 1, 2027},
	}
	for _, tt := range tests {
		d, m, y := NextDay(tt.d, tt.m, tt.y)
		assert.Equal(t, [3]int{tt.wantD, tt.wantM, tt.wy}, [3]int{d, m, y}, "from %02d/%02d/%d", tt.d, tt.m, tt.y)
	}
}

func TestDue(t *testing.T) {
	sched := Time{Month: 6, Day: 10, Hour: 8, Minute: 30, Valid: true}
	at := device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8, Minute: 30, Second: 59}
	before := device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8, Minute: 29}
	after := device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8, Minute: 31}

	assert.True(t, Due(sched, at, MatchExact))
	assert.False(t, Due(sched, before, MatchExact))
	assert.False(t, Due(sched, after, MatchExact), "exact match misses a skipped minute")

	assert.True(t, Due(sched, at, MatchCatchUp))
	assert.False(t, Due(sched, before, MatchCatchUp))
	assert.True(t, Due(sched, after, MatchCatchUp))

	assert.False(t, Due(Time{Month: 6, Day: 10, Hour: 8, Minute: 30}, at, MatchExact), "invalid schedule never fires")
}

func TestDigitClamps(t *testing.T) {
	tests := []struct {
		first, second int
		wantHour      int
		wantMinute    int
	}{
		{0, 0, 0, 0},
		{0, 9, 9, 9},
		{1, 9, 19, 19},
		{2, 3, 23, 23},
		{2, 4, 20, 24},
		{2, 9, 20, 29},
		{3, 0, 0, 30},
		{5, 9, 9, 59},
		{6, 5, 5, 5},
		{9, 9, 9, 9},
		{InvalidDigit, 7, 7, 7},
		{1, InvalidDigit, 10, 10},
		{InvalidDigit, InvalidDigit, 0, 0},
	}
	for _, tt := range tests {
		h := HourFromDigits(tt.first, tt.second)
		m := MinuteFromDigits(tt.first, tt.second)
		assert.Equal(t, tt.wantHour, h, "hour from %d,%d", tt.first, tt.second)
		assert.Equal(t, tt.wantMinute, m, "minute from %d,%d", tt.first, tt.second)
		assert.True(t, h >= 0 && h <= 23)
		assert.True(t, m >= 0 && m <= 59)
	}
}
