// Package schedule implements the guided entry of a future brew time and the
// clock comparisons used while waiting for it.
//
// Comparisons look at month, day, hour and minute only. The year is never
// compared, so a schedule that wraps past December 31st is rejected and one
// set a full year ahead is treated as this year.
package schedule

import (
	"fmt"

	"github.com/sweeney/brewer/internal/device"
)

// Time is a scheduled brew time. The zero value is invalid.
type Time struct {
	Day    int
	Month  int
	Hour   int
	Minute int
	Valid  bool
}

func (t Time) String() string {
	return fmt.Sprintf("%02d/%02d %02d:%02d", t.Day, t.Month, t.Hour, t.Minute)
}

// InvalidDigit is returned by a digit read that timed out.
const InvalidDigit = 0xFF

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysIn returns the number of days in month of year.
func DaysIn(month, year int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeap(year) {
		return 29
	}
	return daysInMonth[month-1]
}

// NextDay returns the date after day/month/year, rolling over month and year.
func NextDay(day, month, year int) (int, int, int) {
	if day < DaysIn(month, year) {
		return day + 1, month, year
	}
	if month < 12 {
		return 1, month + 1, year
	}
	return 1, 1, year + 1
}

// compare orders a against b on month, day, hour, minute.
func compare(a Time, b device.DateTime) int {
	pairs := [4][2]int{
		{a.Month, b.Month},
		{a.Day, b.Day},
		{a.Hour, b.Hour},
		{a.Minute, b.Minute},
	}
	for _, p := range pairs {
		switch {
		case p[0] > p[1]:
			return 1
		case p[0] < p[1]:
			return -1
		}
	}
	return 0
}

// IsStrictlyFuture reports whether t is after now. Equal times are not future.
func IsStrictlyFuture(t Time, now device.DateTime) bool {
	return compare(t, now) > 0
}

// MatchMode selects how a waiting schedule is compared with the clock.
type MatchMode string

const (
	// MatchExact fires only while the clock shows exactly the scheduled minute.
	// A poll cycle that skips that minute misses the brew.
	MatchExact MatchMode = "exact"
	// MatchCatchUp fires at or after the scheduled minute.
	MatchCatchUp MatchMode = "catch_up"
)

// Due reports whether a waiting schedule should start brewing at now.
func Due(t Time, now device.DateTime, mode MatchMode) bool {
	if !t.Valid {
		return false
	}
	if mode == MatchCatchUp {
		return compare(t, now) <= 0
	}
	return compare(t, now) == 0
}

// HourTens clamps the first hour digit to 0..2.
func HourTens(d int) int {
	if d < 0 || d > 2 {
		return 0
	}
	return d
}

// HourUnits clamps the second hour digit: 0..3 after a 2, else 0..9.
func HourUnits(tens, d int) int {
	if d < 0 || d > 9 {
		return 0
	}
	if tens == 2 && d > 3 {
		return 0
	}
	return d
}

// MinuteTens clamps the first minute digit to 0..5.
func MinuteTens(d int) int {
	if d < 0 || d > 5 {
		return 0
	}
	return d
}

// MinuteUnits clamps the second minute digit to 0..9.
func MinuteUnits(d int) int {
	if d < 0 || d > 9 {
		return 0
	}
	return d
}

// HourFromDigits combines two raw digits (possibly InvalidDigit) into 0..23.
func HourFromDigits(first, second int) int {
	tens := HourTens(first)
	return tens*10 + HourUnits(tens, second)
}

// MinuteFromDigits combines two raw digits (possibly InvalidDigit) into 0..59.
func MinuteFromDigits(first, second int) int {
	return MinuteTens(first)*10 + MinuteUnits(second)
}
