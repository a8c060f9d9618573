package earnings

import (
	"math"
	"time"
)

// addMonths shifts t by n calendar months, clamping the day to the length of
// the target month (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(total-floorDiv(total, 12)*12 + 1)
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(ty, tm, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func addYears(t time.Time, n int) time.Time {
	return addMonths(t, 12*n)
}

// withYear replaces the year of t, clamping Feb 29 when needed.
func withYear(t time.Time, year int) time.Time {
	return addYears(t, year-t.Year())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// monthDiff returns the fractional number of calendar months from b to a.
// Whole months are counted on the calendar; the remainder is the elapsed share
// of the month that straddles b.
func monthDiff(a, b time.Time) float64 {
	if a.Day() < b.Day() {
		return -monthDiff(b, a)
	}
	whole := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	anchor := addMonths(a, whole)
	var frac float64
	if b.Before(anchor) {
		anchor2 := addMonths(a, whole-1)
		frac = float64(b.Sub(anchor)) / float64(anchor.Sub(anchor2))
	} else {
		anchor2 := addMonths(a, whole+1)
		frac = float64(b.Sub(anchor)) / float64(anchor2.Sub(anchor))
	}
	r := -(float64(whole) + frac)
	if r == 0 || math.IsNaN(r) {
		return 0
	}
	return r
}

// truncate rounds toward zero.
func truncate(f float64) int {
	if f < 0 {
		return int(math.Ceil(f))
	}
	return int(math.Floor(f))
}
