package model

import "sort"

// Accepted calendar years for earnings and the expected last earning year.
const (
	MinYear = 1900
	MaxYear = 9999
)

// EarningsRecord maps a calendar year to the earnings reported for it.
// It serialises as a JSON object keyed by decimal year strings.
type EarningsRecord map[int]float64

// Years returns the record's years in ascending order.
func (r EarningsRecord) Years() []int {
	years := make([]int, 0, len(r))
	for y := range r {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// FirstYear returns the earliest year in the record.
func (r EarningsRecord) FirstYear() (int, bool) {
	if len(r) == 0 {
		return 0, false
	}
	first := 0
	seen := false
	for y := range r {
		if !seen || y < first {
			first = y
			seen = true
		}
	}
	return first, true
}

func (r EarningsRecord) Clone() EarningsRecord {
	if r == nil {
		return nil
	}
	out := make(EarningsRecord, len(r))
	for y, v := range r {
		out[y] = v
	}
	return out
}

// OutOfRangeYear returns the smallest year outside MinYear..MaxYear, if any.
func (r EarningsRecord) OutOfRangeYear() (int, bool) {
	for _, y := range r.Years() {
		if y < MinYear || y > MaxYear {
			return y, true
		}
	}
	return 0, false
}
