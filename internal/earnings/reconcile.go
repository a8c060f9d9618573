// Package earnings reconciles a sparse earnings history against the user's
// birth and retirement dates and derives the full retirement age.
package earnings

import (
	"time"

	"benefit-estimator/internal/model"
)

const (
	// MaxRetirementAge caps the last earnings year relative to the birth year.
	MaxRetirementAge = 71
	// FirstEmploymentAge is assumed when the record has no years at all.
	FirstEmploymentAge = 18
)

// Inputs are the optional user fields that bound the earnings range.
type Inputs struct {
	BirthDate               *model.Date
	RetireDate              *model.Date
	ExpectedLastEarningYear *int
}

// Range is the resolved span of a reconciled record.
type Range struct {
	StartEmploymentYear int
	EndYear             int
	CleanRetireDate     model.Date
}

// Years reports how many years the range covers; zero when inverted.
func (r Range) Years() int {
	if r.EndYear < r.StartEmploymentYear {
		return 0
	}
	return r.EndYear - r.StartEmploymentYear + 1
}

// Model converts the range to its wire form.
func (r Range) Model() *model.EarningsRange {
	return &model.EarningsRange{
		StartEmploymentYear: r.StartEmploymentYear,
		EndYear:             r.EndYear,
		CleanRetireDate:     r.CleanRetireDate,
	}
}

// Reconcile fills every year from first employment to retirement, keeping
// reported amounts and zeroing the rest. Without a birth date the record is
// returned as is.
func Reconcile(earnings model.EarningsRecord, in Inputs) model.EarningsRecord {
	rng, ok := ResolveRange(earnings, in, time.Now())
	if !ok {
		return earnings
	}
	return Fill(earnings, rng)
}

// ResolveRange computes the reconciliation range. now only supplies the month
// and day of a retire date derived from the expected last earning year.
// ok is false when no birth date is known.
func ResolveRange(earnings model.EarningsRecord, in Inputs, now time.Time) (Range, bool) {
	if in.BirthDate == nil {
		return Range{}, false
	}
	birth := in.BirthDate.Time
	birthYear := birth.Year()
	maxRetire := model.StartOfDay(addYears(birth, MaxRetirementAge))

	var clean model.Date
	switch {
	case in.ExpectedLastEarningYear == nil && in.RetireDate == nil:
		clean = maxRetire
	case in.ExpectedLastEarningYear == nil && in.RetireDate.Year()-birthYear < MaxRetirementAge:
		clean = *in.RetireDate
	case in.RetireDate == nil && *in.ExpectedLastEarningYear-birthYear < MaxRetirementAge:
		clean = model.StartOfDay(withYear(now.UTC(), *in.ExpectedLastEarningYear))
	default:
		clean = maxRetire
	}

	start, ok := earnings.FirstYear()
	if !ok {
		start = birthYear + FirstEmploymentAge
	}
	// Years before birth cannot hold earnings. Clamping keeps the range within
	// MaxRetirementAge+1 years whatever keys a stored record carries.
	if start < birthYear {
		start = birthYear
	}
	return Range{
		StartEmploymentYear: start,
		EndYear:             clean.Year(),
		CleanRetireDate:     clean,
	}, true
}

// Fill materialises rng from earnings. An inverted range yields an empty record.
func Fill(earnings model.EarningsRecord, rng Range) model.EarningsRecord {
	out := make(model.EarningsRecord, rng.Years())
	for year := rng.StartEmploymentYear; year <= rng.EndYear; year++ {
		out[year] = earnings[year]
	}
	return out
}
