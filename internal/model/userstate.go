package model

import json "github.com/goccy/go-json"

// Enum values accepted by the enumerated fields.
const (
	EarningsFormatXML    = "XML"
	EarningsFormatPDF    = "PDF"
	EarningsFormatManual = "MANUAL"

	PensionAccountPension    = "PENSION"
	PensionAccountRetirement = "RETIREMENT_ACCOUNT"

	PredictionAWITrend = "AWI_TREND"
	PredictionManual   = "MANUAL"

	TrendLow    = "LOW"
	TrendMedium = "MEDIUM"
	TrendHigh   = "HIGH"
)

// Defaults applied to fields that were never written in a session.
const (
	DefaultPreferPiaUserCalc              = false
	DefaultExpectedPercentageWageIncrease = 0.01
)

// UserProfile is an opaque profile document owned by the client.
type UserProfile = json.RawMessage

// UserInputs holds every field the user can set. Nil means "not set yet".
// Earnings holds the raw record as entered; reconciliation happens on read.
type UserInputs struct {
	BirthDate                      *Date          `json:"birthDate"`
	RetireDate                     *Date          `json:"retireDate"`
	Year62                         *int           `json:"year62"`
	HaveEarnings                   *bool          `json:"haveEarnings"`
	Earnings                       EarningsRecord `json:"earnings"`
	EarningsFormat                 *string        `json:"earningsFormat"`
	HaveSSAAccount                 *bool          `json:"haveSSAAccount"`
	IsEmploymentCovered            *bool          `json:"isEmploymentCovered"`
	PensionOrRetirementAccount     *string        `json:"pensionOrRetirementAccount"`
	PensionAmount                  *float64       `json:"pensionAmount"`
	PensionDateAwarded             *Date          `json:"pensionDateAwarded"`
	UserProfile                    UserProfile    `json:"userProfile"`
	PreferPiaUserCalc              *bool          `json:"preferPiaUserCalc"`
	ExpectedLastEarningYear        *int           `json:"expectedLastEarningYear"`
	AwiTrendOrManualPrediction     *string        `json:"awiTrendOrManualPrediction"`
	AwiTrendSelection              *string        `json:"awiTrendSelection"`
	ExpectedPercentageWageIncrease *float64       `json:"expectedPercentageWageIncrease"`
}

// Clone returns a deep copy.
func (in UserInputs) Clone() UserInputs {
	out := in
	out.BirthDate = clonePtr(in.BirthDate)
	out.RetireDate = clonePtr(in.RetireDate)
	out.Year62 = clonePtr(in.Year62)
	out.HaveEarnings = clonePtr(in.HaveEarnings)
	out.Earnings = in.Earnings.Clone()
	out.EarningsFormat = clonePtr(in.EarningsFormat)
	out.HaveSSAAccount = clonePtr(in.HaveSSAAccount)
	out.IsEmploymentCovered = clonePtr(in.IsEmploymentCovered)
	out.PensionOrRetirementAccount = clonePtr(in.PensionOrRetirementAccount)
	out.PensionAmount = clonePtr(in.PensionAmount)
	out.PensionDateAwarded = clonePtr(in.PensionDateAwarded)
	if in.UserProfile != nil {
		out.UserProfile = append(UserProfile(nil), in.UserProfile...)
	}
	out.PreferPiaUserCalc = clonePtr(in.PreferPiaUserCalc)
	out.ExpectedLastEarningYear = clonePtr(in.ExpectedLastEarningYear)
	out.AwiTrendOrManualPrediction = clonePtr(in.AwiTrendOrManualPrediction)
	out.AwiTrendSelection = clonePtr(in.AwiTrendSelection)
	out.ExpectedPercentageWageIncrease = clonePtr(in.ExpectedPercentageWageIncrease)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// EarningsRange describes the span a reconciled record covers.
type EarningsRange struct {
	StartEmploymentYear int  `json:"startEmploymentYear"`
	EndYear             int  `json:"endYear"`
	CleanRetireDate     Date `json:"cleanRetireDate"`
}

// UserState is the read-only aggregate handed to consumers.
type UserState struct {
	BirthDate                      *Date          `json:"birthDate"`
	RetireDate                     *Date          `json:"retireDate"`
	FullRetirementAge              *float64       `json:"fullRetirementAge"`
	FullRetirementAgeYearsOnly     *int           `json:"fullRetirementAgeYearsOnly"`
	FullRetirementAgeMonthsOnly    *int           `json:"fullRetirementAgeMonthsOnly"`
	IsManual                       bool           `json:"isManual"`
	Year62                         *int           `json:"year62"`
	HaveEarnings                   *bool          `json:"haveEarnings"`
	Earnings                       EarningsRecord `json:"earnings"`
	EarningsRange                  *EarningsRange `json:"earningsRange"`
	EarningsFormat                 *string        `json:"earningsFormat"`
	HaveSSAAccount                 *bool          `json:"haveSSAAccount"`
	IsEmploymentCovered            *bool          `json:"isEmploymentCovered"`
	PensionOrRetirementAccount     *string        `json:"pensionOrRetirementAccount"`
	PensionAmount                  *float64       `json:"pensionAmount"`
	PensionDateAwarded             *Date          `json:"pensionDateAwarded"`
	UserProfile                    UserProfile    `json:"userProfile"`
	PreferPiaUserCalc              *bool          `json:"preferPiaUserCalc"`
	ExpectedLastEarningYear        *int           `json:"expectedLastEarningYear"`
	AwiTrendOrManualPrediction     *string        `json:"awiTrendOrManualPrediction"`
	AwiTrendSelection              *string        `json:"awiTrendSelection"`
	ExpectedPercentageWageIncrease *float64       `json:"expectedPercentageWageIncrease"`
	WageGrowthRate                 *float64       `json:"wageGrowthRate"`
}
