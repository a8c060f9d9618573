package model

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"
)

// Storage keys, one per persisted field.
const (
	KeyBirthDate                      = "BirthDate"
	KeyRetireDate                     = "RetireDate"
	KeyYear62                         = "Year62"
	KeyHaveEarnings                   = "haveEarnings"
	KeyEarnings                       = "earnings"
	KeyEarningsFormat                 = "earningsFormat"
	KeyHaveSSAAccount                 = "haveSSAAccount"
	KeyCoveredEmployment              = "coveredEmployment"
	KeyPensionOrRetirementAccount     = "pensionOrRetirementAccount"
	KeyPensionAmount                  = "pensionAmount"
	KeyDateAwarded                    = "dateAwarded"
	KeyUserProfile                    = "UserProfile"
	KeyPreferPiaUserCalc              = "preferPiaUserCalcState"
	KeyExpectedLastEarningYear        = "ExpectedLastEarningYear"
	KeyAwiTrendOrManualPrediction     = "awiTrendOrManualPrediction"
	KeyAwiTrendSelection              = "awiTrendSelection"
	KeyExpectedPercentageWageIncrease = "expectedPercentageWageIncrease"
)

// Mutation names with a dedicated handler. Every other field goes through MutationSetField.
const (
	MutationSetBirthDate               = "set_birth_date"
	MutationSetRetireDate              = "set_retire_date"
	MutationSetEarnings                = "set_earnings"
	MutationSetExpectedLastEarningYear = "set_expected_last_earning_year"
	MutationSetField                   = "set_field"
)

// Field describes one persisted input.
type Field struct {
	// Key is the session storage key.
	Key string
	// Name is the JSON name inside UserInputs.
	Name string
	// Mutation is the handler that validates writes to the field.
	Mutation string
	// Enum lists the accepted values of string fields; empty means unrestricted.
	Enum []string
	// Ref returns a pointer to the field inside in, suitable for JSON decoding.
	Ref func(in *UserInputs) any
	// Default is applied when the key was never written. Nil means null.
	Default func(in *UserInputs, now time.Time)
}

// Fields lists every persisted field in display order.
var Fields = []Field{
	{Key: KeyBirthDate, Name: "birthDate", Mutation: MutationSetBirthDate,
		Ref: func(in *UserInputs) any { return &in.BirthDate }},
	{Key: KeyRetireDate, Name: "retireDate", Mutation: MutationSetRetireDate,
		Ref: func(in *UserInputs) any { return &in.RetireDate }},
	{Key: KeyYear62, Name: "year62", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.Year62 }},
	{Key: KeyHaveEarnings, Name: "haveEarnings", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.HaveEarnings }},
	{Key: KeyEarnings, Name: "earnings", Mutation: MutationSetEarnings,
		Ref: func(in *UserInputs) any { return &in.Earnings }},
	{Key: KeyEarningsFormat, Name: "earningsFormat", Mutation: MutationSetField,
		Enum: []string{EarningsFormatXML, EarningsFormatPDF, EarningsFormatManual},
		Ref:  func(in *UserInputs) any { return &in.EarningsFormat }},
	{Key: KeyHaveSSAAccount, Name: "haveSSAAccount", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.HaveSSAAccount }},
	{Key: KeyCoveredEmployment, Name: "isEmploymentCovered", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.IsEmploymentCovered }},
	{Key: KeyPensionOrRetirementAccount, Name: "pensionOrRetirementAccount", Mutation: MutationSetField,
		Enum: []string{PensionAccountPension, PensionAccountRetirement},
		Ref:  func(in *UserInputs) any { return &in.PensionOrRetirementAccount }},
	{Key: KeyPensionAmount, Name: "pensionAmount", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.PensionAmount }},
	{Key: KeyDateAwarded, Name: "pensionDateAwarded", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.PensionDateAwarded }},
	{Key: KeyUserProfile, Name: "userProfile", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.UserProfile }},
	{Key: KeyPreferPiaUserCalc, Name: "preferPiaUserCalc", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.PreferPiaUserCalc },
		Default: func(in *UserInputs, _ time.Time) {
			in.PreferPiaUserCalc = Ptr(DefaultPreferPiaUserCalc)
		}},
	{Key: KeyExpectedLastEarningYear, Name: "expectedLastEarningYear", Mutation: MutationSetExpectedLastEarningYear,
		Ref: func(in *UserInputs) any { return &in.ExpectedLastEarningYear },
		Default: func(in *UserInputs, now time.Time) {
			in.ExpectedLastEarningYear = Ptr(now.Year())
		}},
	{Key: KeyAwiTrendOrManualPrediction, Name: "awiTrendOrManualPrediction", Mutation: MutationSetField,
		Enum: []string{PredictionAWITrend, PredictionManual},
		Ref:  func(in *UserInputs) any { return &in.AwiTrendOrManualPrediction }},
	{Key: KeyAwiTrendSelection, Name: "awiTrendSelection", Mutation: MutationSetField,
		Enum: []string{TrendLow, TrendMedium, TrendHigh},
		Ref:  func(in *UserInputs) any { return &in.AwiTrendSelection }},
	{Key: KeyExpectedPercentageWageIncrease, Name: "expectedPercentageWageIncrease", Mutation: MutationSetField,
		Ref: func(in *UserInputs) any { return &in.ExpectedPercentageWageIncrease },
		Default: func(in *UserInputs, _ time.Time) {
			in.ExpectedPercentageWageIncrease = Ptr(DefaultExpectedPercentageWageIncrease)
		}},
}

var (
	fieldsByKey  = make(map[string]*Field, len(Fields))
	fieldsByName = make(map[string]*Field, len(Fields))
)

func init() {
	for i := range Fields {
		fieldsByKey[Fields[i].Key] = &Fields[i]
		fieldsByName[Fields[i].Name] = &Fields[i]
	}
}

// FieldByKey looks a field up by its storage key.
func FieldByKey(key string) (*Field, bool) {
	f, ok := fieldsByKey[key]
	return f, ok
}

// FieldByName looks a field up by its JSON name in UserInputs.
func FieldByName(name string) (*Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// AllowsValue reports whether s is accepted by an enumerated field.
func (f *Field) AllowsValue(s string) bool {
	if len(f.Enum) == 0 {
		return true
	}
	for _, v := range f.Enum {
		if v == s {
			return true
		}
	}
	return false
}

// Decode writes the JSON value raw into the field of in. JSON null clears it.
func (f *Field) Decode(in *UserInputs, raw []byte) error {
	if err := json.Unmarshal(raw, f.Ref(in)); err != nil {
		return err
	}
	if p, ok := f.Ref(in).(*UserProfile); ok && bytes.Equal(bytes.TrimSpace(*p), []byte("null")) {
		*p = nil
	}
	return nil
}

// Encode returns the JSON value of the field of in; unset fields encode as null.
func (f *Field) Encode(in *UserInputs) ([]byte, error) {
	return json.Marshal(f.Ref(in))
}
