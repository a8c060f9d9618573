package earnings

import "benefit-estimator/internal/model"

// RetirementAge is the age reached on the retire date.
type RetirementAge struct {
	Years      float64
	YearsOnly  int
	MonthsOnly int
}

// FullRetirementAge derives the age at retirement. ok is false when either
// date is missing, meaning "unknown" rather than zero.
func FullRetirementAge(birthDate, retireDate *model.Date) (RetirementAge, bool) {
	if birthDate == nil || retireDate == nil {
		return RetirementAge{}, false
	}
	months := monthDiff(retireDate.Time, birthDate.Time)
	return RetirementAge{
		Years:      months / 12,
		YearsOnly:  truncate(months / 12),
		MonthsOnly: truncate(months) % 12,
	}, true
}
