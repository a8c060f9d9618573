package model

type CalculationMessage struct {
	ID      int    `json:"id"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

// Message codes emitted by the mutation handlers.
const (
	CodeUnknownMutation       = "UNKNOWN_MUTATION"
	CodeUnknownField          = "UNKNOWN_FIELD"
	CodeInvalidFieldValue     = "INVALID_FIELD_VALUE"
	CodeInvalidBirthDate      = "INVALID_BIRTH_DATE"
	CodeInvalidRetireDate     = "INVALID_RETIRE_DATE"
	CodeRetirementBeforeBirth = "RETIREMENT_BEFORE_BIRTH"
	CodeRetirementAgeCapped   = "RETIREMENT_AGE_CAPPED"
	CodeInvalidEarningsYear   = "INVALID_EARNINGS_YEAR"
	CodeNegativeEarnings      = "NEGATIVE_EARNINGS"
	CodeEarningsUnreconciled  = "EARNINGS_UNRECONCILED"
	CodeInvalidYear           = "INVALID_YEAR"
)

func Critical(code, message string) CalculationMessage {
	return CalculationMessage{Level: LevelCritical, Code: code, Message: message}
}

func Warning(code, message string) CalculationMessage {
	return CalculationMessage{Level: LevelWarning, Code: code, Message: message}
}
