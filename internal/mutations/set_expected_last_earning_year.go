package mutations

import (
	json "github.com/goccy/go-json"

	"benefit-estimator/internal/model"
)

type SetExpectedLastEarningYearHandler struct{}

func (h *SetExpectedLastEarningYearHandler) Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, ok := decodeProps(mutation)
	if !ok {
		return missingValue()
	}
	if isNull(props.Value) {
		return nil
	}

	var year int
	if err := json.Unmarshal(props.Value, &year); err != nil || validate.Var(year, yearTag) != nil {
		return []model.CalculationMessage{
			model.Critical(model.CodeInvalidYear, "Expected last earning year must be a year between 1900 and 9999"),
		}
	}
	return nil
}

func (h *SetExpectedLastEarningYearHandler) Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, _ := decodeProps(mutation)
	var year *int
	json.Unmarshal(props.Value, &year)
	state.ExpectedLastEarningYear = year
	return nil
}
