package mutations

import "benefit-estimator/internal/model"

type SetBirthDateHandler struct{}

func (h *SetBirthDateHandler) Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, ok := decodeProps(mutation)
	if !ok {
		return missingValue()
	}

	birth, ok := decodeDate(props.Value)
	if !ok || (birth != nil && birth.After(now())) {
		return []model.CalculationMessage{
			model.Critical(model.CodeInvalidBirthDate, "Birth date is invalid or in the future"),
		}
	}

	return retirementOrderWarnings(birth, state.RetireDate)
}

func (h *SetBirthDateHandler) Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, _ := decodeProps(mutation)
	state.BirthDate, _ = decodeDate(props.Value)
	return nil
}
