package mutations

import (
	"fmt"

	"benefit-estimator/internal/earnings"
	"benefit-estimator/internal/model"
)

type SetRetireDateHandler struct{}

func (h *SetRetireDateHandler) Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, ok := decodeProps(mutation)
	if !ok {
		return missingValue()
	}

	retire, ok := decodeDate(props.Value)
	if !ok {
		return []model.CalculationMessage{
			model.Critical(model.CodeInvalidRetireDate, "Retirement date is invalid"),
		}
	}

	msgs := retirementOrderWarnings(state.BirthDate, retire)

	// Reconciliation ignores retire dates at or past the age ceiling.
	if retire != nil && state.BirthDate != nil {
		if age := retire.Year() - state.BirthDate.Year(); age >= earnings.MaxRetirementAge {
			msgs = append(msgs, model.Warning(model.CodeRetirementAgeCapped,
				fmt.Sprintf("Retirement at age %d exceeds %d; earnings end at age %d",
					age, earnings.MaxRetirementAge-1, earnings.MaxRetirementAge)))
		}
	}

	return msgs
}

func (h *SetRetireDateHandler) Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, _ := decodeProps(mutation)
	state.RetireDate, _ = decodeDate(props.Value)
	return nil
}
