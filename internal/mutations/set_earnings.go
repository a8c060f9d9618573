package mutations

import (
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"benefit-estimator/internal/model"
)

type SetEarningsHandler struct{}

func (h *SetEarningsHandler) Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, ok := decodeProps(mutation)
	if !ok {
		return missingValue()
	}
	if isNull(props.Value) {
		return nil
	}

	var raw map[string]float64
	if err := json.Unmarshal(props.Value, &raw); err != nil {
		return []model.CalculationMessage{
			model.Critical(model.CodeInvalidFieldValue, "Earnings must be an object of year to amount"),
		}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		year, err := strconv.Atoi(k)
		if err != nil {
			return []model.CalculationMessage{
				model.Critical(model.CodeInvalidEarningsYear, fmt.Sprintf("Earnings year %q is not an integer", k)),
			}
		}
		if validate.Var(year, yearTag) != nil {
			return []model.CalculationMessage{
				model.Critical(model.CodeInvalidEarningsYear,
					fmt.Sprintf("Earnings year %d is outside %d-%d", year, model.MinYear, model.MaxYear)),
			}
		}
		if raw[k] < 0 {
			return []model.CalculationMessage{
				model.Critical(model.CodeNegativeEarnings, fmt.Sprintf("Earnings for %s must be non-negative", k)),
			}
		}
	}

	if state.BirthDate == nil {
		return []model.CalculationMessage{
			model.Warning(model.CodeEarningsUnreconciled, "No birth date set; earnings are kept as entered"),
		}
	}
	return nil
}

func (h *SetEarningsHandler) Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	props, _ := decodeProps(mutation)
	if isNull(props.Value) {
		state.Earnings = nil
		return nil
	}
	var rec model.EarningsRecord
	json.Unmarshal(props.Value, &rec)
	state.Earnings = rec
	return nil
}
