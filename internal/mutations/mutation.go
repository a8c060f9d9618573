package mutations

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"benefit-estimator/internal/model"
)

// MutationHandler defines the contract for all mutation implementations.
// Validate inspects the request against the current inputs without touching
// them; Apply writes the change and may only emit warnings.
type MutationHandler interface {
	Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage
	Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage
}

// yearTag bounds every calendar year a mutation accepts.
var yearTag = fmt.Sprintf("gte=%d,lte=%d", model.MinYear, model.MaxYear)

var (
	validate = validator.New()
	now      = time.Now
)

// valueProps carries the new value of a single field. Field names the storage
// key and is only read by set_field.
type valueProps struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func decodeProps(mutation *model.Mutation) (valueProps, bool) {
	var props valueProps
	if len(mutation.MutationProperties) == 0 {
		return props, false
	}
	if err := json.Unmarshal(mutation.MutationProperties, &props); err != nil {
		return props, false
	}
	if len(props.Value) == 0 {
		return props, false
	}
	return props, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeDate reads a nullable date value.
func decodeDate(raw json.RawMessage) (*model.Date, bool) {
	if isNull(raw) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func missingValue() []model.CalculationMessage {
	return []model.CalculationMessage{
		model.Critical(model.CodeInvalidFieldValue, "mutation_properties.value is required"),
	}
}

// retirementOrderWarnings flags a retire date that does not follow the birth date.
func retirementOrderWarnings(birth, retire *model.Date) []model.CalculationMessage {
	if birth == nil || retire == nil || retire.After(birth.Time) {
		return nil
	}
	return []model.CalculationMessage{
		model.Warning(model.CodeRetirementBeforeBirth,
			"Retirement date "+retire.String()+" is not after birth date "+birth.String()),
	}
}
