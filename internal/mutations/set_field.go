package mutations

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"benefit-estimator/internal/model"
)

// SetFieldHandler writes any field by its storage key. Keys with a dedicated
// handler are forwarded to it so the same rules apply on every path.
type SetFieldHandler struct{}

type setFieldProps struct {
	Field string `validate:"required"`
}

func (h *SetFieldHandler) resolve(mutation *model.Mutation) (*model.Field, valueProps, []model.CalculationMessage) {
	props, ok := decodeProps(mutation)
	if !ok {
		return nil, props, missingValue()
	}
	if err := validate.Struct(setFieldProps{Field: props.Field}); err != nil {
		return nil, props, []model.CalculationMessage{
			model.Critical(model.CodeUnknownField, "mutation_properties.field is required"),
		}
	}
	f, ok := model.FieldByKey(props.Field)
	if !ok {
		return nil, props, []model.CalculationMessage{
			model.Critical(model.CodeUnknownField, fmt.Sprintf("Unknown field: %s", props.Field)),
		}
	}
	return f, props, nil
}

func (h *SetFieldHandler) Validate(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	f, props, msgs := h.resolve(mutation)
	if msgs != nil {
		return msgs
	}
	if f.Mutation != model.MutationSetField {
		dedicated, _ := Get(f.Mutation)
		return dedicated.Validate(state, mutation)
	}
	if isNull(props.Value) {
		return nil
	}

	probe := model.UserInputs{}
	if err := f.Decode(&probe, props.Value); err != nil {
		return invalidValue(f, "has the wrong type")
	}

	if len(f.Enum) > 0 {
		var s string
		json.Unmarshal(props.Value, &s)
		if !f.AllowsValue(s) {
			return invalidValue(f, fmt.Sprintf("must be one of %v", f.Enum))
		}
	}

	switch f.Key {
	case model.KeyPensionAmount:
		if *probe.PensionAmount < 0 {
			return invalidValue(f, "must be non-negative")
		}
	case model.KeyUserProfile:
		if !bytes.HasPrefix(bytes.TrimSpace(props.Value), []byte("{")) {
			return invalidValue(f, "must be an object")
		}
	}

	return nil
}

func (h *SetFieldHandler) Apply(state *model.UserInputs, mutation *model.Mutation) []model.CalculationMessage {
	f, props, _ := h.resolve(mutation)
	if f.Mutation != model.MutationSetField {
		dedicated, _ := Get(f.Mutation)
		return dedicated.Apply(state, mutation)
	}
	f.Decode(state, props.Value)
	return nil
}

func invalidValue(f *model.Field, reason string) []model.CalculationMessage {
	return []model.CalculationMessage{
		model.Critical(model.CodeInvalidFieldValue, fmt.Sprintf("Value for %s %s", f.Key, reason)),
	}
}
