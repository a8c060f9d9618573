package mutations

import "benefit-estimator/internal/model"

var registry map[string]MutationHandler

func init() {
	// set_field forwards to the dedicated handlers through Get, so the map is
	// filled at init time rather than in its declaration.
	registry = map[string]MutationHandler{
		model.MutationSetBirthDate:               &SetBirthDateHandler{},
		model.MutationSetRetireDate:              &SetRetireDateHandler{},
		model.MutationSetEarnings:                &SetEarningsHandler{},
		model.MutationSetExpectedLastEarningYear: &SetExpectedLastEarningYearHandler{},
		model.MutationSetField:                   &SetFieldHandler{},
	}
}

func Get(name string) (MutationHandler, bool) {
	h, ok := registry[name]
	return h, ok
}
