package model

import json "github.com/goccy/go-json"

type CalculationRequest struct {
	SessionID               string                  `json:"session_id"`
	CalculationInstructions CalculationInstructions `json:"calculation_instructions"`
}

type CalculationInstructions struct {
	Mutations []Mutation `json:"mutations" validate:"required,min=1,dive"`
}

type Mutation struct {
	MutationID             string          `json:"mutation_id"`
	MutationDefinitionName string          `json:"mutation_definition_name" validate:"required"`
	ActualAt               string          `json:"actual_at"`
	MutationProperties     json.RawMessage `json:"mutation_properties"`
}

// ReconcileRequest is the body of a stateless reconciliation call.
type ReconcileRequest struct {
	Earnings                EarningsRecord `json:"earnings" validate:"omitempty,dive,keys,gte=1900,lte=9999,endkeys,gte=0"`
	BirthDate               *Date          `json:"birth_date"`
	RetireDate              *Date          `json:"retire_date"`
	ExpectedLastEarningYear *int           `json:"expected_last_earning_year" validate:"omitempty,gte=1900,lte=9999"`
}
