package model

type CalculationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CalculationResult   CalculationResult   `json:"calculation_result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	SessionID              string `json:"session_id"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CalculationResult struct {
	Messages         []CalculationMessage `json:"messages"`
	Mutations        []ProcessedMutation  `json:"mutations"`
	EndSituation     SituationEnvelope    `json:"end_situation"`
	InitialSituation InitialSituation     `json:"initial_situation"`
	// ChangedKeys lists the storage keys whose value differs between the
	// initial and the end situation.
	ChangedKeys []string `json:"changed_keys"`
	// State is the derived snapshot after the batch, when the caller resolved one.
	State *UserState `json:"state,omitempty"`
}

type ProcessedMutation struct {
	Mutation                  Mutation         `json:"mutation"`
	CalculationMessageIndexes []int            `json:"calculation_message_indexes,omitempty"`
	ForwardPatch              []map[string]any `json:"forward_patch,omitempty"`
	BackwardPatch             []map[string]any `json:"backward_patch,omitempty"`
}

type SituationEnvelope struct {
	MutationID    string     `json:"mutation_id"`
	MutationIndex int        `json:"mutation_index"`
	ActualAt      string     `json:"actual_at"`
	Situation     UserInputs `json:"situation"`
}

type InitialSituation struct {
	ActualAt  string     `json:"actual_at"`
	Situation UserInputs `json:"situation"`
}

// ReconcileResponse answers a stateless reconciliation call.
type ReconcileResponse struct {
	Earnings   EarningsRecord `json:"earnings"`
	Range      *EarningsRange `json:"range"`
	Reconciled bool           `json:"reconciled"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)
