package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"benefit-estimator/internal/jsonpatch"
	"benefit-estimator/internal/model"
	"benefit-estimator/internal/mutations"
)

// Process applies the request's mutations in order to a copy of initial.
// It stops at the first CRITICAL message; end_situation then holds the inputs
// after the last mutation that applied cleanly.
func Process(initial model.UserInputs, req *model.CalculationRequest) *model.CalculationResponse {
	start := time.Now()

	state := initial.Clone()
	committed := initial.Clone()

	var allMessages []model.CalculationMessage
	var processedMutations []model.ProcessedMutation
	outcome := model.OutcomeSuccess
	hasCritical := false

	muts := req.CalculationInstructions.Mutations
	var firstActualAt, lastMutationID, lastActualAt string
	if len(muts) > 0 {
		firstActualAt = muts[0].ActualAt
		lastMutationID = muts[0].MutationID
		lastActualAt = muts[0].ActualAt
	}
	lastMutationIndex := 0

	for i, mut := range muts {
		handler, ok := mutations.Get(mut.MutationDefinitionName)
		if !ok {
			msg := model.Critical(model.CodeUnknownMutation, fmt.Sprintf("Unknown mutation: %s", mut.MutationDefinitionName))
			msg.ID = len(allMessages)
			allMessages = append(allMessages, msg)
			processedMutations = append(processedMutations, model.ProcessedMutation{
				Mutation:                  mut,
				CalculationMessageIndexes: []int{msg.ID},
			})
			outcome = model.OutcomeFailure
			hasCritical = true
			break
		}

		// Validate
		var msgIndexes []int
		for _, vm := range handler.Validate(&state, &mut) {
			vm.ID = len(allMessages)
			allMessages = append(allMessages, vm)
			msgIndexes = append(msgIndexes, vm.ID)
			if vm.Level == model.LevelCritical {
				hasCritical = true
			}
		}

		if hasCritical {
			outcome = model.OutcomeFailure
			processedMutations = append(processedMutations, model.ProcessedMutation{
				Mutation:                  mut,
				CalculationMessageIndexes: msgIndexes,
			})
			break
		}

		// Apply
		before := state.Clone()
		for _, am := range handler.Apply(&state, &mut) {
			am.ID = len(allMessages)
			allMessages = append(allMessages, am)
			msgIndexes = append(msgIndexes, am.ID)
			if am.Level == model.LevelCritical {
				hasCritical = true
			}
		}

		fwd, bwd, _ := jsonpatch.Between(before, state)
		processedMutations = append(processedMutations, model.ProcessedMutation{
			Mutation:                  mut,
			CalculationMessageIndexes: msgIndexes,
			ForwardPatch:              fwd,
			BackwardPatch:             bwd,
		})

		if hasCritical {
			outcome = model.OutcomeFailure
			break
		}

		committed = state.Clone()
		lastMutationID = mut.MutationID
		lastMutationIndex = i
		lastActualAt = mut.ActualAt
	}

	elapsed := time.Since(start)
	now := time.Now().UTC()

	if allMessages == nil {
		allMessages = []model.CalculationMessage{}
	}

	return &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			SessionID:              req.SessionID,
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
			CalculationOutcome:     outcome,
		},
		CalculationResult: model.CalculationResult{
			Messages:  allMessages,
			Mutations: processedMutations,
			EndSituation: model.SituationEnvelope{
				MutationID:    lastMutationID,
				MutationIndex: lastMutationIndex,
				ActualAt:      lastActualAt,
				Situation:     committed,
			},
			InitialSituation: model.InitialSituation{
				ActualAt:  firstActualAt,
				Situation: initial,
			},
			ChangedKeys: ChangedKeys(initial, committed),
		},
	}
}

// ChangedKeys lists the storage keys whose values differ between a and b.
func ChangedKeys(a, b model.UserInputs) []string {
	fwd, _, err := jsonpatch.Between(a, b)
	if err != nil {
		return nil
	}
	keys := []string{}
	for _, name := range jsonpatch.TopLevelKeys(fwd) {
		if f, ok := model.FieldByName(name); ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
