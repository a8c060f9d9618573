// Package userstate keeps the user's inputs in session storage and derives the
// read-only snapshot consumers see.
//
// Writes go through the mutation engine, so every path validates the same way.
// Derived values (full retirement age, the reconciled earnings record, the
// wage growth rate) are computed on every read from the stored raw inputs and
// are never persisted, so they cannot go stale when a date changes after the
// earnings were entered.
package userstate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"benefit-estimator/internal/engine"
	"benefit-estimator/internal/model"
	"benefit-estimator/internal/session"
)

var (
	// ErrUnknownField is returned when a write names a key that is not a field.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a written value is not valid JSON.
	ErrInvalidValue = errors.New("invalid JSON value")
)

// GrowthRater resolves a wage trend selection to an annual growth rate.
type GrowthRater interface {
	GrowthRate(trendID string, fallback float64) float64
}

const lockStripes = 64

// Manager is the user state store. Construct one at start-up and share it.
type Manager struct {
	store  session.Store
	trends GrowthRater
	logger *zap.Logger
	now    func() time.Time

	locks [lockStripes]sync.Mutex

	subsMu sync.Mutex
	subs   map[string]map[*subscription]struct{}
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithGrowthRater(g GrowthRater) Option {
	return func(m *Manager) { m.trends = g }
}

// WithClock replaces time.Now, which supplies defaults and date derivations.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(store session.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
		subs:   make(map[string]map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &m.locks[h.Sum32()%lockStripes]
}

// Inputs loads the raw inputs of a session, applying defaults to fields that
// were never written. Values that fail to decode are logged and treated as unset.
func (m *Manager) Inputs(ctx context.Context, sessionID string) (model.UserInputs, error) {
	stored, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return model.UserInputs{}, fmt.Errorf("load inputs: %w", err)
	}

	var in model.UserInputs
	now := m.now()
	for i := range model.Fields {
		f := &model.Fields[i]
		raw, ok := stored[f.Key]
		if !ok {
			if f.Default != nil {
				f.Default(&in, now)
			}
			continue
		}
		if err := f.Decode(&in, raw); err != nil {
			m.logger.Warn("discarding undecodable stored value",
				zap.String("session", sessionID), zap.String("key", f.Key), zap.Error(err))
			f.Decode(&in, []byte("null"))
		}
	}
	return in, nil
}

// Snapshot loads a session and derives its read-only state.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (model.UserState, error) {
	in, err := m.Inputs(ctx, sessionID)
	if err != nil {
		return model.UserState{}, err
	}
	return m.Derive(in), nil
}

// Apply runs a mutation batch against the session. The batch is all or
// nothing: only a SUCCESS outcome is persisted and published.
func (m *Manager) Apply(ctx context.Context, req *model.CalculationRequest) (*model.CalculationResponse, error) {
	mu := m.lock(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	initial, err := m.Inputs(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	resp := engine.Process(initial, req)
	recordOutcome(resp)

	end := resp.CalculationResult.EndSituation.Situation
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		state := m.Derive(initial)
		resp.CalculationResult.State = &state
		m.logger.Info("mutation batch rejected",
			zap.String("session", req.SessionID),
			zap.String("calculation", resp.CalculationMetadata.CalculationID),
			zap.Int("messages", len(resp.CalculationResult.Messages)))
		return resp, nil
	}

	if keys := resp.CalculationResult.ChangedKeys; len(keys) > 0 {
		values := make(map[string][]byte, len(keys))
		for _, key := range keys {
			f, _ := model.FieldByKey(key)
			raw, err := f.Encode(&end)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", key, err)
			}
			values[key] = raw
		}
		if err := m.store.Put(ctx, req.SessionID, values); err != nil {
			return nil, fmt.Errorf("persist inputs: %w", err)
		}
	}

	state := m.Derive(end)
	resp.CalculationResult.State = &state
	m.logger.Debug("mutation batch applied",
		zap.String("session", req.SessionID),
		zap.String("calculation", resp.CalculationMetadata.CalculationID),
		zap.Strings("changed", resp.CalculationResult.ChangedKeys))

	if len(resp.CalculationResult.ChangedKeys) > 0 {
		m.publish(req.SessionID, state)
	}
	return resp, nil
}

// Set writes one field, given its storage key and raw JSON value.
func (m *Manager) Set(ctx context.Context, sessionID, key string, value []byte) (*model.CalculationResponse, error) {
	f, ok := model.FieldByKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if !json.Valid(value) {
		return nil, fmt.Errorf("%w for %s", ErrInvalidValue, key)
	}
	props, err := json.Marshal(struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}{Field: key, Value: value})
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	return m.Apply(ctx, &model.CalculationRequest{
		SessionID: sessionID,
		CalculationInstructions: model.CalculationInstructions{
			Mutations: []model.Mutation{{
				MutationID:             uuid.NewString(),
				MutationDefinitionName: f.Mutation,
				ActualAt:               m.now().UTC().Format(model.DateLayout),
				MutationProperties:     props,
			}},
		},
	})
}

func (m *Manager) setValue(ctx context.Context, sessionID, key string, v any) (*model.CalculationResponse, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return m.Set(ctx, sessionID, key, raw)
}

// SetBirthDate stores the birth date; nil clears it.
func (m *Manager) SetBirthDate(ctx context.Context, sessionID string, d *model.Date) (*model.CalculationResponse, error) {
	return m.setValue(ctx, sessionID, model.KeyBirthDate, d)
}

// SetRetireDate stores the retirement date; nil clears it.
func (m *Manager) SetRetireDate(ctx context.Context, sessionID string, d *model.Date) (*model.CalculationResponse, error) {
	return m.setValue(ctx, sessionID, model.KeyRetireDate, d)
}

// SetEarnings stores the raw earnings record; nil clears it.
func (m *Manager) SetEarnings(ctx context.Context, sessionID string, rec model.EarningsRecord) (*model.CalculationResponse, error) {
	return m.setValue(ctx, sessionID, model.KeyEarnings, rec)
}

func (m *Manager) SetExpectedLastEarningYear(ctx context.Context, sessionID string, year *int) (*model.CalculationResponse, error) {
	return m.setValue(ctx, sessionID, model.KeyExpectedLastEarningYear, year)
}

// Reset removes the given keys so they fall back to their defaults.
func (m *Manager) Reset(ctx context.Context, sessionID string, keys ...string) (model.UserState, error) {
	for _, key := range keys {
		if _, ok := model.FieldByKey(key); !ok {
			return model.UserState{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
	}

	mu := m.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := m.store.Remove(ctx, sessionID, keys...); err != nil {
		return model.UserState{}, fmt.Errorf("reset fields: %w", err)
	}
	state, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return model.UserState{}, err
	}
	m.publish(sessionID, state)
	return state, nil
}

// Clear drops every stored field of the session.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	mu := m.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	var defaults model.UserInputs
	now := m.now()
	for _, f := range model.Fields {
		if f.Default != nil {
			f.Default(&defaults, now)
		}
	}
	m.publish(sessionID, m.Derive(defaults))
	return nil
}
