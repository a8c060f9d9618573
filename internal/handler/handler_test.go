package handler

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap/zaptest"

	"benefit-estimator/internal/model"
	"benefit-estimator/internal/session"
	"benefit-estimator/internal/userstate"
)

var testNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

type testServer struct {
	ln     *fasthttputil.InmemoryListener
	client *fasthttp.Client
	states *userstate.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := session.NewMemoryStore(time.Hour, 0)
	states := userstate.New(store,
		userstate.WithLogger(logger),
		userstate.WithClock(func() time.Time { return testNow }))

	srv := New(states, logger)
	srv.now = func() time.Time { return testNow }

	ln := fasthttputil.NewInmemoryListener()
	hs := &fasthttp.Server{Handler: srv.Handle}
	go hs.Serve(ln)

	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.ShutdownWithContext(ctx)
		store.Close()
	})

	return &testServer{
		ln:     ln,
		states: states,
		client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://estimator" + path)
	req.Header.SetMethod(method)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	require.NoError(t, ts.client.DoTimeout(req, resp, 5*time.Second))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodGet, "/healthz", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, _ = ts.do(t, fasthttp.MethodPost, "/healthz", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, status)

	status, body = ts.do(t, fasthttp.MethodGet, "/nowhere", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Equal(t, fasthttp.StatusNotFound, decode[model.ErrorResponse](t, body).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, fasthttp.MethodGet, "/healthz", "")

	status, body := ts.do(t, fasthttp.MethodGet, "/metrics", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, string(body), "benefit_estimator_http_request_duration_seconds")
}

func TestReconcile(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPost, "/reconcile", `{
		"earnings": {"1985": 20000, "1986": 21000},
		"birth_date": "1960-01-01",
		"retire_date": "2025-01-01"
	}`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))

	resp := decode[model.ReconcileResponse](t, body)
	assert.True(t, resp.Reconciled)
	require.NotNil(t, resp.Range)
	assert.Equal(t, 1985, resp.Range.StartEmploymentYear)
	assert.Equal(t, 2025, resp.Range.EndYear)
	assert.Len(t, resp.Earnings, 41)
	assert.Equal(t, 21000.0, resp.Earnings[1986])
	assert.Zero(t, resp.Earnings[2025])
}

func TestReconcileExpectedLastEarningYear(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPost, "/reconcile", `{
		"earnings": {},
		"birth_date": "1955-01-01",
		"expected_last_earning_year": 2020
	}`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))

	resp := decode[model.ReconcileResponse](t, body)
	assert.Equal(t, 1973, resp.Range.StartEmploymentYear)
	assert.Equal(t, 2020, resp.Range.EndYear)
	assert.Equal(t, "2020-10-18", resp.Range.CleanRetireDate.String())
}

func TestReconcilePassthrough(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPost, "/reconcile", `{"earnings": {"2000": 500}}`)
	require.Equal(t, fasthttp.StatusOK, status)

	resp := decode[model.ReconcileResponse](t, body)
	assert.False(t, resp.Reconciled)
	assert.Nil(t, resp.Range)
	assert.Equal(t, model.EarningsRecord{2000: 500}, resp.Earnings)
}

func TestReconcileRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, fasthttp.MethodPost, "/reconcile", `{"earnings": [1, 2]}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, _ = ts.do(t, fasthttp.MethodPost, "/reconcile", `{"birth_date": "1960-01-01", "expected_last_earning_year": 12}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	for _, req := range []string{
		`{"birth_date": "1960-01-01", "earnings": {"-9223372036854775808": 1}}`,
		`{"birth_date": "1960-01-01", "earnings": {"-3000000": 1}}`,
		`{"earnings": {"1899": 1}}`,
		`{"earnings": {"10000": 1}}`,
		`{"earnings": {"1990": -1}}`,
	} {
		status, _ := ts.do(t, fasthttp.MethodPost, "/reconcile", req)
		assert.Equal(t, fasthttp.StatusBadRequest, status, req)
	}
}

func TestSetFieldRejectsOutOfRangeEarningsYear(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPut, "/sessions/s1/fields/earnings", `{"-9223372036854775808": 1}`)
	require.Equal(t, fasthttp.StatusOK, status)
	resp := decode[model.CalculationResponse](t, body)
	assert.Equal(t, model.OutcomeFailure, resp.CalculationMetadata.CalculationOutcome)
	assert.Equal(t, model.CodeInvalidEarningsYear, resp.CalculationResult.Messages[0].Code)

	status, body = ts.do(t, fasthttp.MethodGet, "/sessions/s1", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Nil(t, decode[model.UserState](t, body).Earnings)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPost, "/sessions", "")
	require.Equal(t, fasthttp.StatusCreated, status)
	sid := decode[model.SessionResponse](t, body).SessionID
	require.NotEmpty(t, sid)

	status, body = ts.do(t, fasthttp.MethodPut, "/sessions/"+sid+"/fields/BirthDate", `"1960-01-01"`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))
	assert.Equal(t, model.OutcomeSuccess, decode[model.CalculationResponse](t, body).CalculationMetadata.CalculationOutcome)

	status, body = ts.do(t, fasthttp.MethodPut, "/sessions/"+sid+"/fields/earnings", `{"1990": 100}`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))

	status, body = ts.do(t, fasthttp.MethodGet, "/sessions/"+sid, "")
	require.Equal(t, fasthttp.StatusOK, status)
	state := decode[model.UserState](t, body)
	require.NotNil(t, state.EarningsRange)
	assert.Equal(t, 1990, state.EarningsRange.StartEmploymentYear)
	assert.Equal(t, 2026, state.EarningsRange.EndYear)
	assert.Equal(t, 100.0, state.Earnings[1990])

	status, body = ts.do(t, fasthttp.MethodDelete, "/sessions/"+sid+"/fields/earnings", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Nil(t, decode[model.UserState](t, body).Earnings)

	status, _ = ts.do(t, fasthttp.MethodDelete, "/sessions/"+sid, "")
	assert.Equal(t, fasthttp.StatusNoContent, status)

	status, _ = ts.do(t, fasthttp.MethodDelete, "/sessions/"+sid, "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestSetFieldErrors(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, fasthttp.MethodPut, "/sessions/s1/fields/shoeSize", `42`)
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, _ = ts.do(t, fasthttp.MethodPut, "/sessions/s1/fields/Year62", `{broken`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, body := ts.do(t, fasthttp.MethodPut, "/sessions/s1/fields/earningsFormat", `"CSV"`)
	require.Equal(t, fasthttp.StatusOK, status)
	resp := decode[model.CalculationResponse](t, body)
	assert.Equal(t, model.OutcomeFailure, resp.CalculationMetadata.CalculationOutcome)
	assert.Equal(t, model.CodeInvalidFieldValue, resp.CalculationResult.Messages[0].Code)
}

func TestMutationBatch(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, fasthttp.MethodPost, "/sessions/s1/mutations", `{
		"calculation_instructions": {"mutations": [
			{"mutation_id": "m1", "mutation_definition_name": "set_birth_date", "actual_at": "2026-10-18", "mutation_properties": {"value": "1960-01-01"}},
			{"mutation_id": "m2", "mutation_definition_name": "set_retire_date", "actual_at": "2026-10-18", "mutation_properties": {"value": "2027-03-01"}}
		]}
	}`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))

	resp := decode[model.CalculationResponse](t, body)
	assert.Equal(t, "s1", resp.CalculationMetadata.SessionID)
	assert.Equal(t, model.OutcomeSuccess, resp.CalculationMetadata.CalculationOutcome)
	require.NotNil(t, resp.CalculationResult.State)
	assert.Equal(t, 67, *resp.CalculationResult.State.FullRetirementAgeYearsOnly)
	assert.Equal(t, 2, *resp.CalculationResult.State.FullRetirementAgeMonthsOnly)

	status, _ = ts.do(t, fasthttp.MethodPost, "/sessions/s1/mutations", `{"calculation_instructions": {"mutations": []}}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)

	conn, err := ts.ln.Dial()
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte("GET /sessions/s1/events HTTP/1.1\r\nHost: estimator\r\n\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	nextState := func() model.UserState {
		t.Helper()
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data: "); ok {
				return decode[model.UserState](t, []byte(data))
			}
		}
	}

	initial := nextState()
	assert.Nil(t, initial.HaveEarnings)

	_, err = ts.states.Set(context.Background(), "s1", model.KeyHaveEarnings, []byte(`true`))
	require.NoError(t, err)

	updated := nextState()
	require.NotNil(t, updated.HaveEarnings)
	assert.True(t, *updated.HaveEarnings)
}
