package handler

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"benefit-estimator/internal/earnings"
	"benefit-estimator/internal/metrics"
	"benefit-estimator/internal/model"
	"benefit-estimator/internal/session"
	"benefit-estimator/internal/userstate"
)

var validate = validator.New()

// Server serves the reconciliation and user state API.
type Server struct {
	states  *userstate.Manager
	logger  *zap.Logger
	now     func() time.Time
	metrics fasthttp.RequestHandler

	keepAlive time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func New(states *userstate.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		states:    states,
		logger:    logger,
		now:       time.Now,
		metrics:   fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
		keepAlive: 15 * time.Second,
		done:      make(chan struct{}),
	}
}

// Close ends open event streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Handle is the fasthttp entrypoint.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := s.route(ctx)
	status := ctx.Response.StatusCode()
	metrics.RequestDuration.
		WithLabelValues(route, strconv.Itoa(status/100)+"xx").
		Observe(time.Since(start).Seconds())
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", status))
	}
}

// route dispatches the request and returns its route label.
func (s *Server) route(ctx *fasthttp.RequestCtx) string {
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	method := string(ctx.Method())

	switch {
	case len(parts) == 1 && parts[0] == "healthz":
		if allow(ctx, method, fasthttp.MethodGet) {
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString("ok")
		}
		return "/healthz"

	case len(parts) == 1 && parts[0] == "metrics":
		if allow(ctx, method, fasthttp.MethodGet) {
			s.metrics(ctx)
		}
		return "/metrics"

	case len(parts) == 1 && parts[0] == "reconcile":
		if allow(ctx, method, fasthttp.MethodPost) {
			s.handleReconcile(ctx)
		}
		return "/reconcile"

	case len(parts) == 1 && parts[0] == "sessions":
		if allow(ctx, method, fasthttp.MethodPost) {
			writeJSON(ctx, fasthttp.StatusCreated, model.SessionResponse{SessionID: userstate.NewSessionID()})
		}
		return "/sessions"
	}

	if len(parts) < 2 || parts[0] != "sessions" || parts[1] == "" {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return "unmatched"
	}
	sid := parts[1]

	switch {
	case len(parts) == 2:
		switch method {
		case fasthttp.MethodGet:
			s.handleSnapshot(ctx, sid)
		case fasthttp.MethodDelete:
			s.handleClear(ctx, sid)
		default:
			allow(ctx, method, fasthttp.MethodGet, fasthttp.MethodDelete)
		}
		return "/sessions/{id}"

	case len(parts) == 3 && parts[2] == "mutations":
		if allow(ctx, method, fasthttp.MethodPost) {
			s.handleMutations(ctx, sid)
		}
		return "/sessions/{id}/mutations"

	case len(parts) == 3 && parts[2] == "events":
		if allow(ctx, method, fasthttp.MethodGet) {
			s.handleEvents(ctx, sid)
		}
		return "/sessions/{id}/events"

	case len(parts) == 4 && parts[2] == "fields":
		switch method {
		case fasthttp.MethodPut:
			s.handleSetField(ctx, sid, parts[3])
		case fasthttp.MethodDelete:
			s.handleResetField(ctx, sid, parts[3])
		default:
			allow(ctx, method, fasthttp.MethodPut, fasthttp.MethodDelete)
		}
		return "/sessions/{id}/fields/{key}"
	}

	writeError(ctx, fasthttp.StatusNotFound, "Not found")
	return "unmatched"
}

func allow(ctx *fasthttp.RequestCtx, method string, allowed ...string) bool {
	for _, m := range allowed {
		if method == m {
			return true
		}
	}
	ctx.Response.Header.Set("Allow", strings.Join(allowed, ", "))
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
	return false
}

func (s *Server) handleReconcile(ctx *fasthttp.RequestCtx) {
	var req model.ReconcileRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	in := earnings.Inputs{
		BirthDate:               req.BirthDate,
		RetireDate:              req.RetireDate,
		ExpectedLastEarningYear: req.ExpectedLastEarningYear,
	}
	rng, ok := earnings.ResolveRange(req.Earnings, in, s.now())
	if !ok {
		metrics.Reconciliations.WithLabelValues(metrics.ResultPassthrough).Inc()
		rec := req.Earnings
		if rec == nil {
			rec = model.EarningsRecord{}
		}
		writeJSON(ctx, fasthttp.StatusOK, model.ReconcileResponse{Earnings: rec})
		return
	}
	metrics.Reconciliations.WithLabelValues(metrics.ResultReconciled).Inc()
	writeJSON(ctx, fasthttp.StatusOK, model.ReconcileResponse{
		Earnings:   earnings.Fill(req.Earnings, rng),
		Range:      rng.Model(),
		Reconciled: true,
	})
}

func (s *Server) handleSnapshot(ctx *fasthttp.RequestCtx, sid string) {
	state, err := s.states.Snapshot(ctx, sid)
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, state)
}

func (s *Server) handleClear(ctx *fasthttp.RequestCtx, sid string) {
	if err := s.states.Clear(ctx, sid); err != nil {
		s.storeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleMutations(ctx *fasthttp.RequestCtx, sid string) {
	var req model.CalculationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one named mutation is required")
		return
	}
	req.SessionID = sid

	resp, err := s.states.Apply(ctx, &req)
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleSetField(ctx *fasthttp.RequestCtx, sid, key string) {
	resp, err := s.states.Set(ctx, sid, key, ctx.PostBody())
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleResetField(ctx *fasthttp.RequestCtx, sid, key string) {
	state, err := s.states.Reset(ctx, sid, key)
	if err != nil {
		s.storeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, state)
}

// storeError maps user state errors onto HTTP statuses.
func (s *Server) storeError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, userstate.ErrUnknownField), errors.Is(err, session.ErrNotFound):
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, userstate.ErrInvalidValue):
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
	default:
		s.logger.Error("user state operation failed", zap.ByteString("path", ctx.Path()), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "Internal error")
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetBody(body)
}
