// Package trendregistry resolves average-wage-index trend selections to annual
// wage growth rates from a remote registry, with caching and a fallback rate.
package trendregistry

import (
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 2 * time.Second

type trendResponse struct {
	TrendID    string  `json:"trend_id"`
	GrowthRate float64 `json:"growth_rate"`
}

// Registry looks up growth rates. The zero URL disables remote lookups.
type Registry struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
	cache   sync.Map
}

// New creates a registry for baseURL. An empty baseURL makes every lookup
// return the caller's fallback.
func New(baseURL string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		url: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
		},
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// GrowthRate returns the annual growth rate of trendID. Successful lookups are
// cached; failures return fallback and are retried on the next call.
func (r *Registry) GrowthRate(trendID string, fallback float64) float64 {
	if r == nil || r.url == "" || trendID == "" {
		return fallback
	}
	if rate, ok := r.cache.Load(trendID); ok {
		return rate.(float64)
	}
	rate, ok := r.fetchRate(trendID)
	if !ok {
		return fallback
	}
	r.cache.Store(trendID, rate)
	return rate
}

func (r *Registry) fetchRate(trendID string) (float64, bool) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.url + "/trends/" + trendID)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := r.client.DoTimeout(req, resp, r.timeout); err != nil {
		r.logger.Warn("trend registry request failed", zap.String("trend", trendID), zap.Error(err))
		return 0, false
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		r.logger.Warn("trend registry returned non-200",
			zap.String("trend", trendID), zap.Int("status", resp.StatusCode()))
		return 0, false
	}

	var tr trendResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		r.logger.Warn("trend registry response malformed", zap.String("trend", trendID), zap.Error(err))
		return 0, false
	}
	return tr.GrowthRate, true
}
