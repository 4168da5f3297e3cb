package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/camaral-bot/internal/bot/metrics"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/infra/pool"
	"github.com/kart-io/camaral-bot/pkg/response"
)

// VectorStats reports the size of the vector index.
type VectorStats interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// BreakerStates reports circuit breaker states by operation.
type BreakerStates interface {
	States() map[string]string
}

// PoolStats reports worker pool usage.
type PoolStats interface {
	Stats() pool.Stats
}

// StatsHandler serves the operational endpoints.
type StatsHandler struct {
	vectors  VectorStats
	breakers BreakerStates
	workers  PoolStats
}

// NewStatsHandler creates a new StatsHandler. breakers and workers may be nil.
func NewStatsHandler(vectors VectorStats, breakers BreakerStates, workers PoolStats) *StatsHandler {
	return &StatsHandler{vectors: vectors, breakers: breakers, workers: workers}
}

// StatsResponse is the payload of GET /v1/stats.
type StatsResponse struct {
	Metrics     metrics.Snapshot  `json:"metrics"`
	VectorCount int64             `json:"vectorCount"`
	VectorError string            `json:"vectorError,omitempty"`
	Breakers    map[string]string `json:"breakers,omitempty"`
	Pool        *pool.Stats       `json:"pool,omitempty"`
}

// Stats returns counters, index size and dependency states.
func (h *StatsHandler) Stats(c *gin.Context) {
	resp := StatsResponse{Metrics: metrics.Get().Snapshot()}
	if stats, err := h.vectors.Stats(c.Request.Context()); err != nil {
		resp.VectorError = err.Error()
	} else {
		resp.VectorCount = stats.VectorCount
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.States()
	}
	if h.workers != nil {
		s := h.workers.Stats()
		resp.Pool = &s
	}
	response.OK(c, resp)
}

// Metrics exports the counters in Prometheus text format.
func (h *StatsHandler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, metrics.Get().Export("camaral", "bot"))
}

// Healthz is the liveness probe.
func (h *StatsHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
