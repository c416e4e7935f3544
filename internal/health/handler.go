// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 3 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type namedChecker struct {
	name    string
	checker Checker
}

type Handler struct {
	checks   []namedChecker
	started  time.Time
	version  string
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(version string) *Handler {
	h := &Handler{
		started: time.Now(),
		version: version,
	}
	h.ready.Store(true)
	return h
}

// AddCheck registers a dependency that /readyz must reach. A nil checker
// is reported as not configured.
func (h *Handler) AddCheck(name string, c Checker) *Handler {
	h.checks = append(h.checks, namedChecker{name: name, checker: c})
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	writeStatus(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	if !h.ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "not_ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	results := h.runChecks(ctx)

	status, code := "ok", http.StatusOK
	for _, res := range results {
		if !res.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	writeStatus(w, code, ReadinessResponse{Status: status, Checks: results})
}

func (h *Handler) runChecks(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(h.checks))

	var wg sync.WaitGroup
	for i, nc := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = check(ctx, nc)
		}()
	}
	wg.Wait()

	return results
}

func check(ctx context.Context, nc namedChecker) CheckResult {
	res := CheckResult{Name: nc.name, Healthy: true}

	if nc.checker == nil {
		res.Healthy = false
		res.Message = "not configured"
		return res
	}

	start := time.Now()
	err := nc.checker.Ping(ctx)
	res.Latency = time.Since(start).String()

	if err != nil {
		res.Healthy = false
		res.Message = "ping failed"
	}

	return res
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}
