package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// ReadinessCheck checks a backing dependency. A nil error marks it ready.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	version   string
	startedAt time.Time
	clock     func() time.Time
	checks    map[string]ReadinessCheck
}

// HealthOption customises HealthHandlers construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers builds the health endpoints with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		version: "dev",
		clock:   time.Now,
		checks:  map[string]ReadinessCheck{},
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.startedAt.IsZero() {
		h.startedAt = h.clock()
	}

	return h
}

// WithHealthVersion records the build version reported by the endpoints.
func WithHealthVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		if version != "" {
			h.version = version
		}
	}
}

// WithHealthClock overrides the time source, used by tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadinessCheck registers a named dependency check for /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	writeJSONResponse(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(h.startedAt).Truncate(time.Second).String(),
	})
}

// Readyz runs every registered dependency check and reports the aggregate.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	resp := healthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(h.startedAt).Truncate(time.Second).String(),
		Checks:    map[string]string{},
	}

	status := http.StatusOK
	for _, name := range sortedCheckNames(h.checks) {
		if err := h.checks[name](r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSONResponse(w, status, resp)
}

func sortedCheckNames(checks map[string]ReadinessCheck) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
