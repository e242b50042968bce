package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Checker probes one dependency. A nil Checker means not configured.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	Checks    map[string]Checker
	Missing   []string
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(checks map[string]Checker, missing []string) *HealthHandler {
	return &HealthHandler{
		Checks:    checks,
		Missing:   missing,
		Version:   "1.0.0",
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names)+1)
	status := "healthy"
	for _, name := range names {
		check := h.Checks[name]
		if check == nil {
			deps[name] = "not configured"
			continue
		}
		if err := check(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	if len(h.Missing) > 0 {
		deps["store"] = "missing " + strings.Join(h.Missing, ", ")
		status = "setup_required"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
