package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"promomarket/pkg/logger"
)

// HealthCheck проверяет одну зависимость
type HealthCheck func(ctx context.Context) error

// HealthCheckHandler обслуживает /health, /health/readiness и /health/liveness.
// Критичные проверки влияют на статус, предупреждения только попадают в ответ.
type HealthCheckHandler struct {
	critical map[string]HealthCheck
	warnings map[string]HealthCheck
	now      func() time.Time
}

func NewHealthCheckHandler(critical, warnings map[string]HealthCheck) *HealthCheckHandler {
	if critical == nil {
		critical = map[string]HealthCheck{}
	}
	if warnings == nil {
		warnings = map[string]HealthCheck{}
	}
	return &HealthCheckHandler{
		critical: critical,
		warnings: warnings,
		now:      time.Now,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.critical)+len(h.warnings))
	overallStatus := "healthy"

	for name, check := range h.critical {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	for name, check := range h.warnings {
		if err := check(ctx); err != nil {
			checks[name] = "warning: " + err.Error()
		} else {
			checks[name] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: h.now(),
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Warn().Err(err).Msg("Failed to encode health response")
	}
}

// Readiness проверяет критичные зависимости в фиксированном порядке
func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.critical))
	for name := range h.critical {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.critical[name](ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/readiness", h.Readiness)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
