package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and session cache reachability.
type HealthHandler struct {
	checks    map[string]Pinger
	timeout   time.Duration
	responder responder
	logger    *slog.Logger
}

// NewHealthHandler builds a handler that pings every named dependency. Nil
// pingers are skipped.
func NewHealthHandler(checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	base := defaultLogger(logger)
	filtered := make(map[string]Pinger, len(checks))
	for name, pinger := range checks {
		if pinger != nil {
			filtered[name] = pinger
		}
	}
	return &HealthHandler{checks: filtered, timeout: 2 * time.Second, responder: newResponder(base), logger: base}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			handlerLogger(ctx, h.logger, "HealthHandler", "Health", "check", name).
				WarnContext(ctx, "dependency unhealthy", "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.responder.writeJSON(r.Context(), w, status, resp)
}
