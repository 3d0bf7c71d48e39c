package http

import (
	"fmt"
	"log/slog"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Tasks      *TaskHandler
	Projects   *ProjectHandler
	Meetings   *MeetingHandler
	Views      *ViewHandler
	Workspaces *WorkspaceHandler
	Health     *HealthHandler
	Sessions   SessionValidator
	// AllowedOrigins enables CORS with credentials for the listed origins.
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	if cfg.Health != nil {
		r.HandleFunc("/healthz", cfg.Health.Health).Methods(http.MethodGet)
	}

	requireSession := RequireSession(cfg.Sessions, logger)

	// Authenticated routes live on the root router so a method mismatch is
	// reported as 405 instead of falling through a subrouter as 404.
	authed := func(path string, handler http.HandlerFunc, method string) {
		r.Handle(path, requireSession(handler)).Methods(method)
	}

	if cfg.Auth != nil {
		r.HandleFunc("/auth/login", cfg.Auth.Login).Methods(http.MethodGet)
		r.HandleFunc("/auth/callback", cfg.Auth.Callback).Methods(http.MethodGet)
		r.HandleFunc("/auth/logout", cfg.Auth.Logout).Methods(http.MethodPost)
		authed("/auth/me", cfg.Auth.Me, http.MethodGet)
	}

	if cfg.Workspaces != nil {
		authed("/api/workspace", cfg.Workspaces.Current, http.MethodGet)
		authed("/api/workspaces", cfg.Workspaces.List, http.MethodGet)
		authed("/api/workspaces", cfg.Workspaces.Create, http.MethodPost)
	}

	if cfg.Tasks != nil {
		authed("/api/tasks", cfg.Tasks.List, http.MethodGet)
		authed("/api/tasks", cfg.Tasks.Create, http.MethodPost)
		authed("/api/tasks/{id}", cfg.Tasks.Get, http.MethodGet)
		authed("/api/tasks/{id}", cfg.Tasks.Update, http.MethodPatch)
		authed("/api/tasks/{id}", cfg.Tasks.Delete, http.MethodDelete)
	}

	if cfg.Projects != nil {
		authed("/api/projects", cfg.Projects.List, http.MethodGet)
		authed("/api/projects", cfg.Projects.Create, http.MethodPost)
		authed("/api/projects/{id}", cfg.Projects.Get, http.MethodGet)
		authed("/api/projects/{id}", cfg.Projects.Update, http.MethodPatch)
		authed("/api/projects/{id}", cfg.Projects.Delete, http.MethodDelete)
		authed("/api/projects/{id}/board", cfg.Projects.Board, http.MethodGet)
	}

	if cfg.Meetings != nil {
		authed("/api/meetings", cfg.Meetings.List, http.MethodGet)
		authed("/api/meetings", cfg.Meetings.Create, http.MethodPost)
		authed("/api/meetings/{id}", cfg.Meetings.Get, http.MethodGet)
		authed("/api/meetings/{id}", cfg.Meetings.Update, http.MethodPatch)
		authed("/api/meetings/{id}", cfg.Meetings.Delete, http.MethodDelete)
	}

	if cfg.Views != nil {
		authed("/api/dashboard", cfg.Views.Dashboard, http.MethodGet)
		authed("/api/views/meetings", cfg.Views.Meetings, http.MethodGet)
		authed("/api/views/projects", cfg.Views.Projects, http.MethodGet)
		authed("/api/summaries", cfg.Views.ListSummaries, http.MethodGet)
		authed("/api/summaries", cfg.Views.GenerateSummary, http.MethodPost)
	}

	var handler http.Handler = r
	if len(cfg.AllowedOrigins) > 0 {
		handler = gorillahandlers.CORS(
			gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", WorkspaceHeader}),
			gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
			gorillahandlers.AllowedOrigins(cfg.AllowedOrigins),
			gorillahandlers.AllowCredentials(),
		)(handler)
	}
	handler = RequestLogger(logger)(handler)
	handler = gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{logger: logger}),
	)(handler)

	return handler
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.logger.Error("recovered from panic", "panic", fmt.Sprint(args...))
}
