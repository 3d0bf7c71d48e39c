package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/command-center/internal/application"
)

type viewService interface {
	Dashboard(ctx context.Context, principal application.Principal) (application.Dashboard, error)
	Meetings(ctx context.Context, principal application.Principal) (application.MeetingsOverview, error)
	Projects(ctx context.Context, principal application.Principal) ([]application.ProjectProgress, error)
}

type summaryService interface {
	GenerateSummary(ctx context.Context, principal application.Principal) (application.WeeklySummary, error)
	ListSummaries(ctx context.Context, principal application.Principal, limit int) ([]application.WeeklySummary, error)
}

// ViewHandler serves the read-only aggregate pages and weekly summaries.
type ViewHandler struct {
	views     viewService
	summaries summaryService
	responder responder
}

func NewViewHandler(views viewService, summaries summaryService, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{views: views, summaries: summaries, responder: newResponder(defaultLogger(logger))}
}

func (h *ViewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.views == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	dashboard, err := h.views.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDashboardDTO(dashboard))
}

func (h *ViewHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.views == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	overview, err := h.views.Meetings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingsOverviewDTO{
		Upcoming: toMeetingDTOs(overview.Upcoming),
		Past:     toMeetingDTOs(overview.Past),
	})
}

func (h *ViewHandler) Projects(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.views == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	projects, err := h.views.Projects(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]projectProgressDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectProgressDTO{
			projectDTO: toProjectDTO(p.Project),
			TotalTasks: p.TotalTasks,
			DoneTasks:  p.DoneTasks,
			Progress:   p.Progress,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *ViewHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.summaries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	summaries, err := h.summaries.ListSummaries(r.Context(), principal, limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]summaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSummaryDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *ViewHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.summaries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	summary, err := h.summaries.GenerateSummary(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSummaryDTO(summary))
}
