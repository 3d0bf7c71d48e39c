package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/command-center/internal/application"
)

type projectService interface {
	ListProjects(ctx context.Context, principal application.Principal) ([]application.Project, error)
	CreateProject(ctx context.Context, params application.CreateProjectParams) (application.Project, error)
	GetProject(ctx context.Context, principal application.Principal, projectID string) (application.Project, error)
	UpdateProject(ctx context.Context, params application.UpdateProjectParams) (application.Project, error)
	DeleteProject(ctx context.Context, principal application.Principal, projectID string) error
}

type boardService interface {
	Board(ctx context.Context, principal application.Principal, projectID string) (application.Board, error)
}

type ProjectHandler struct {
	service   projectService
	boards    boardService
	responder responder
	logger    *slog.Logger
}

func NewProjectHandler(service projectService, boards boardService, logger *slog.Logger) *ProjectHandler {
	base := defaultLogger(logger)
	return &ProjectHandler{service: service, boards: boards, responder: newResponder(base), logger: base}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	projects, err := h.service.ListProjects(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]projectDTO, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectDTO(project))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "ProjectHandler", "Create", "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode project request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	project, err := h.service.CreateProject(r.Context(), application.CreateProjectParams{Principal: principal, Input: req.toInput()})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toProjectDTO(project))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	project, err := h.service.GetProject(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "ProjectHandler", "Update", "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode project patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	project, err := h.service.UpdateProject(r.Context(), application.UpdateProjectParams{
		Principal: principal,
		ProjectID: id,
		Patch:     req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteProject(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

// Board renders the project's kanban columns.
func (h *ProjectHandler) Board(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.boards == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	board, err := h.boards.Board(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBoardDTO(board))
}
