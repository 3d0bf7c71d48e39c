package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/command-center/internal/application"
)

type workspaceService interface {
	CurrentMembership(ctx context.Context, principal application.Principal) (application.Membership, error)
	Memberships(ctx context.Context, principal application.Principal) ([]application.Membership, error)
	CreateWorkspace(ctx context.Context, params application.CreateWorkspaceParams) (application.Membership, error)
}

type WorkspaceHandler struct {
	service   workspaceService
	responder responder
	logger    *slog.Logger
}

func NewWorkspaceHandler(service workspaceService, logger *slog.Logger) *WorkspaceHandler {
	base := defaultLogger(logger)
	return &WorkspaceHandler{service: service, responder: newResponder(base), logger: base}
}

// Current returns the membership the caller acts in.
func (h *WorkspaceHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	membership, err := h.service.CurrentMembership(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMembershipDTO(membership))
}

// List returns every membership of the caller.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	memberships, err := h.service.Memberships(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]membershipDTO, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, toMembershipDTO(m))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req workspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "WorkspaceHandler", "Create", "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode workspace request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	membership, err := h.service.CreateWorkspace(r.Context(), application.CreateWorkspaceParams{
		Principal: principal,
		Name:      req.Name,
		Slug:      req.Slug,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMembershipDTO(membership))
}
