package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// MembershipStore exposes the membership lookups used to resolve workspaces.
type MembershipStore interface {
	ListMemberships(ctx context.Context, userID string) ([]persistence.MembershipWithWorkspace, error)
	GetMembership(ctx context.Context, userID, workspaceID string) (persistence.MembershipWithWorkspace, error)
}

// MembershipResolver maps an authenticated user to the workspace they act in.
type MembershipResolver struct {
	store  MembershipStore
	logger *slog.Logger
}

// NewMembershipResolver constructs a resolver over store.
func NewMembershipResolver(store MembershipStore, logger *slog.Logger) *MembershipResolver {
	return &MembershipResolver{store: store, logger: defaultLogger(logger)}
}

// Resolve returns the principal's membership. With a selected workspace the
// membership of exactly that workspace is returned; otherwise the earliest
// joined membership wins.
func (r *MembershipResolver) Resolve(ctx context.Context, principal Principal) (Membership, error) {
	if r == nil {
		return Membership{}, fmt.Errorf("MembershipResolver is nil")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return Membership{}, ErrUnauthenticated
	}
	if selected := strings.TrimSpace(principal.WorkspaceID); selected != "" {
		return r.ResolveSelected(ctx, principal.UserID, selected)
	}
	return r.resolveFirst(ctx, principal.UserID)
}

// ResolveSelected returns the membership of userID in workspaceID, or
// ErrNoWorkspace when the user does not belong to it.
func (r *MembershipResolver) ResolveSelected(ctx context.Context, userID, workspaceID string) (Membership, error) {
	if r == nil || r.store == nil {
		return Membership{}, fmt.Errorf("membership store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Membership{}, ErrUnauthenticated
	}
	model, err := r.store.GetMembership(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Membership{}, ErrNoWorkspace
		}
		serviceLogger(ctx, r.logger, "MembershipResolver", "ResolveSelected", "user_id", userID, "workspace_id", workspaceID).
			ErrorContext(ctx, "failed to load membership", "error", err, "error_kind", ErrorKind(err))
		return Membership{}, err
	}
	return toMembership(model), nil
}

// Memberships lists every workspace the user belongs to, earliest joined first.
func (r *MembershipResolver) Memberships(ctx context.Context, userID string) ([]Membership, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("membership store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	models, err := r.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships := make([]Membership, 0, len(models))
	for _, model := range models {
		memberships = append(memberships, toMembership(model))
	}
	return memberships, nil
}

func (r *MembershipResolver) resolveFirst(ctx context.Context, userID string) (Membership, error) {
	memberships, err := r.Memberships(ctx, userID)
	if err != nil {
		serviceLogger(ctx, r.logger, "MembershipResolver", "Resolve", "user_id", userID).
			ErrorContext(ctx, "failed to list memberships", "error", err, "error_kind", ErrorKind(err))
		return Membership{}, err
	}
	if len(memberships) == 0 {
		return Membership{}, ErrNoWorkspace
	}
	return memberships[0], nil
}
