package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// AccessGuard confirms an entity belongs to the caller's workspace before it is
// read, updated or deleted.
type AccessGuard struct {
	resolver *MembershipResolver
	tasks    persistence.TaskRepository
	projects persistence.ProjectRepository
	meetings persistence.MeetingRepository
	logger   *slog.Logger
}

// NewAccessGuard constructs an access guard.
func NewAccessGuard(resolver *MembershipResolver, tasks persistence.TaskRepository, projects persistence.ProjectRepository, meetings persistence.MeetingRepository, logger *slog.Logger) *AccessGuard {
	return &AccessGuard{
		resolver: resolver,
		tasks:    tasks,
		projects: projects,
		meetings: meetings,
		logger:   defaultLogger(logger),
	}
}

// AuthorizeTask loads the task and checks it against the caller's workspace.
func (g *AccessGuard) AuthorizeTask(ctx context.Context, principal Principal, taskID string) (Task, Membership, error) {
	if g == nil || g.tasks == nil {
		return Task{}, Membership{}, fmt.Errorf("task repository not configured")
	}
	return authorize(ctx, g, principal, "task", taskID, func(ctx context.Context, id string) (Task, string, error) {
		model, err := g.tasks.GetTask(ctx, id)
		return toTask(model), model.WorkspaceID, err
	})
}

// AuthorizeProject loads the project and checks it against the caller's workspace.
func (g *AccessGuard) AuthorizeProject(ctx context.Context, principal Principal, projectID string) (Project, Membership, error) {
	if g == nil || g.projects == nil {
		return Project{}, Membership{}, fmt.Errorf("project repository not configured")
	}
	return authorize(ctx, g, principal, "project", projectID, func(ctx context.Context, id string) (Project, string, error) {
		model, err := g.projects.GetProject(ctx, id)
		return toProject(model), model.WorkspaceID, err
	})
}

// AuthorizeMeeting loads the meeting and checks it against the caller's workspace.
func (g *AccessGuard) AuthorizeMeeting(ctx context.Context, principal Principal, meetingID string) (Meeting, Membership, error) {
	if g == nil || g.meetings == nil {
		return Meeting{}, Membership{}, fmt.Errorf("meeting repository not configured")
	}
	return authorize(ctx, g, principal, "meeting", meetingID, func(ctx context.Context, id string) (Meeting, string, error) {
		model, err := g.meetings.GetMeeting(ctx, id)
		return toMeeting(model), model.WorkspaceID, err
	})
}

type entityLoader[T any] func(ctx context.Context, id string) (T, string, error)

// authorize runs the shared check: unknown identity, then existence, then the
// workspace comparison.
func authorize[T any](ctx context.Context, g *AccessGuard, principal Principal, kind, id string, load entityLoader[T]) (entity T, membership Membership, err error) {
	var zero T
	if strings.TrimSpace(principal.UserID) == "" {
		return zero, Membership{}, ErrUnauthenticated
	}
	if strings.TrimSpace(id) == "" {
		return zero, Membership{}, ErrNotFound
	}

	var workspaceID string
	entity, workspaceID, err = load(ctx, id)
	if err != nil {
		return zero, Membership{}, mapRepoError(err)
	}

	membership, err = g.resolver.Resolve(ctx, principal)
	if err != nil && !errors.Is(err, ErrNoWorkspace) {
		return zero, Membership{}, err
	}
	// A caller without a workspace is outside every workspace, so an existing
	// entity is forbidden to them like any cross-workspace read.
	if err != nil || membership.WorkspaceID() != workspaceID {
		serviceLogger(ctx, g.logger, "AccessGuard", "Authorize",
			"principal_id", principal.UserID,
			"entity_kind", kind,
			"entity_id", id,
		).WarnContext(ctx, "cross-workspace access denied", "error_kind", ErrorKind(ErrForbidden))
		return zero, Membership{}, ErrForbidden
	}
	return entity, membership, nil
}
