package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

const maxSlugAttempts = 20

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases input and collapses every run of characters outside
// [a-z0-9] into a single hyphen.
func Slugify(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	return strings.Trim(nonSlugChars.ReplaceAllString(lower, "-"), "-")
}

// WorkspaceService resolves the caller's workspace and onboards new ones.
type WorkspaceService struct {
	workspaces  persistence.WorkspaceRepository
	resolver    *MembershipResolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewWorkspaceService constructs a workspace service.
func NewWorkspaceService(workspaces persistence.WorkspaceRepository, resolver *MembershipResolver, idGenerator func() string, now func() time.Time) *WorkspaceService {
	return NewWorkspaceServiceWithLogger(workspaces, resolver, idGenerator, now, nil)
}

// NewWorkspaceServiceWithLogger constructs a workspace service with a specified logger.
func NewWorkspaceServiceWithLogger(workspaces persistence.WorkspaceRepository, resolver *MembershipResolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkspaceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now = storedClock(now)
	return &WorkspaceService{
		workspaces:  workspaces,
		resolver:    resolver,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *WorkspaceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkspaceService", operation, attrs...)
}

// CurrentMembership returns the membership the caller acts in.
func (s *WorkspaceService) CurrentMembership(ctx context.Context, principal Principal) (Membership, error) {
	if s == nil {
		return Membership{}, fmt.Errorf("WorkspaceService is nil")
	}
	return s.resolver.Resolve(ctx, principal)
}

// Memberships lists every workspace the caller belongs to.
func (s *WorkspaceService) Memberships(ctx context.Context, principal Principal) ([]Membership, error) {
	if s == nil {
		return nil, fmt.Errorf("WorkspaceService is nil")
	}
	return s.resolver.Memberships(ctx, principal.UserID)
}

// CreateWorkspace onboards a workspace owned by the caller. Callers that
// already belong to a workspace get ErrAlreadyExists. Without an explicit slug
// one is derived from the name, suffixed until unique.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, params CreateWorkspaceParams) (membership Membership, err error) {
	if s == nil {
		err = fmt.Errorf("WorkspaceService is nil")
		return
	}
	if s.workspaces == nil {
		err = fmt.Errorf("workspace repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateWorkspace", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create workspace", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("workspace_id", membership.WorkspaceID(), "slug", membership.Workspace.Slug).InfoContext(ctx, "workspace created")
	}()

	if strings.TrimSpace(params.Principal.UserID) == "" {
		err = ErrUnauthenticated
		return
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	explicit := strings.TrimSpace(params.Slug) != ""
	slug := Slugify(params.Slug)
	if !explicit {
		slug = Slugify(name)
	}
	if slug == "" && name != "" {
		vErr.add("slug", "slug must contain letters or digits")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	if _, err = s.resolver.Resolve(ctx, Principal{UserID: params.Principal.UserID}); err == nil {
		err = ErrAlreadyExists
		return
	} else if !errors.Is(err, ErrNoWorkspace) {
		return
	}
	err = nil

	slug, err = s.availableSlug(ctx, slug, explicit)
	if err != nil {
		return
	}

	now := s.now()
	workspace := persistence.Workspace{ID: s.idGenerator(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	owner := persistence.Membership{UserID: params.Principal.UserID, Role: string(domain.RoleOwner), JoinedAt: now}
	if err = s.workspaces.CreateWorkspace(ctx, workspace, owner); err != nil {
		err = mapRepoError(err)
		return
	}

	membership = Membership{
		UserID:    params.Principal.UserID,
		Role:      domain.RoleOwner,
		JoinedAt:  now,
		Workspace: toWorkspace(workspace),
	}
	return
}

func (s *WorkspaceService) availableSlug(ctx context.Context, base string, explicit bool) (string, error) {
	candidate := base
	for attempt := 2; attempt <= maxSlugAttempts+1; attempt++ {
		_, err := s.workspaces.GetWorkspaceBySlug(ctx, candidate)
		if errors.Is(err, persistence.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if explicit {
			return "", ErrAlreadyExists
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", ErrAlreadyExists
}
