package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/command-center/internal/persistence"
)

// ProjectService scopes project reads and writes to the caller's workspace.
type ProjectService struct {
	projects    persistence.ProjectRepository
	resolver    *MembershipResolver
	guard       *AccessGuard
	validator   *MutationValidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProjectService constructs a project service with the provided dependencies.
func NewProjectService(projects persistence.ProjectRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time) *ProjectService {
	return NewProjectServiceWithLogger(projects, resolver, guard, validator, idGenerator, now, nil)
}

// NewProjectServiceWithLogger constructs a project service with a specified logger.
func NewProjectServiceWithLogger(projects persistence.ProjectRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now = storedClock(now)
	if validator == nil {
		validator = NewMutationValidator(nil, nil, nil, nil)
	}
	return &ProjectService{
		projects:    projects,
		resolver:    resolver,
		guard:       guard,
		validator:   validator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// ListProjects returns the workspace's projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, principal Principal) (projects []Project, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}
	if s.projects == nil {
		err = fmt.Errorf("project repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListProjects", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list projects", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, principal)
	if err != nil {
		return
	}

	var models []persistence.Project
	models, err = s.projects.ListProjects(ctx, persistence.ProjectFilter{WorkspaceID: membership.WorkspaceID()})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	projects = make([]Project, 0, len(models))
	for _, model := range models {
		projects = append(projects, toProject(model))
	}
	return
}

// CreateProject validates input and persists a project in the caller's workspace.
func (s *ProjectService) CreateProject(ctx context.Context, params CreateProjectParams) (project Project, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}
	if s.projects == nil {
		err = fmt.Errorf("project repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateProject", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("project_id", project.ID, "workspace_id", project.WorkspaceID).InfoContext(ctx, "project created")
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, params.Principal)
	if err != nil {
		return
	}

	project, err = s.validator.ValidateProjectCreate(membership.WorkspaceID(), params.Input)
	if err != nil {
		return
	}
	project.ID = s.idGenerator()
	project.CreatedAt = s.now()
	project.UpdatedAt = project.CreatedAt

	if err = s.projects.CreateProject(ctx, toPersistenceProject(project)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetProject returns a project of the caller's workspace.
func (s *ProjectService) GetProject(ctx context.Context, principal Principal, projectID string) (Project, error) {
	if s == nil {
		return Project{}, fmt.Errorf("ProjectService is nil")
	}
	project, _, err := s.guard.AuthorizeProject(ctx, principal, strings.TrimSpace(projectID))
	if err != nil {
		s.loggerWith(ctx, "GetProject", "principal_id", principal.UserID, "project_id", projectID).
			ErrorContext(ctx, "failed to get project", "error", err, "error_kind", ErrorKind(err))
		return Project{}, err
	}
	return project, nil
}

// UpdateProject applies a partial update to a project of the caller's workspace.
func (s *ProjectService) UpdateProject(ctx context.Context, params UpdateProjectParams) (project Project, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}
	if s.projects == nil {
		err = fmt.Errorf("project repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProject",
		"principal_id", params.Principal.UserID,
		"project_id", params.ProjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "project updated")
	}()

	var existing Project
	existing, _, err = s.guard.AuthorizeProject(ctx, params.Principal, strings.TrimSpace(params.ProjectID))
	if err != nil {
		return
	}

	project, err = s.validator.ValidateProjectPatch(existing, params.Patch)
	if err != nil {
		return
	}
	project.UpdatedAt = s.now()

	if err = s.projects.UpdateProject(ctx, toPersistenceProject(project)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// DeleteProject removes a project of the caller's workspace. Its tasks remain
// in the workspace without a project.
func (s *ProjectService) DeleteProject(ctx context.Context, principal Principal, projectID string) error {
	if s == nil {
		return fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil {
		return fmt.Errorf("project repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteProject",
		"principal_id", principal.UserID,
		"project_id", projectID,
	)

	project, _, err := s.guard.AuthorizeProject(ctx, principal, strings.TrimSpace(projectID))
	if err == nil {
		err = mapRepoError(s.projects.DeleteProject(ctx, project.ID))
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete project", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "project deleted")
	return nil
}
