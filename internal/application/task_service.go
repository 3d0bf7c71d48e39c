package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

// TaskService scopes task reads and writes to the caller's workspace.
type TaskService struct {
	tasks       persistence.TaskRepository
	resolver    *MembershipResolver
	guard       *AccessGuard
	validator   *MutationValidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService constructs a task service with the provided dependencies.
func NewTaskService(tasks persistence.TaskRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time) *TaskService {
	return NewTaskServiceWithLogger(tasks, resolver, guard, validator, idGenerator, now, nil)
}

// NewTaskServiceWithLogger constructs a task service with a specified logger.
func NewTaskServiceWithLogger(tasks persistence.TaskRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now = storedClock(now)
	if validator == nil {
		validator = NewMutationValidator(nil, nil, nil, nil)
	}
	return &TaskService{
		tasks:       tasks,
		resolver:    resolver,
		guard:       guard,
		validator:   validator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// ListTasks returns the workspace's tasks ordered by priority then newest first.
func (s *TaskService) ListTasks(ctx context.Context, params ListTasksParams) (tasks []Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}
	if s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListTasks", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list tasks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(tasks)).DebugContext(ctx, "tasks listed")
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, params.Principal)
	if err != nil {
		return
	}

	filter := persistence.TaskFilter{
		WorkspaceID: membership.WorkspaceID(),
		ProjectID:   normalizeOptionalString(params.Filter.ProjectID),
		MeetingID:   normalizeOptionalString(params.Filter.MeetingID),
	}
	if raw := normalizeOptionalString(params.Filter.Status); raw != nil {
		status, ok := domain.ParseTaskStatus(*raw)
		if !ok {
			vErr := &ValidationError{}
			vErr.add("status", "status must be one of BACKLOG, TODO, IN_PROGRESS, DONE")
			err = vErr
			return
		}
		value := string(status)
		filter.Status = &value
	}

	var models []persistence.Task
	models, err = s.tasks.ListTasks(ctx, filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	tasks = toTasks(models)
	return
}

// CreateTask validates input and persists a task in the caller's workspace.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (task Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}
	if s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateTask", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID, "workspace_id", task.WorkspaceID).InfoContext(ctx, "task created")
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, params.Principal)
	if err != nil {
		return
	}

	task, err = s.validator.ValidateTaskCreate(ctx, membership.WorkspaceID(), params.Input)
	if err != nil {
		return
	}

	now := s.now()
	task.ID = s.idGenerator()
	task.CreatedByID = params.Principal.UserID
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == domain.StatusDone {
		completed := now
		task.CompletedAt = &completed
	}

	if err = s.tasks.CreateTask(ctx, toPersistenceTask(task)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetTask returns a task of the caller's workspace.
func (s *TaskService) GetTask(ctx context.Context, principal Principal, taskID string) (Task, error) {
	if s == nil {
		return Task{}, fmt.Errorf("TaskService is nil")
	}
	task, _, err := s.guard.AuthorizeTask(ctx, principal, strings.TrimSpace(taskID))
	if err != nil {
		s.loggerWith(ctx, "GetTask", "principal_id", principal.UserID, "task_id", taskID).
			ErrorContext(ctx, "failed to get task", "error", err, "error_kind", ErrorKind(err))
		return Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a task of the caller's workspace.
func (s *TaskService) UpdateTask(ctx context.Context, params UpdateTaskParams) (task Task, err error) {
	if s == nil {
		err = fmt.Errorf("TaskService is nil")
		return
	}
	if s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateTask",
		"principal_id", params.Principal.UserID,
		"task_id", params.TaskID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", task.Status).InfoContext(ctx, "task updated")
	}()

	var existing Task
	existing, _, err = s.guard.AuthorizeTask(ctx, params.Principal, strings.TrimSpace(params.TaskID))
	if err != nil {
		return
	}

	now := s.now()
	task, err = s.validator.ValidateTaskPatch(ctx, existing, params.Patch, now)
	if err != nil {
		return
	}
	task.UpdatedAt = now

	if err = s.tasks.UpdateTask(ctx, toPersistenceTask(task)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// DeleteTask removes a task of the caller's workspace.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID string) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTask",
		"principal_id", principal.UserID,
		"task_id", taskID,
	)

	task, _, err := s.guard.AuthorizeTask(ctx, principal, strings.TrimSpace(taskID))
	if err == nil {
		err = mapRepoError(s.tasks.DeleteTask(ctx, task.ID))
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "task deleted")
	return nil
}
