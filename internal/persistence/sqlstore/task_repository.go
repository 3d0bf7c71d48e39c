package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository.
type TaskRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const taskColumns = `id, workspace_id, project_id, owner_id, created_by_id, meeting_id, title, description,
	priority, status, due_date, completed_at, created_at, updated_at`

const priorityRank = `CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 WHEN 'LOW' THEN 1 ELSE 0 END`

// CreateTask inserts a new task.
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.WorkspaceID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.WorkspaceID,
		nullableString(task.ProjectID), nullableString(task.OwnerID), task.CreatedByID, nullableString(task.MeetingID),
		task.Title, nullableString(task.Description), task.Priority, task.Status,
		nullableTime(task.DueDate), nullableTime(task.CompletedAt),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateTask updates the mutable columns of a task. Workspace and creator never change.
func (r *TaskRepository) UpdateTask(ctx context.Context, task persistence.Task) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE tasks
		SET project_id = ?, owner_id = ?, meeting_id = ?, title = ?, description = ?,
			priority = ?, status = ?, due_date = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		nullableString(task.ProjectID), nullableString(task.OwnerID), nullableString(task.MeetingID),
		task.Title, nullableString(task.Description), task.Priority, task.Status,
		nullableTime(task.DueDate), nullableTime(task.CompletedAt), formatTime(task.UpdatedAt),
		task.ID,
	)
	return requireAffected(result, r.mapper.MapError(err))
}

// GetTask retrieves a task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return r.scanTask(r.helper.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

// ListTasks lists a workspace's tasks in the requested order.
func (r *TaskRepository) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]persistence.Task, error) {
	conditions := []string{"workspace_id = ?"}
	args := []any{filter.WorkspaceID}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.MeetingID != nil {
		conditions = append(conditions, "meeting_id = ?")
		args = append(args, *filter.MeetingID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	order := priorityRank + ` DESC, created_at DESC, id ASC`
	if filter.Order == persistence.TaskOrderCreated {
		order = `created_at ASC, id ASC`
	}

	rows, err := r.helper.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+
		strings.Join(conditions, " AND ")+` ORDER BY `+order, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return tasks, nil
}

// DeleteTask removes a task by ID.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return requireAffected(result, r.mapper.MapError(err))
}

func (r *TaskRepository) scanTask(row rowScanner) (persistence.Task, error) {
	var task persistence.Task
	var projectID, ownerID, meetingID, description, dueDate, completedAt sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&task.ID, &task.WorkspaceID, &projectID, &ownerID, &task.CreatedByID, &meetingID,
		&task.Title, &description, &task.Priority, &task.Status, &dueDate, &completedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	task.ProjectID = stringPtr(projectID)
	task.OwnerID = stringPtr(ownerID)
	task.MeetingID = stringPtr(meetingID)
	task.Description = stringPtr(description)
	if task.DueDate, err = parseNullableTime("due_date", dueDate); err != nil {
		return persistence.Task{}, err
	}
	if task.CompletedAt, err = parseNullableTime("completed_at", completedAt); err != nil {
		return persistence.Task{}, err
	}
	if task.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Task{}, err
	}
	if task.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Task{}, err
	}
	return task, nil
}
