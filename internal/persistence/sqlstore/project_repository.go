package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository.
type ProjectRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewProjectRepository creates a project repository.
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const projectColumns = `id, workspace_id, name, description, color, status, created_at, updated_at`

// CreateProject inserts a new project.
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.WorkspaceID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.WorkspaceID, project.Name,
		nullableString(project.Description), nullableString(project.Color), project.Status,
		formatTime(project.CreatedAt), formatTime(project.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateProject updates the mutable columns of a project. The workspace never changes.
func (r *ProjectRepository) UpdateProject(ctx context.Context, project persistence.Project) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE projects
		SET name = ?, description = ?, color = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, nullableString(project.Description), nullableString(project.Color),
		project.Status, formatTime(project.UpdatedAt), project.ID,
	)
	return requireAffected(result, r.mapper.MapError(err))
}

// GetProject retrieves a project by ID.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return r.scanProject(r.helper.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
}

// ListProjects lists a workspace's projects, newest first.
func (r *ProjectRepository) ListProjects(ctx context.Context, filter persistence.ProjectFilter) ([]persistence.Project, error) {
	conditions := []string{"workspace_id = ?"}
	args := []any{filter.WorkspaceID}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	rows, err := r.helper.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+
		strings.Join(conditions, " AND ")+` ORDER BY created_at DESC, id ASC`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return projects, nil
}

// DeleteProject removes the project. Its tasks remain with project_id cleared.
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx, `UPDATE tasks SET project_id = NULL WHERE project_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM projects WHERE id = ?`, id)
		return requireAffected(result, r.mapper.MapError(err))
	})
}

func (r *ProjectRepository) scanProject(row rowScanner) (persistence.Project, error) {
	var project persistence.Project
	var description, color sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&project.ID, &project.WorkspaceID, &project.Name, &description, &color,
		&project.Status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Project{}, r.mapper.MapError(err)
	}
	project.Description = stringPtr(description)
	project.Color = stringPtr(color)
	if project.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Project{}, err
	}
	if project.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}
