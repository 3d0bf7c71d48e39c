package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/command-center/internal/persistence"
)

// WorkspaceRepository implements persistence.WorkspaceRepository.
type WorkspaceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewWorkspaceRepository creates a workspace repository.
func NewWorkspaceRepository(pool *ConnectionPool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const workspaceColumns = `w.id, w.name, w.slug, w.created_at, w.updated_at`

// CreateWorkspace inserts the workspace and the owner membership in one transaction.
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, workspace persistence.Workspace, owner persistence.Membership) error {
	if workspace.ID == "" || owner.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	owner.WorkspaceID = workspace.ID

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO workspaces (id, name, slug, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			workspace.ID, workspace.Name, workspace.Slug,
			formatTime(workspace.CreatedAt), formatTime(workspace.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertMember(ctx, tx, owner)
	})
}

// AddMember inserts a membership row.
func (r *WorkspaceRepository) AddMember(ctx context.Context, membership persistence.Membership) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertMember(ctx, tx, membership)
	})
}

func (r *WorkspaceRepository) insertMember(ctx context.Context, tx *sql.Tx, membership persistence.Membership) error {
	_, err := r.helper.ExecTx(ctx, tx, `
		INSERT INTO workspace_users (user_id, workspace_id, role, joined_at)
		VALUES (?, ?, ?, ?)`,
		membership.UserID, membership.WorkspaceID, membership.Role, formatTime(membership.JoinedAt),
	)
	return r.mapper.MapError(err)
}

// GetWorkspace retrieves a workspace by ID.
func (r *WorkspaceRepository) GetWorkspace(ctx context.Context, id string) (persistence.Workspace, error) {
	if id == "" {
		return persistence.Workspace{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces w WHERE w.id = ?`, id)
	return r.scanWorkspace(row)
}

// GetWorkspaceBySlug retrieves a workspace by its unique slug.
func (r *WorkspaceRepository) GetWorkspaceBySlug(ctx context.Context, slug string) (persistence.Workspace, error) {
	if slug == "" {
		return persistence.Workspace{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces w WHERE w.slug = ?`, slug)
	return r.scanWorkspace(row)
}

// ListMemberships returns the user's memberships, earliest joined first.
func (r *WorkspaceRepository) ListMemberships(ctx context.Context, userID string) ([]persistence.MembershipWithWorkspace, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT m.user_id, m.workspace_id, m.role, m.joined_at, `+workspaceColumns+`
		FROM workspace_users m
		JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.user_id = ?
		ORDER BY m.joined_at ASC, m.workspace_id ASC`, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var memberships []persistence.MembershipWithWorkspace
	for rows.Next() {
		membership, err := r.scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return memberships, nil
}

// GetMembership returns the membership of userID in workspaceID.
func (r *WorkspaceRepository) GetMembership(ctx context.Context, userID, workspaceID string) (persistence.MembershipWithWorkspace, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT m.user_id, m.workspace_id, m.role, m.joined_at, `+workspaceColumns+`
		FROM workspace_users m
		JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.user_id = ? AND m.workspace_id = ?`, userID, workspaceID)
	return r.scanMembership(row)
}

func (r *WorkspaceRepository) scanWorkspace(row rowScanner) (persistence.Workspace, error) {
	var workspace persistence.Workspace
	var createdAt, updatedAt string
	if err := row.Scan(&workspace.ID, &workspace.Name, &workspace.Slug, &createdAt, &updatedAt); err != nil {
		return persistence.Workspace{}, r.mapper.MapError(err)
	}
	var err error
	if workspace.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Workspace{}, err
	}
	if workspace.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Workspace{}, err
	}
	return workspace, nil
}

func (r *WorkspaceRepository) scanMembership(row rowScanner) (persistence.MembershipWithWorkspace, error) {
	var m persistence.MembershipWithWorkspace
	var joinedAt, createdAt, updatedAt string
	err := row.Scan(
		&m.UserID, &m.WorkspaceID, &m.Role, &joinedAt,
		&m.Workspace.ID, &m.Workspace.Name, &m.Workspace.Slug, &createdAt, &updatedAt,
	)
	if err != nil {
		return persistence.MembershipWithWorkspace{}, r.mapper.MapError(err)
	}
	if m.JoinedAt, err = parseTime("joined_at", joinedAt); err != nil {
		return persistence.MembershipWithWorkspace{}, err
	}
	if m.Workspace.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.MembershipWithWorkspace{}, err
	}
	if m.Workspace.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.MembershipWithWorkspace{}, err
	}
	return m, nil
}
