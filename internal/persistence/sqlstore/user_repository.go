package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const userColumns = `id, name, email, image, external_id, created_at, updated_at`

// CreateUser inserts a new user. Emails are stored lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, normalizeEmail(user.Email),
		nullableString(user.Image), nullableString(user.ExternalID),
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser updates profile fields of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	result, err := r.helper.Exec(ctx, `
		UPDATE users
		SET name = ?, email = ?, image = ?, external_id = ?, updated_at = ?
		WHERE id = ?`,
		user.Name, normalizeEmail(user.Email),
		nullableString(user.Image), nullableString(user.ExternalID),
		formatTime(user.UpdatedAt), user.ID,
	)
	return requireAffected(result, r.mapper.MapError(err))
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.scanUser(r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if strings.TrimSpace(email) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.scanUser(r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)))
}

// GetUserByExternalID retrieves a user by identity provider ID.
func (r *UserRepository) GetUserByExternalID(ctx context.Context, externalID string) (persistence.User, error) {
	if externalID == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.scanUser(r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID))
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var image, externalID sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &image, &externalID, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	user.Image = stringPtr(image)
	user.ExternalID = stringPtr(externalID)
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requireAffected converts a zero-row update or delete into ErrNotFound.
func requireAffected(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
