package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/command-center/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const sessionColumns = `id, user_id, token_digest, expires_at, created_at, revoked_at`

// CreateSession stores a new session keyed by its token digest.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.TokenDigest) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	err := r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, `
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`,
			session.ID, session.UserID, session.TokenDigest,
			formatTime(session.ExpiresAt), formatTime(session.CreatedAt), nullableTime(session.RevokedAt),
		)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by token digest.
func (r *SessionRepository) GetSession(ctx context.Context, tokenDigest string) (persistence.Session, error) {
	if strings.TrimSpace(tokenDigest) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.scanSession(r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_digest = ?`, tokenDigest))
}

// RevokeSession marks the session revoked and returns the updated record.
func (r *SessionRepository) RevokeSession(ctx context.Context, tokenDigest string, revokedAt time.Time) (persistence.Session, error) {
	var session persistence.Session
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx,
			`UPDATE sessions SET revoked_at = ? WHERE token_digest = ? AND revoked_at IS NULL`,
			formatTime(revokedAt), tokenDigest)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := result.RowsAffected(); err != nil {
			return err
		}
		session, err = r.scanSession(r.helper.QueryRowTx(ctx, tx,
			`SELECT `+sessionColumns+` FROM sessions WHERE token_digest = ?`, tokenDigest))
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// DeleteExpiredSessions removes sessions that expired before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	return r.mapper.MapError(err)
}

func (r *SessionRepository) scanSession(row rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var expiresAt, createdAt string
	var revokedAt sql.NullString
	err := row.Scan(&session.ID, &session.UserID, &session.TokenDigest, &expiresAt, &createdAt, &revokedAt)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	if session.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullableTime("revoked_at", revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
