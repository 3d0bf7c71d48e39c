package application

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/command-center/internal/persistence"
)

var (
	// ErrInvalidLogin is returned when the identity provider rejects a login attempt.
	ErrInvalidLogin = errors.New("application: invalid login")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrCacheMiss is returned by a SessionCache that holds no entry for a digest.
	ErrCacheMiss = errors.New("application: session cache miss")
)

// IdentityProvider delegates authentication to an external service.
type IdentityProvider interface {
	AuthorizationURL(state string) (string, error)
	Authenticate(ctx context.Context, code string) (Identity, error)
}

// CachedSession is the validated session state kept in a SessionCache.
// A Revoked entry marks a logged out token until its original expiry.
type CachedSession struct {
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
}

// SessionCache keeps validated sessions close to the request path.
//
// Add must not replace an existing entry, so a lookup that raced a logout
// cannot overwrite the revocation marker. Revoke always replaces the entry.
type SessionCache interface {
	Get(ctx context.Context, digest string) (CachedSession, error)
	Add(ctx context.Context, digest string, session CachedSession, ttl time.Duration) error
	Revoke(ctx context.Context, digest string, ttl time.Duration) error
}

// AuthService coordinates login through the identity provider and the session lifecycle.
type AuthService struct {
	provider       IdentityProvider
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	cache          SessionCache
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// AuthServiceConfig groups the AuthService dependencies. Cache is optional.
type AuthServiceConfig struct {
	Provider       IdentityProvider
	Users          persistence.UserRepository
	Sessions       persistence.SessionRepository
	Cache          SessionCache
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.TokenGenerator == nil {
		cfg.TokenGenerator = cfg.IDGenerator
	}
	cfg.Now = storedClock(cfg.Now)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	return &AuthService{
		provider:       cfg.Provider,
		users:          cfg.Users,
		sessions:       cfg.Sessions,
		cache:          cfg.Cache,
		idGenerator:    cfg.IDGenerator,
		tokenGenerator: cfg.TokenGenerator,
		now:            cfg.Now,
		sessionTTL:     cfg.SessionTTL,
		logger:         defaultLogger(cfg.Logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// TokenDigest returns the hex BLAKE2b-256 digest under which a session token is stored.
func TokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// LoginURL returns the identity provider URL the browser is redirected to.
func (s *AuthService) LoginURL(state string) (string, error) {
	if s == nil || s.provider == nil {
		return "", fmt.Errorf("identity provider not configured")
	}
	return s.provider.AuthorizationURL(state)
}

// CompleteLogin exchanges the provider code for an identity, upserts the user
// and issues a new session.
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.provider == nil || s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "CompleteLogin")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "session_id", result.Session.ID).InfoContext(ctx, "login succeeded")
	}()

	if strings.TrimSpace(code) == "" {
		err = ErrInvalidLogin
		return
	}

	var identity Identity
	identity, err = s.provider.Authenticate(ctx, code)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidLogin, err)
		return
	}
	if strings.TrimSpace(identity.Email) == "" {
		err = ErrInvalidLogin
		return
	}

	var user persistence.User
	user, err = s.upsertUser(ctx, identity)
	if err != nil {
		return
	}

	var session Session
	session, err = s.issueSession(ctx, user.ID)
	if err != nil {
		return
	}

	result = LoginResult{User: toUser(user), Session: session}
	return
}

func (s *AuthService) upsertUser(ctx context.Context, identity Identity) (persistence.User, error) {
	now := s.now()
	externalID := strings.TrimSpace(identity.ExternalID)
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = email
	}

	var (
		user persistence.User
		err  error
	)
	if externalID != "" {
		user, err = s.users.GetUserByExternalID(ctx, externalID)
	} else {
		err = persistence.ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		user, err = s.users.GetUserByEmail(ctx, email)
	}

	switch {
	case errors.Is(err, persistence.ErrNotFound):
		user = persistence.User{
			ID:        s.idGenerator(),
			Name:      name,
			Email:     email,
			Image:     cloneString(identity.Image),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if externalID != "" {
			user.ExternalID = &externalID
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return persistence.User{}, mapRepoError(err)
		}
		return user, nil
	case err != nil:
		return persistence.User{}, err
	}

	user.Name = name
	user.Email = email
	if identity.Image != nil {
		user.Image = cloneString(identity.Image)
	}
	if externalID != "" {
		user.ExternalID = &externalID
	}
	user.UpdatedAt = now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (Session, error) {
	now := s.now()
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}

	token := s.tokenGenerator()
	if token == "" {
		return Session{}, fmt.Errorf("token generator returned empty token")
	}
	model := persistence.Session{
		ID:          s.idGenerator(),
		UserID:      userID,
		TokenDigest: TokenDigest(token),
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}
	persisted, err := s.sessions.CreateSession(ctx, model)
	if err != nil {
		return Session{}, mapRepoError(err)
	}

	s.cachePut(ctx, persisted.TokenDigest, CachedSession{UserID: userID, ExpiresAt: persisted.ExpiresAt}, now)

	session := toSession(persisted)
	session.Token = token
	return session, nil
}

// ValidateSession resolves a session token to the principal that owns it.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		err = ErrUnauthenticated
		return
	}
	digest := TokenDigest(trimmed)
	now := s.now()

	if s.cache != nil {
		cached, cacheErr := s.cache.Get(ctx, digest)
		if cacheErr == nil && cached.Revoked {
			err = ErrSessionRevoked
			return
		}
		if cacheErr == nil && cached.ExpiresAt.After(now) {
			principal = Principal{UserID: cached.UserID}
			return
		}
		if cacheErr != nil && !errors.Is(cacheErr, ErrCacheMiss) {
			s.loggerWith(ctx, "ValidateSession").WarnContext(ctx, "session cache unavailable", "error", cacheErr)
		}
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, digest)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}
	if session.RevokedAt != nil {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	s.cachePut(ctx, digest, CachedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt}, now)
	principal = Principal{UserID: session.UserID}
	return
}

// Logout revokes the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthenticated
	}
	digest := TokenDigest(trimmed)
	logger := s.loggerWith(ctx, "Logout")
	now := s.now()

	revoked, err := s.sessions.RevokeSession(ctx, digest, now)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthenticated
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if s.cache != nil {
		if ttl := revoked.ExpiresAt.Sub(now); ttl > 0 {
			if err := s.cache.Revoke(ctx, digest, ttl); err != nil {
				logger.ErrorContext(ctx, "failed to mark cached session revoked", "error", err)
				return fmt.Errorf("mark cached session revoked: %w", err)
			}
		}
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// CurrentUser returns the profile of the authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, principal Principal) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return User{}, ErrUnauthenticated
	}
	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrUnauthenticated
		}
		return User{}, err
	}
	return toUser(user), nil
}

func (s *AuthService) cachePut(ctx context.Context, digest string, session CachedSession, now time.Time) {
	if s.cache == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Add(ctx, digest, session, ttl); err != nil {
		s.loggerWith(ctx, "cachePut").WarnContext(ctx, "failed to cache session", "error", err)
	}
}
