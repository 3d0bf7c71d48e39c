// Package identity adapts the WorkOS user management API to the login flow.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"github.com/example/command-center/internal/application"
)

const authKitProvider = "authkit"

// Config holds the WorkOS client credentials.
type Config struct {
	APIKey      string
	ClientID    string
	RedirectURI string
}

// userManagement is the subset of the WorkOS client used here.
type userManagement interface {
	GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error)
	AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
}

// WorkOS implements application.IdentityProvider.
type WorkOS struct {
	client userManagement
	cfg    Config
}

// NewWorkOS builds a provider backed by the WorkOS API.
func NewWorkOS(cfg Config) (*WorkOS, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("identity: WorkOS api key and client id are required")
	}
	return newWorkOS(usermanagement.NewClient(cfg.APIKey), cfg), nil
}

func newWorkOS(client userManagement, cfg Config) *WorkOS {
	return &WorkOS{client: client, cfg: cfg}
}

// AuthorizationURL returns the hosted AuthKit login URL carrying state.
func (w *WorkOS) AuthorizationURL(state string) (string, error) {
	u, err := w.client.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    w.cfg.ClientID,
		RedirectURI: w.cfg.RedirectURI,
		State:       state,
		Provider:    authKitProvider,
	})
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return u.String(), nil
}

// Authenticate exchanges an authorization code for the user's profile.
func (w *WorkOS) Authenticate(ctx context.Context, code string) (application.Identity, error) {
	resp, err := w.client.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: w.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		return application.Identity{}, fmt.Errorf("authenticating with code: %w", err)
	}

	user := resp.User
	identity := application.Identity{
		ExternalID: user.ID,
		Email:      strings.ToLower(strings.TrimSpace(user.Email)),
		Name:       displayName(user),
	}
	if user.ProfilePictureURL != "" {
		picture := user.ProfilePictureURL
		identity.Image = &picture
	}
	return identity, nil
}

func displayName(user usermanagement.User) string {
	first := strings.TrimSpace(user.FirstName)
	last := strings.TrimSpace(user.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return user.Email
	}
}
