package http

import (
	"context"

	"github.com/example/command-center/internal/application"
)

type principalKey struct{}

// ContextWithPrincipal stores the authenticated caller and workspace selector.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the caller stored by RequireSession.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(application.Principal)
	return principal, ok
}
