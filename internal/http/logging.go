package http

import (
	"context"
	"log/slog"

	"github.com/example/command-center/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	return logging.OrDefault(logger)
}

// handlerLogger tags the request logger with the handler and, once the
// session middleware ran, the workspace selector the caller sent.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	if principal, ok := PrincipalFromContext(ctx); ok && principal.WorkspaceID != "" {
		attrs = append(attrs, "workspace_selector", principal.WorkspaceID)
	}
	return logging.Component(ctx, fallback, "handler", handlerName, operation, attrs...)
}
