// Package http exposes the command center over JSON and cookie sessions.
//
// The router exposes the following endpoints:
//   - GET /auth/login: redirects to the identity provider with a state cookie.
//   - GET /auth/callback: exchanges the code, sets the `session_token` cookie and
//     redirects to the dashboard URL.
//   - POST /auth/logout: revokes the current session and clears the cookie (204).
//   - GET /auth/me: the signed-in user.
//   - GET /healthz: database and session cache reachability.
//
// Every /api route requires a session token (Bearer header or `session_token`
// cookie) and acts in the caller's workspace. The optional `X-Workspace-ID`
// header selects one of several memberships.
//   - GET /api/workspace, POST /api/workspaces: current membership and onboarding.
//   - GET|POST /api/tasks, GET|PATCH|DELETE /api/tasks/{id}: tasks, filtered by
//     `projectId` and `status`.
//   - GET|POST /api/projects, GET|PATCH|DELETE /api/projects/{id},
//     GET /api/projects/{id}/board.
//   - GET|POST /api/meetings (`upcoming=true|false`), GET|PATCH|DELETE /api/meetings/{id}.
//   - GET /api/dashboard, GET /api/views/meetings, GET /api/views/projects.
//   - GET|POST /api/summaries: weekly summaries.
//
// Request/response DTOs live in dto.go. Keys are camelCase and times RFC 3339.
// Errors are `{"error": message, "fields": {...}}`.
package http
