package persistence

import (
	"context"
	"time"
)

// WorkspaceRepository stores workspaces and their memberships.
type WorkspaceRepository interface {
	// CreateWorkspace inserts the workspace and the owner membership atomically.
	CreateWorkspace(ctx context.Context, workspace Workspace, owner Membership) error
	GetWorkspace(ctx context.Context, id string) (Workspace, error)
	GetWorkspaceBySlug(ctx context.Context, slug string) (Workspace, error)
	AddMember(ctx context.Context, membership Membership) error
	// ListMemberships returns the user's memberships ordered by joined_at then workspace id.
	ListMemberships(ctx context.Context, userID string) ([]MembershipWithWorkspace, error)
	GetMembership(ctx context.Context, userID, workspaceID string) (MembershipWithWorkspace, error)
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (User, error)
}

// ProjectFilter narrows project queries.
type ProjectFilter struct {
	WorkspaceID string
	Status      *string
}

// ProjectRepository stores projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	// ListProjects orders by created_at descending.
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	// DeleteProject removes the project and detaches its tasks in one transaction.
	DeleteProject(ctx context.Context, id string) error
}

// TaskOrder selects the ordering of task listings.
type TaskOrder int

const (
	// TaskOrderPriority sorts by priority descending then created_at descending.
	TaskOrderPriority TaskOrder = iota
	// TaskOrderCreated sorts by created_at ascending.
	TaskOrderCreated
)

// TaskFilter narrows task queries.
type TaskFilter struct {
	WorkspaceID string
	ProjectID   *string
	MeetingID   *string
	Status      *string
	Order       TaskOrder
}

// TaskRepository stores tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// MeetingFilter narrows meeting queries.
type MeetingFilter struct {
	WorkspaceID   string
	StartsAfter   *time.Time
	StartsBefore  *time.Time
	Limit         int
	AscendingTime bool
}

// MeetingRepository stores meetings and their participants.
type MeetingRepository interface {
	// CreateMeeting inserts the meeting and its participants atomically.
	CreateMeeting(ctx context.Context, meeting Meeting) error
	// UpdateMeeting updates the meeting columns. Participants are replaced only when non-nil.
	UpdateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

// SummaryRepository stores weekly summaries.
type SummaryRepository interface {
	CreateSummary(ctx context.Context, summary WeeklySummary) error
	// LatestSummary returns the summary with the greatest generated_at.
	LatestSummary(ctx context.Context, workspaceID string) (WeeklySummary, error)
	ListSummaries(ctx context.Context, workspaceID string, limit int) ([]WeeklySummary, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, tokenDigest string) (Session, error)
	RevokeSession(ctx context.Context, tokenDigest string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
