package persistence

import "time"

// Workspace is the tenancy boundary every other record belongs to.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an account authenticated through the identity provider.
type User struct {
	ID         string
	Name       string
	Email      string
	Image      *string
	ExternalID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Membership links a user to a workspace.
type Membership struct {
	UserID      string
	WorkspaceID string
	Role        string
	JoinedAt    time.Time
}

// MembershipWithWorkspace is a membership row joined with its workspace.
type MembershipWithWorkspace struct {
	Membership
	Workspace Workspace
}

// Project groups tasks within a workspace.
type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	Description *string
	Color       *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Task is a unit of work tracked on boards and the dashboard.
type Task struct {
	ID          string
	WorkspaceID string
	ProjectID   *string
	OwnerID     *string
	CreatedByID string
	MeetingID   *string
	Title       string
	Description *string
	Priority    string
	Status      string
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Meeting is a calendar entry with participants.
type Meeting struct {
	ID           string
	WorkspaceID  string
	Title        string
	Description  *string
	StartTime    time.Time
	EndTime      *time.Time
	Notes        *string
	Participants []Participant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Participant is a user's attendance on a meeting.
type Participant struct {
	UserID string
	Role   string
}

// WeeklySummary is an append-only rollup of a week's activity.
type WeeklySummary struct {
	ID             string
	WorkspaceID    string
	WeekStartDate  time.Time
	WeekEndDate    time.Time
	Summary        string
	TasksCompleted int
	TasksCreated   int
	MeetingsHeld   int
	TopPriorities  []string
	GeneratedAt    time.Time
}

// Session is an authenticated browser session. TokenDigest holds a hash of the
// bearer token, never the token itself.
type Session struct {
	ID          string
	UserID      string
	TokenDigest string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RevokedAt   *time.Time
}
