package application

import (
	"time"

	"github.com/example/command-center/internal/domain"
)

// Principal represents the authenticated user invoking a service method.
// WorkspaceID optionally selects one of the user's workspaces; when empty the
// first membership is used.
type Principal struct {
	UserID      string
	WorkspaceID string
}

// Nullable carries a patch value that distinguishes an absent field (Set is
// false) from an explicit null (Set is true and Value is nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Workspace is the tenancy boundary.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership is the caller's resolved relation to a workspace.
type Membership struct {
	UserID    string
	Role      domain.WorkspaceRole
	JoinedAt  time.Time
	Workspace Workspace
}

// WorkspaceID returns the identifier of the membership's workspace.
func (m Membership) WorkspaceID() string {
	return m.Workspace.ID
}

// User is an account exposed by the application services.
type User struct {
	ID        string
	Name      string
	Email     string
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is a unit of work inside a workspace.
type Task struct {
	ID          string
	WorkspaceID string
	ProjectID   *string
	OwnerID     *string
	CreatedByID string
	MeetingID   *string
	Title       string
	Description *string
	Priority    domain.Priority
	Status      domain.TaskStatus
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput captures caller provided fields for task creation. Enum and time
// fields stay raw so the validator can report them.
type TaskInput struct {
	Title       string
	Description *string
	Priority    *string
	Status      *string
	DueDate     *string
	ProjectID   *string
	OwnerID     *string
	MeetingID   *string
}

// TaskPatch captures a partial task update. Nil pointers leave fields untouched.
type TaskPatch struct {
	Title       *string
	Description Nullable[string]
	Priority    *string
	Status      *string
	DueDate     Nullable[string]
	ProjectID   Nullable[string]
	OwnerID     Nullable[string]
}

// TaskListFilter narrows task listings.
type TaskListFilter struct {
	ProjectID *string
	MeetingID *string
	Status    *string
}

// CreateTaskParams wraps the data required to create a task.
type CreateTaskParams struct {
	Principal Principal
	Input     TaskInput
}

// UpdateTaskParams wraps the data required to update a task.
type UpdateTaskParams struct {
	Principal Principal
	TaskID    string
	Patch     TaskPatch
}

// ListTasksParams wraps the data required to list tasks.
type ListTasksParams struct {
	Principal Principal
	Filter    TaskListFilter
}

// Project groups tasks inside a workspace.
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

// ProjectInput captures caller provided fields for project creation.
type ProjectInput struct {
	Name        string
	Description *string
	Color       *string
	Status      *string
}

// ProjectPatch captures a partial project update.
type ProjectPatch struct {
	Name        *string
	Description Nullable[string]
	Color       Nullable[string]
	Status      *string
}

// CreateProjectParams wraps the data required to create a project.
type CreateProjectParams struct {
	Principal Principal
	Input     ProjectInput
}

// UpdateProjectParams wraps the data required to update a project.
type UpdateProjectParams struct {
	Principal Principal
	ProjectID string
	Patch     ProjectPatch
}

// Participant is a user attending a meeting.
type Participant struct {
	UserID string
	Role   domain.ParticipantRole
}

// Meeting is a calendar entry inside a workspace.
type Meeting struct {
	ID            string
	WorkspaceID   string
	Title         string
	Description   *string
	StartTime     time.Time
	EndTime       *time.Time
	Notes         *string
	Participants  []Participant
	// FollowUpTasks is loaded only by single-meeting reads and updates.
	FollowUpTasks []Task
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MeetingInput captures caller provided fields for meeting creation. A nil
// ParticipantIDs makes the creator the sole organizer.
type MeetingInput struct {
	Title          string
	Description    *string
	StartTime      string
	EndTime        *string
	Notes          *string
	ParticipantIDs []string
}

// MeetingPatch captures a partial meeting update. A nil ParticipantIDs keeps
// the current participants.
type MeetingPatch struct {
	Title          *string
	Description    Nullable[string]
	StartTime      *string
	EndTime        Nullable[string]
	Notes          Nullable[string]
	ParticipantIDs []string
}

// MeetingWindow filters meeting listings around the current instant.
type MeetingWindow string

const (
	// MeetingWindowAll lists every meeting.
	MeetingWindowAll MeetingWindow = ""
	// MeetingWindowUpcoming lists meetings starting at or after now.
	MeetingWindowUpcoming MeetingWindow = "upcoming"
	// MeetingWindowPast lists meetings that started before now.
	MeetingWindowPast MeetingWindow = "past"
)

// CreateMeetingParams wraps the data required to create a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// UpdateMeetingParams wraps the data required to update a meeting.
type UpdateMeetingParams struct {
	Principal Principal
	MeetingID string
	Patch     MeetingPatch
}

// ListMeetingsParams wraps the data required to list meetings.
type ListMeetingsParams struct {
	Principal Principal
	Window    MeetingWindow
}

// WeeklySummary is an append-only weekly rollup.
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

// TaskStats holds whole-workspace task counts.
type TaskStats struct {
	TotalTasks      int
	CompletedTasks  int
	InProgressTasks int
	OverdueTasks    int
	CompletionRate  int
}

// Dashboard is the workspace overview.
type Dashboard struct {
	Workspace     Workspace
	TodayTasks    []Task
	UpcomingTasks []Task
	Meetings      []Meeting
	Stats         TaskStats
	LatestSummary *WeeklySummary
}

// BoardColumn is one kanban column.
type BoardColumn struct {
	Status domain.TaskStatus
	Tasks  []Task
}

// Board is a project's tasks grouped by status.
type Board struct {
	Project    Project
	Columns    []BoardColumn
	TotalTasks int
	DoneTasks  int
	Completion int
}

// MeetingsOverview splits the workspace's recent meetings around now.
type MeetingsOverview struct {
	Upcoming []Meeting
	Past     []Meeting
}

// ProjectProgress is a project with its completion counts.
type ProjectProgress struct {
	Project    Project
	TotalTasks int
	DoneTasks  int
	Progress   int
}

// CreateWorkspaceParams wraps the data required to onboard a workspace.
type CreateWorkspaceParams struct {
	Principal Principal
	Name      string
	Slug      string
}

// Identity is the profile returned by the identity provider after login.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	Image      *string
}

// Session is an issued login session. Token is only populated at issuance.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// LoginResult captures a completed login.
type LoginResult struct {
	User    User
	Session Session
}
