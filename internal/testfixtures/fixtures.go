package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/command-center/internal/application"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

var (
	workspaceCounter uint64
	userCounter      uint64
	projectCounter   uint64
	taskCounter      uint64
	meetingCounter   uint64
	sessionCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Workspace fixtures ---------------------------

// WorkspaceFixture represents a deterministic workspace record.
type WorkspaceFixture struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkspaceOption configures the generated workspace fixture.
type WorkspaceOption func(*WorkspaceFixture)

// NewWorkspaceFixture returns a deterministic workspace fixture with optional overrides.
func NewWorkspaceFixture(opts ...WorkspaceOption) WorkspaceFixture {
	idx := atomic.AddUint64(&workspaceCounter, 1)
	id := fmt.Sprintf("workspace-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := WorkspaceFixture{
		ID:        id,
		Name:      fmt.Sprintf("Workspace %03d", idx),
		Slug:      id,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWorkspaceID overrides the generated workspace ID.
func WithWorkspaceID(id string) WorkspaceOption {
	return func(f *WorkspaceFixture) {
		f.ID = id
	}
}

// WithWorkspaceName overrides the generated workspace name.
func WithWorkspaceName(name string) WorkspaceOption {
	return func(f *WorkspaceFixture) {
		f.Name = name
	}
}

// WithWorkspaceSlug overrides the generated slug.
func WithWorkspaceSlug(slug string) WorkspaceOption {
	return func(f *WorkspaceFixture) {
		f.Slug = slug
	}
}

// Persistence returns the fixture as a persistence.Workspace value.
func (f WorkspaceFixture) Persistence() persistence.Workspace {
	return persistence.Workspace{
		ID:        f.ID,
		Name:      f.Name,
		Slug:      f.Slug,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// OwnerMembership returns the owner membership created alongside the workspace.
func (f WorkspaceFixture) OwnerMembership(userID string) persistence.Membership {
	return persistence.Membership{
		UserID:      userID,
		WorkspaceID: f.ID,
		Role:        string(domain.RoleOwner),
		JoinedAt:    f.CreatedAt,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID         string
	Name       string
	Email      string
	ExternalID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:        id,
		Name:      fmt.Sprintf("User %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserName overrides the generated name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserExternalID links the fixture to an identity provider account.
func WithUserExternalID(externalID string) UserOption {
	return func(f *UserFixture) {
		f.ExternalID = &externalID
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:         f.ID,
		Name:       f.Name,
		Email:      f.Email,
		ExternalID: copyStringPtr(f.ExternalID),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// ---------------------------- Project fixtures ----------------------------

// ProjectFixture represents a deterministic project record.
type ProjectFixture struct {
	ID          string
	WorkspaceID string
	Name        string
	Description *string
	Color       *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectOption configures the generated project fixture.
type ProjectOption func(*ProjectFixture)

// NewProjectFixture returns a deterministic active project in workspaceID.
func NewProjectFixture(workspaceID string, opts ...ProjectOption) ProjectFixture {
	idx := atomic.AddUint64(&projectCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := ProjectFixture{
		ID:          fmt.Sprintf("project-%03d", idx),
		WorkspaceID: workspaceID,
		Name:        fmt.Sprintf("Project %03d", idx),
		Status:      domain.ProjectStatusActive,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProjectID overrides the generated project ID.
func WithProjectID(id string) ProjectOption {
	return func(f *ProjectFixture) {
		f.ID = id
	}
}

// WithProjectName overrides the generated project name.
func WithProjectName(name string) ProjectOption {
	return func(f *ProjectFixture) {
		f.Name = name
	}
}

// WithProjectStatus overrides the project status.
func WithProjectStatus(status string) ProjectOption {
	return func(f *ProjectFixture) {
		f.Status = status
	}
}

// WithProjectColor sets the project color.
func WithProjectColor(color string) ProjectOption {
	return func(f *ProjectFixture) {
		f.Color = &color
	}
}

// WithProjectCreatedAt sets both timestamps on the fixture.
func WithProjectCreatedAt(t time.Time) ProjectOption {
	return func(f *ProjectFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Persistence returns the fixture as a persistence.Project value.
func (f ProjectFixture) Persistence() persistence.Project {
	return persistence.Project{
		ID:          f.ID,
		WorkspaceID: f.WorkspaceID,
		Name:        f.Name,
		Description: copyStringPtr(f.Description),
		Color:       copyStringPtr(f.Color),
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ----------------------------- Task fixtures -----------------------------

// TaskFixture represents a deterministic task record.
type TaskFixture struct {
	ID          string
	WorkspaceID string
	ProjectID   *string
	OwnerID     *string
	CreatedByID string
	MeetingID   *string
	Title       string
	Priority    domain.Priority
	Status      domain.TaskStatus
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskOption configures the generated task fixture.
type TaskOption func(*TaskFixture)

// NewTaskFixture returns a deterministic MEDIUM/TODO task created by createdBy in workspaceID.
func NewTaskFixture(workspaceID, createdBy string, opts ...TaskOption) TaskFixture {
	idx := atomic.AddUint64(&taskCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TaskFixture{
		ID:          fmt.Sprintf("task-%03d", idx),
		WorkspaceID: workspaceID,
		CreatedByID: createdBy,
		Title:       fmt.Sprintf("Task %03d", idx),
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusTodo,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTaskID overrides the generated task ID.
func WithTaskID(id string) TaskOption {
	return func(f *TaskFixture) {
		f.ID = id
	}
}

// WithTaskTitle overrides the generated title.
func WithTaskTitle(title string) TaskOption {
	return func(f *TaskFixture) {
		f.Title = title
	}
}

// WithTaskPriority sets the task priority.
func WithTaskPriority(priority domain.Priority) TaskOption {
	return func(f *TaskFixture) {
		f.Priority = priority
	}
}

// WithTaskStatus sets the task status. DONE tasks are completed at their update time.
func WithTaskStatus(status domain.TaskStatus) TaskOption {
	return func(f *TaskFixture) {
		f.Status = status
		if status == domain.StatusDone && f.CompletedAt == nil {
			completed := f.UpdatedAt
			f.CompletedAt = &completed
		}
	}
}

// WithTaskDueDate sets the due date.
func WithTaskDueDate(t time.Time) TaskOption {
	return func(f *TaskFixture) {
		f.DueDate = &t
	}
}

// WithTaskCompletedAt sets the completion timestamp.
func WithTaskCompletedAt(t time.Time) TaskOption {
	return func(f *TaskFixture) {
		f.CompletedAt = &t
	}
}

// WithTaskProject assigns the task to a project.
func WithTaskProject(projectID string) TaskOption {
	return func(f *TaskFixture) {
		f.ProjectID = &projectID
	}
}

// WithTaskMeeting links the task to the meeting it followed up on.
func WithTaskMeeting(meetingID string) TaskOption {
	return func(f *TaskFixture) {
		f.MeetingID = &meetingID
	}
}

// WithTaskOwner sets the task owner.
func WithTaskOwner(ownerID string) TaskOption {
	return func(f *TaskFixture) {
		f.OwnerID = &ownerID
	}
}

// WithTaskCreatedAt sets both timestamps on the fixture.
func WithTaskCreatedAt(t time.Time) TaskOption {
	return func(f *TaskFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Persistence returns the fixture as a persistence.Task value.
func (f TaskFixture) Persistence() persistence.Task {
	return persistence.Task{
		ID:          f.ID,
		WorkspaceID: f.WorkspaceID,
		ProjectID:   copyStringPtr(f.ProjectID),
		OwnerID:     copyStringPtr(f.OwnerID),
		CreatedByID: f.CreatedByID,
		MeetingID:   copyStringPtr(f.MeetingID),
		Title:       f.Title,
		Priority:    string(f.Priority),
		Status:      string(f.Status),
		DueDate:     copyTimePtr(f.DueDate),
		CompletedAt: copyTimePtr(f.CompletedAt),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture represents a deterministic meeting record.
type MeetingFixture struct {
	ID           string
	WorkspaceID  string
	Title        string
	StartTime    time.Time
	EndTime      *time.Time
	Notes        *string
	Participants []persistence.Participant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a deterministic one hour meeting in workspaceID.
func NewMeetingFixture(workspaceID string, opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	end := start.Add(time.Hour)
	fixture := MeetingFixture{
		ID:          fmt.Sprintf("meeting-%03d", idx),
		WorkspaceID: workspaceID,
		Title:       fmt.Sprintf("Meeting %03d", idx),
		StartTime:   start,
		EndTime:     &end,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the generated meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ID = id
	}
}

// WithMeetingTitle overrides the generated title.
func WithMeetingTitle(title string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Title = title
	}
}

// WithMeetingStart moves the meeting to start, keeping a one hour duration.
func WithMeetingStart(start time.Time) MeetingOption {
	return func(f *MeetingFixture) {
		end := start.Add(time.Hour)
		f.StartTime = start
		f.EndTime = &end
	}
}

// WithMeetingOrganizer adds an organizer participant.
func WithMeetingOrganizer(userID string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Participants = append(f.Participants, persistence.Participant{UserID: userID, Role: string(domain.ParticipantOrganizer)})
	}
}

// WithMeetingAttendees adds attendee participants.
func WithMeetingAttendees(userIDs ...string) MeetingOption {
	return func(f *MeetingFixture) {
		for _, id := range userIDs {
			f.Participants = append(f.Participants, persistence.Participant{UserID: id, Role: string(domain.ParticipantAttendee)})
		}
	}
}

// Persistence returns the fixture as a persistence.Meeting value.
func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:           f.ID,
		WorkspaceID:  f.WorkspaceID,
		Title:        f.Title,
		StartTime:    f.StartTime,
		EndTime:      copyTimePtr(f.EndTime),
		Notes:        copyStringPtr(f.Notes),
		Participants: append([]persistence.Participant(nil), f.Participants...),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for userID valid for one day after the reference time.
func NewSessionFixture(userID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session revoked.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Persistence returns the fixture as a persistence.Session keyed by the token digest.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		TokenDigest: application.TokenDigest(f.Token),
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
