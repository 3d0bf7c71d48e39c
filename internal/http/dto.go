package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/example/command-center/internal/application"
)

// nullable distinguishes an absent JSON key from an explicit null.
type nullable[T any] struct {
	set   bool
	value *T
}

func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.value = &v
	return nil
}

func (n nullable[T]) toApplication() application.Nullable[T] {
	return application.Nullable[T]{Set: n.set, Value: n.value}
}

type successResponse struct {
	Success bool `json:"success"`
}

type workspaceDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toWorkspaceDTO(w application.Workspace) workspaceDTO {
	return workspaceDTO{ID: w.ID, Name: w.Name, Slug: w.Slug, CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt}
}

type membershipDTO struct {
	Role      string       `json:"role"`
	JoinedAt  time.Time    `json:"joinedAt"`
	Workspace workspaceDTO `json:"workspace"`
}

func toMembershipDTO(m application.Membership) membershipDTO {
	return membershipDTO{Role: string(m.Role), JoinedAt: m.JoinedAt, Workspace: toWorkspaceDTO(m.Workspace)}
}

type workspaceRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u application.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image, CreatedAt: u.CreatedAt}
}

type taskDTO struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   *string    `json:"projectId"`
	OwnerID     *string    `json:"ownerId"`
	CreatedByID string     `json:"createdById"`
	MeetingID   *string    `json:"meetingId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskDTO(t application.Task) taskDTO {
	return taskDTO{
		ID:          t.ID,
		WorkspaceID: t.WorkspaceID,
		ProjectID:   t.ProjectID,
		OwnerID:     t.OwnerID,
		CreatedByID: t.CreatedByID,
		MeetingID:   t.MeetingID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskDTOs(tasks []application.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
	ProjectID   *string `json:"projectId"`
	OwnerID     *string `json:"ownerId"`
	MeetingID   *string `json:"meetingId"`
}

func (r createTaskRequest) toInput() application.TaskInput {
	return application.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
		ProjectID:   r.ProjectID,
		OwnerID:     r.OwnerID,
		MeetingID:   r.MeetingID,
	}
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description nullable[string] `json:"description"`
	Priority    *string          `json:"priority"`
	Status      *string          `json:"status"`
	DueDate     nullable[string] `json:"dueDate"`
	ProjectID   nullable[string] `json:"projectId"`
	OwnerID     nullable[string] `json:"ownerId"`
}

func (r updateTaskRequest) toPatch() application.TaskPatch {
	return application.TaskPatch{
		Title:       r.Title,
		Description: r.Description.toApplication(),
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate.toApplication(),
		ProjectID:   r.ProjectID.toApplication(),
		OwnerID:     r.OwnerID.toApplication(),
	}
}

type projectDTO struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProjectDTO(p application.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Status      *string `json:"status"`
}

func (r createProjectRequest) toInput() application.ProjectInput {
	return application.ProjectInput{Name: r.Name, Description: r.Description, Color: r.Color, Status: r.Status}
}

type updateProjectRequest struct {
	Name        *string          `json:"name"`
	Description nullable[string] `json:"description"`
	Color       nullable[string] `json:"color"`
	Status      *string          `json:"status"`
}

func (r updateProjectRequest) toPatch() application.ProjectPatch {
	return application.ProjectPatch{
		Name:        r.Name,
		Description: r.Description.toApplication(),
		Color:       r.Color.toApplication(),
		Status:      r.Status,
	}
}

type projectProgressDTO struct {
	projectDTO
	TotalTasks int `json:"totalTasks"`
	DoneTasks  int `json:"doneTasks"`
	Progress   int `json:"progress"`
}

type boardColumnDTO struct {
	Status string    `json:"status"`
	Tasks  []taskDTO `json:"tasks"`
}

type boardDTO struct {
	Project    projectDTO       `json:"project"`
	Columns    []boardColumnDTO `json:"columns"`
	TotalTasks int              `json:"totalTasks"`
	DoneTasks  int              `json:"doneTasks"`
	Completion int              `json:"completion"`
}

func toBoardDTO(b application.Board) boardDTO {
	columns := make([]boardColumnDTO, 0, len(b.Columns))
	for _, column := range b.Columns {
		columns = append(columns, boardColumnDTO{Status: string(column.Status), Tasks: toTaskDTOs(column.Tasks)})
	}
	return boardDTO{
		Project:    toProjectDTO(b.Project),
		Columns:    columns,
		TotalTasks: b.TotalTasks,
		DoneTasks:  b.DoneTasks,
		Completion: b.Completion,
	}
}

type participantDTO struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type meetingDTO struct {
	ID           string           `json:"id"`
	WorkspaceID  string           `json:"workspaceId"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	StartTime    time.Time        `json:"startTime"`
	EndTime      *time.Time       `json:"endTime"`
	Notes        *string          `json:"notes"`
	Participants []participantDTO `json:"participants"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func toMeetingDTO(m application.Meeting) meetingDTO {
	participants := make([]participantDTO, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, participantDTO{UserID: p.UserID, Role: string(p.Role)})
	}
	return meetingDTO{
		ID:           m.ID,
		WorkspaceID:  m.WorkspaceID,
		Title:        m.Title,
		Description:  m.Description,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Notes:        m.Notes,
		Participants: participants,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// meetingDetailDTO is the single-meeting response, which also lists the
// meeting's follow-up tasks.
type meetingDetailDTO struct {
	meetingDTO
	FollowUpTasks []taskDTO `json:"followUpTasks"`
}

func toMeetingDetailDTO(m application.Meeting) meetingDetailDTO {
	return meetingDetailDTO{meetingDTO: toMeetingDTO(m), FollowUpTasks: toTaskDTOs(m.FollowUpTasks)}
}

func toMeetingDTOs(meetings []application.Meeting) []meetingDTO {
	out := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, toMeetingDTO(meeting))
	}
	return out
}

type createMeetingRequest struct {
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	StartTime      string   `json:"startTime"`
	EndTime        *string  `json:"endTime"`
	Notes          *string  `json:"notes"`
	ParticipantIDs []string `json:"participantIds"`
}

func (r createMeetingRequest) toInput() application.MeetingInput {
	return application.MeetingInput{
		Title:          r.Title,
		Description:    r.Description,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Notes:          r.Notes,
		ParticipantIDs: r.ParticipantIDs,
	}
}

type updateMeetingRequest struct {
	Title          *string          `json:"title"`
	Description    nullable[string] `json:"description"`
	StartTime      *string          `json:"startTime"`
	EndTime        nullable[string] `json:"endTime"`
	Notes          nullable[string] `json:"notes"`
	ParticipantIDs []string         `json:"participantIds"`
}

func (r updateMeetingRequest) toPatch() application.MeetingPatch {
	return application.MeetingPatch{
		Title:          r.Title,
		Description:    r.Description.toApplication(),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime.toApplication(),
		Notes:          r.Notes.toApplication(),
		ParticipantIDs: r.ParticipantIDs,
	}
}

type meetingsOverviewDTO struct {
	Upcoming []meetingDTO `json:"upcoming"`
	Past     []meetingDTO `json:"past"`
}

type summaryDTO struct {
	ID             string    `json:"id"`
	WorkspaceID    string    `json:"workspaceId"`
	WeekStartDate  time.Time `json:"weekStartDate"`
	WeekEndDate    time.Time `json:"weekEndDate"`
	Summary        string    `json:"summary"`
	TasksCompleted int       `json:"tasksCompleted"`
	TasksCreated   int       `json:"tasksCreated"`
	MeetingsHeld   int       `json:"meetingsHeld"`
	TopPriorities  []string  `json:"topPriorities"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

func toSummaryDTO(s application.WeeklySummary) summaryDTO {
	priorities := s.TopPriorities
	if priorities == nil {
		priorities = []string{}
	}
	return summaryDTO{
		ID:             s.ID,
		WorkspaceID:    s.WorkspaceID,
		WeekStartDate:  s.WeekStartDate,
		WeekEndDate:    s.WeekEndDate,
		Summary:        s.Summary,
		TasksCompleted: s.TasksCompleted,
		TasksCreated:   s.TasksCreated,
		MeetingsHeld:   s.MeetingsHeld,
		TopPriorities:  priorities,
		GeneratedAt:    s.GeneratedAt,
	}
}

type statsDTO struct {
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	OverdueTasks    int `json:"overdueTasks"`
	CompletionRate  int `json:"completionRate"`
}

type dashboardDTO struct {
	Workspace     workspaceDTO `json:"workspace"`
	TodayTasks    []taskDTO    `json:"todayTasks"`
	UpcomingTasks []taskDTO    `json:"upcomingTasks"`
	Meetings      []meetingDTO `json:"meetings"`
	Stats         statsDTO     `json:"stats"`
	LatestSummary *summaryDTO  `json:"latestSummary"`
}

func toDashboardDTO(d application.Dashboard) dashboardDTO {
	dto := dashboardDTO{
		Workspace:     toWorkspaceDTO(d.Workspace),
		TodayTasks:    toTaskDTOs(d.TodayTasks),
		UpcomingTasks: toTaskDTOs(d.UpcomingTasks),
		Meetings:      toMeetingDTOs(d.Meetings),
		Stats:         statsDTO(d.Stats),
	}
	if d.LatestSummary != nil {
		summary := toSummaryDTO(*d.LatestSummary)
		dto.LatestSummary = &summary
	}
	return dto
}
