package application

import (
	"errors"
	"time"

	"github.com/example/command-center/internal/aggregation"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

// storedPrecision is the finest time resolution the repositories keep.
const storedPrecision = time.Microsecond

// storedClock truncates now to storedPrecision so values echoed back to a
// caller match what a later read returns.
func storedClock(now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().Truncate(storedPrecision) }
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}

func toWorkspace(model persistence.Workspace) Workspace {
	return Workspace{
		ID:        model.ID,
		Name:      model.Name,
		Slug:      model.Slug,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toMembership(model persistence.MembershipWithWorkspace) Membership {
	return Membership{
		UserID:    model.UserID,
		Role:      domain.NormalizeWorkspaceRole(model.Role),
		JoinedAt:  model.JoinedAt,
		Workspace: toWorkspace(model.Workspace),
	}
}

func toUser(model persistence.User) User {
	return User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Image:     cloneString(model.Image),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toTask(model persistence.Task) Task {
	return Task{
		ID:          model.ID,
		WorkspaceID: model.WorkspaceID,
		ProjectID:   cloneString(model.ProjectID),
		OwnerID:     cloneString(model.OwnerID),
		CreatedByID: model.CreatedByID,
		MeetingID:   cloneString(model.MeetingID),
		Title:       model.Title,
		Description: cloneString(model.Description),
		Priority:    domain.Priority(model.Priority),
		Status:      domain.TaskStatus(model.Status),
		DueDate:     cloneTime(model.DueDate),
		CompletedAt: cloneTime(model.CompletedAt),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceTask(task Task) persistence.Task {
	return persistence.Task{
		ID:          task.ID,
		WorkspaceID: task.WorkspaceID,
		ProjectID:   cloneString(task.ProjectID),
		OwnerID:     cloneString(task.OwnerID),
		CreatedByID: task.CreatedByID,
		MeetingID:   cloneString(task.MeetingID),
		Title:       task.Title,
		Description: cloneString(task.Description),
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		DueDate:     cloneTime(task.DueDate),
		CompletedAt: cloneTime(task.CompletedAt),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func toTasks(models []persistence.Task) []Task {
	tasks := make([]Task, 0, len(models))
	for _, model := range models {
		tasks = append(tasks, toTask(model))
	}
	return tasks
}

func toProject(model persistence.Project) Project {
	return Project{
		ID:          model.ID,
		WorkspaceID: model.WorkspaceID,
		Name:        model.Name,
		Description: cloneString(model.Description),
		Color:       cloneString(model.Color),
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceProject(project Project) persistence.Project {
	return persistence.Project{
		ID:          project.ID,
		WorkspaceID: project.WorkspaceID,
		Name:        project.Name,
		Description: cloneString(project.Description),
		Color:       cloneString(project.Color),
		Status:      project.Status,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func toMeeting(model persistence.Meeting) Meeting {
	participants := make([]Participant, 0, len(model.Participants))
	for _, p := range model.Participants {
		participants = append(participants, Participant{UserID: p.UserID, Role: domain.NormalizeParticipantRole(p.Role)})
	}
	return Meeting{
		ID:           model.ID,
		WorkspaceID:  model.WorkspaceID,
		Title:        model.Title,
		Description:  cloneString(model.Description),
		StartTime:    model.StartTime,
		EndTime:      cloneTime(model.EndTime),
		Notes:        cloneString(model.Notes),
		Participants: participants,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// toPersistenceMeeting converts meeting. Participants stay nil when the meeting
// carries none so updates leave stored participants alone.
func toPersistenceMeeting(meeting Meeting) persistence.Meeting {
	var participants []persistence.Participant
	if meeting.Participants != nil {
		participants = make([]persistence.Participant, 0, len(meeting.Participants))
		for _, p := range meeting.Participants {
			participants = append(participants, persistence.Participant{UserID: p.UserID, Role: string(p.Role)})
		}
	}
	return persistence.Meeting{
		ID:           meeting.ID,
		WorkspaceID:  meeting.WorkspaceID,
		Title:        meeting.Title,
		Description:  cloneString(meeting.Description),
		StartTime:    meeting.StartTime,
		EndTime:      cloneTime(meeting.EndTime),
		Notes:        cloneString(meeting.Notes),
		Participants: participants,
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func toMeetings(models []persistence.Meeting) []Meeting {
	meetings := make([]Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toMeeting(model))
	}
	return meetings
}

func toSummary(model persistence.WeeklySummary) WeeklySummary {
	return WeeklySummary{
		ID:             model.ID,
		WorkspaceID:    model.WorkspaceID,
		WeekStartDate:  model.WeekStartDate,
		WeekEndDate:    model.WeekEndDate,
		Summary:        model.Summary,
		TasksCompleted: model.TasksCompleted,
		TasksCreated:   model.TasksCreated,
		MeetingsHeld:   model.MeetingsHeld,
		TopPriorities:  append([]string{}, model.TopPriorities...),
		GeneratedAt:    model.GeneratedAt,
	}
}

func toSession(model persistence.Session) Session {
	return Session{
		ID:        model.ID,
		UserID:    model.UserID,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func aggregationTasks(tasks []Task) []aggregation.Task {
	out := make([]aggregation.Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, aggregation.Task{
			ID:          task.ID,
			Title:       task.Title,
			Priority:    task.Priority,
			Status:      task.Status,
			DueDate:     task.DueDate,
			CreatedAt:   task.CreatedAt,
			CompletedAt: task.CompletedAt,
		})
	}
	return out
}

func aggregationMeetings(meetings []Meeting) []aggregation.Meeting {
	out := make([]aggregation.Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		out = append(out, aggregation.Meeting{ID: meeting.ID, Start: meeting.StartTime})
	}
	return out
}

// pickTasks returns the tasks named by ids, in ids order.
func pickTasks(tasks []Task, ids []string) []Task {
	byID := make(map[string]Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	picked := make([]Task, 0, len(ids))
	for _, id := range ids {
		if task, ok := byID[id]; ok {
			picked = append(picked, task)
		}
	}
	return picked
}

// pickMeetings returns the meetings named by ids, in ids order.
func pickMeetings(meetings []Meeting, ids []string) []Meeting {
	byID := make(map[string]Meeting, len(meetings))
	for _, meeting := range meetings {
		byID[meeting.ID] = meeting
	}
	picked := make([]Meeting, 0, len(ids))
	for _, id := range ids {
		if meeting, ok := byID[id]; ok {
			picked = append(picked, meeting)
		}
	}
	return picked
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
