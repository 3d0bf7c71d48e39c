package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// MutationValidator checks create and update payloads before they reach
// storage. Checks that reference other entities only accept entities of the
// caller's workspace.
type MutationValidator struct {
	calendar *calendar.Calendar
	projects persistence.ProjectRepository
	meetings persistence.MeetingRepository
	members  MembershipStore
}

// NewMutationValidator constructs a validator. Reference checks are skipped for
// nil repositories.
func NewMutationValidator(cal *calendar.Calendar, projects persistence.ProjectRepository, meetings persistence.MeetingRepository, members MembershipStore) *MutationValidator {
	if cal == nil {
		cal = calendar.New(time.UTC)
	}
	return &MutationValidator{calendar: cal, projects: projects, meetings: meetings, members: members}
}

// ValidateTaskCreate applies defaults (MEDIUM, TODO) and returns the task
// fields to persist. The returned error is a *ValidationError for bad input.
func (v *MutationValidator) ValidateTaskCreate(ctx context.Context, workspaceID string, input TaskInput) (Task, error) {
	vErr := &ValidationError{}
	task := Task{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeOptionalString(input.Description),
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusTodo,
		ProjectID:   normalizeOptionalString(input.ProjectID),
		OwnerID:     normalizeOptionalString(input.OwnerID),
		MeetingID:   normalizeOptionalString(input.MeetingID),
	}

	if task.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Priority != nil {
		task.Priority = v.priority(vErr, *input.Priority)
	}
	if input.Status != nil {
		task.Status = v.status(vErr, *input.Status)
	}
	if raw := normalizeOptionalString(input.DueDate); raw != nil {
		task.DueDate = v.timestamp(vErr, "dueDate", *raw)
	}

	if err := v.checkTaskReferences(ctx, vErr, workspaceID, task.ProjectID, task.OwnerID, task.MeetingID); err != nil {
		return Task{}, err
	}
	if err := vErr.errOrNil(); err != nil {
		return Task{}, err
	}
	return task, nil
}

// ValidateTaskPatch applies patch to existing. A transition into DONE stamps
// CompletedAt with now; no other change touches CompletedAt.
func (v *MutationValidator) ValidateTaskPatch(ctx context.Context, existing Task, patch TaskPatch, now time.Time) (Task, error) {
	vErr := &ValidationError{}
	updated := existing

	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
		if updated.Title == "" {
			vErr.add("title", "title cannot be empty")
		}
	}
	if patch.Description.Set {
		updated.Description = normalizeOptionalString(patch.Description.Value)
	}
	if patch.Priority != nil {
		updated.Priority = v.priority(vErr, *patch.Priority)
	}
	if patch.Status != nil {
		updated.Status = v.status(vErr, *patch.Status)
		if updated.Status == domain.StatusDone && existing.Status != domain.StatusDone {
			completed := now
			updated.CompletedAt = &completed
		}
	}
	if patch.DueDate.Set {
		updated.DueDate = nil
		if raw := normalizeOptionalString(patch.DueDate.Value); raw != nil {
			updated.DueDate = v.timestamp(vErr, "dueDate", *raw)
		}
	}

	var projectID, ownerID *string
	if patch.ProjectID.Set {
		updated.ProjectID = normalizeOptionalString(patch.ProjectID.Value)
		projectID = updated.ProjectID
	}
	if patch.OwnerID.Set {
		updated.OwnerID = normalizeOptionalString(patch.OwnerID.Value)
		ownerID = updated.OwnerID
	}
	if err := v.checkTaskReferences(ctx, vErr, existing.WorkspaceID, projectID, ownerID, nil); err != nil {
		return Task{}, err
	}
	if err := vErr.errOrNil(); err != nil {
		return Task{}, err
	}
	return updated, nil
}

// ValidateProjectCreate applies the default active status and returns the project fields.
func (v *MutationValidator) ValidateProjectCreate(workspaceID string, input ProjectInput) (Project, error) {
	vErr := &ValidationError{}
	project := Project{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(input.Name),
		Description: normalizeOptionalString(input.Description),
		Color:       normalizeOptionalString(input.Color),
		Status:      domain.ProjectStatusActive,
	}
	if project.Name == "" {
		vErr.add("name", "name is required")
	}
	if status := normalizeOptionalString(input.Status); status != nil {
		project.Status = strings.ToLower(*status)
	}
	validateColor(vErr, project.Color)
	if err := vErr.errOrNil(); err != nil {
		return Project{}, err
	}
	return project, nil
}

// ValidateProjectPatch applies patch to existing.
func (v *MutationValidator) ValidateProjectPatch(existing Project, patch ProjectPatch) (Project, error) {
	vErr := &ValidationError{}
	updated := existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
		if updated.Name == "" {
			vErr.add("name", "name cannot be empty")
		}
	}
	if patch.Description.Set {
		updated.Description = normalizeOptionalString(patch.Description.Value)
	}
	if patch.Color.Set {
		updated.Color = normalizeOptionalString(patch.Color.Value)
		validateColor(vErr, updated.Color)
	}
	if patch.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*patch.Status))
		if status == "" {
			vErr.add("status", "status cannot be empty")
		}
		updated.Status = status
	}
	if err := vErr.errOrNil(); err != nil {
		return Project{}, err
	}
	return updated, nil
}

// ValidateMeetingCreate returns the meeting fields including participants. An
// absent participant list makes creatorID the sole organizer; listed users
// become organizer when they are the creator and attendee otherwise.
func (v *MutationValidator) ValidateMeetingCreate(ctx context.Context, workspaceID, creatorID string, input MeetingInput) (Meeting, error) {
	vErr := &ValidationError{}
	meeting := Meeting{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeOptionalString(input.Description),
		Notes:       normalizeOptionalString(input.Notes),
	}
	if meeting.Title == "" {
		vErr.add("title", "title is required")
	}
	if raw := strings.TrimSpace(input.StartTime); raw == "" {
		vErr.add("startTime", "startTime is required")
	} else if start := v.timestamp(vErr, "startTime", raw); start != nil {
		meeting.StartTime = *start
	}
	if raw := normalizeOptionalString(input.EndTime); raw != nil {
		meeting.EndTime = v.timestamp(vErr, "endTime", *raw)
	}
	validateMeetingSpan(vErr, meeting)

	if input.ParticipantIDs == nil {
		meeting.Participants = []Participant{{UserID: creatorID, Role: domain.ParticipantOrganizer}}
	} else {
		participants, err := v.participants(ctx, vErr, workspaceID, map[string]bool{creatorID: true}, input.ParticipantIDs)
		if err != nil {
			return Meeting{}, err
		}
		meeting.Participants = participants
	}

	if err := vErr.errOrNil(); err != nil {
		return Meeting{}, err
	}
	return meeting, nil
}

// ValidateMeetingPatch applies patch to existing. An explicit null end time
// clears it. A non-nil ParticipantIDs replaces the participant set, with
// existing organizers keeping their role and everyone else attending.
// Otherwise the returned Participants is nil.
func (v *MutationValidator) ValidateMeetingPatch(ctx context.Context, existing Meeting, patch MeetingPatch) (Meeting, error) {
	vErr := &ValidationError{}
	updated := existing
	updated.Participants = nil
	updated.FollowUpTasks = nil

	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
		if updated.Title == "" {
			vErr.add("title", "title cannot be empty")
		}
	}
	if patch.Description.Set {
		updated.Description = normalizeOptionalString(patch.Description.Value)
	}
	if patch.Notes.Set {
		updated.Notes = normalizeOptionalString(patch.Notes.Value)
	}
	if patch.StartTime != nil {
		if start := v.timestamp(vErr, "startTime", *patch.StartTime); start != nil {
			updated.StartTime = *start
		}
	}
	if patch.EndTime.Set {
		updated.EndTime = nil
		if raw := normalizeOptionalString(patch.EndTime.Value); raw != nil {
			updated.EndTime = v.timestamp(vErr, "endTime", *raw)
		}
	}
	validateMeetingSpan(vErr, updated)

	if patch.ParticipantIDs != nil {
		organizers := make(map[string]bool)
		for _, p := range existing.Participants {
			if p.Role == domain.ParticipantOrganizer {
				organizers[p.UserID] = true
			}
		}
		participants, err := v.participants(ctx, vErr, existing.WorkspaceID, organizers, patch.ParticipantIDs)
		if err != nil {
			return Meeting{}, err
		}
		updated.Participants = participants
	}

	if err := vErr.errOrNil(); err != nil {
		return Meeting{}, err
	}
	return updated, nil
}


func (v *MutationValidator) priority(vErr *ValidationError, raw string) domain.Priority {
	p, ok := domain.ParsePriority(raw)
	if !ok {
		vErr.add("priority", "priority must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	return p
}

func (v *MutationValidator) status(vErr *ValidationError, raw string) domain.TaskStatus {
	s, ok := domain.ParseTaskStatus(raw)
	if !ok {
		vErr.add("status", "status must be one of BACKLOG, TODO, IN_PROGRESS, DONE")
	}
	return s
}

func (v *MutationValidator) timestamp(vErr *ValidationError, field, raw string) *time.Time {
	ts, err := v.calendar.Parse(raw)
	if err != nil {
		vErr.add(field, fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", field))
		return nil
	}
	ts = ts.UTC().Truncate(storedPrecision)
	return &ts
}

func (v *MutationValidator) checkTaskReferences(ctx context.Context, vErr *ValidationError, workspaceID string, projectID, ownerID, meetingID *string) error {
	if projectID != nil && v.projects != nil {
		project, err := v.projects.GetProject(ctx, *projectID)
		switch {
		case errors.Is(err, persistence.ErrNotFound) || (err == nil && project.WorkspaceID != workspaceID):
			vErr.add("projectId", "project does not exist in this workspace")
		case err != nil:
			return err
		}
	}
	if meetingID != nil && v.meetings != nil {
		meeting, err := v.meetings.GetMeeting(ctx, *meetingID)
		switch {
		case errors.Is(err, persistence.ErrNotFound) || (err == nil && meeting.WorkspaceID != workspaceID):
			vErr.add("meetingId", "meeting does not exist in this workspace")
		case err != nil:
			return err
		}
	}
	if ownerID != nil {
		member, err := v.isMember(ctx, *ownerID, workspaceID)
		if err != nil {
			return err
		}
		if !member {
			vErr.add("ownerId", "owner is not a member of this workspace")
		}
	}
	return nil
}

func (v *MutationValidator) participants(ctx context.Context, vErr *ValidationError, workspaceID string, organizers map[string]bool, ids []string) ([]Participant, error) {
	participants := make([]Participant, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			vErr.add("participantIds", "participant ids cannot be empty")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		member, err := v.isMember(ctx, id, workspaceID)
		if err != nil {
			return nil, err
		}
		if !member {
			vErr.add("participantIds", fmt.Sprintf("user %s is not a member of this workspace", id))
			continue
		}
		role := domain.ParticipantAttendee
		if organizers[id] {
			role = domain.ParticipantOrganizer
		}
		participants = append(participants, Participant{UserID: id, Role: role})
	}
	return participants, nil
}

func (v *MutationValidator) isMember(ctx context.Context, userID, workspaceID string) (bool, error) {
	if v.members == nil {
		return true, nil
	}
	_, err := v.members.GetMembership(ctx, userID, workspaceID)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func validateColor(vErr *ValidationError, color *string) {
	if color != nil && !colorPattern.MatchString(*color) {
		vErr.add("color", "color must be a hex value like #3b82f6")
	}
}

func validateMeetingSpan(vErr *ValidationError, meeting Meeting) {
	if meeting.EndTime != nil && !meeting.StartTime.IsZero() && meeting.EndTime.Before(meeting.StartTime) {
		vErr.add("endTime", "endTime must not be before startTime")
	}
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
