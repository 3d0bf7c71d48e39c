package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/command-center/internal/persistence"
)

// MeetingService scopes meeting reads and writes to the caller's workspace.
type MeetingService struct {
	meetings    persistence.MeetingRepository
	tasks       persistence.TaskRepository
	resolver    *MembershipResolver
	guard       *AccessGuard
	validator   *MutationValidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService constructs a meeting service with the provided
// dependencies. tasks supplies the follow-up tasks of single-meeting reads.
func NewMeetingService(meetings persistence.MeetingRepository, tasks persistence.TaskRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, tasks, resolver, guard, validator, idGenerator, now, nil)
}

// NewMeetingServiceWithLogger constructs a meeting service with a specified logger.
func NewMeetingServiceWithLogger(meetings persistence.MeetingRepository, tasks persistence.TaskRepository, resolver *MembershipResolver, guard *AccessGuard, validator *MutationValidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now = storedClock(now)
	if validator == nil {
		validator = NewMutationValidator(nil, nil, nil, nil)
	}
	return &MeetingService{
		meetings:    meetings,
		tasks:       tasks,
		resolver:    resolver,
		guard:       guard,
		validator:   validator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// ListMeetings returns the workspace's meetings by start time descending,
// optionally restricted to upcoming or past meetings.
func (s *MeetingService) ListMeetings(ctx context.Context, params ListMeetingsParams) (meetings []Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListMeetings",
		"principal_id", params.Principal.UserID,
		"window", string(params.Window),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, params.Principal)
	if err != nil {
		return
	}

	filter := persistence.MeetingFilter{WorkspaceID: membership.WorkspaceID()}
	now := s.now()
	switch params.Window {
	case MeetingWindowUpcoming:
		filter.StartsAfter = &now
	case MeetingWindowPast:
		filter.StartsBefore = &now
	case MeetingWindowAll:
	default:
		vErr := &ValidationError{}
		vErr.add("upcoming", "upcoming must be true or false")
		err = vErr
		return
	}

	var models []persistence.Meeting
	models, err = s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	meetings = toMeetings(models)
	return
}

// CreateMeeting validates input and persists the meeting and its participants
// atomically in the caller's workspace.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (meeting Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateMeeting", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"meeting_id", meeting.ID,
			"participant_count", len(meeting.Participants),
		).InfoContext(ctx, "meeting created")
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, params.Principal)
	if err != nil {
		return
	}

	meeting, err = s.validator.ValidateMeetingCreate(ctx, membership.WorkspaceID(), params.Principal.UserID, params.Input)
	if err != nil {
		return
	}
	meeting.ID = s.idGenerator()
	meeting.CreatedAt = s.now()
	meeting.UpdatedAt = meeting.CreatedAt

	if err = s.meetings.CreateMeeting(ctx, toPersistenceMeeting(meeting)); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// GetMeeting returns a meeting of the caller's workspace with its
// participants and follow-up tasks.
func (s *MeetingService) GetMeeting(ctx context.Context, principal Principal, meetingID string) (meeting Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	defer func() {
		if err != nil {
			s.loggerWith(ctx, "GetMeeting", "principal_id", principal.UserID, "meeting_id", meetingID).
				ErrorContext(ctx, "failed to get meeting", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	meeting, _, err = s.guard.AuthorizeMeeting(ctx, principal, strings.TrimSpace(meetingID))
	if err != nil {
		return
	}
	meeting.FollowUpTasks, err = s.followUpTasks(ctx, meeting)
	if err != nil {
		meeting = Meeting{}
	}
	return
}

// UpdateMeeting applies a partial update to a meeting of the caller's
// workspace. Participants are replaced only when the patch lists them.
func (s *MeetingService) UpdateMeeting(ctx context.Context, params UpdateMeetingParams) (meeting Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateMeeting",
		"principal_id", params.Principal.UserID,
		"meeting_id", params.MeetingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("participant_count", len(meeting.Participants)).InfoContext(ctx, "meeting updated")
	}()

	var existing Meeting
	existing, _, err = s.guard.AuthorizeMeeting(ctx, params.Principal, strings.TrimSpace(params.MeetingID))
	if err != nil {
		return
	}

	var updated Meeting
	updated, err = s.validator.ValidateMeetingPatch(ctx, existing, params.Patch)
	if err != nil {
		return
	}
	updated.UpdatedAt = s.now()

	if err = s.meetings.UpdateMeeting(ctx, toPersistenceMeeting(updated)); err != nil {
		err = mapRepoError(err)
		return
	}

	if updated.Participants == nil {
		updated.Participants = existing.Participants
	}
	updated.FollowUpTasks, err = s.followUpTasks(ctx, updated)
	if err != nil {
		return
	}
	meeting = updated
	return
}

func (s *MeetingService) followUpTasks(ctx context.Context, meeting Meeting) ([]Task, error) {
	if s.tasks == nil {
		return nil, fmt.Errorf("task repository not configured")
	}
	meetingID := meeting.ID
	models, err := s.tasks.ListTasks(ctx, persistence.TaskFilter{
		WorkspaceID: meeting.WorkspaceID,
		MeetingID:   &meetingID,
		Order:       persistence.TaskOrderCreated,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return toTasks(models), nil
}

// DeleteMeeting removes a meeting of the caller's workspace. Follow-up tasks
// remain without the meeting link.
func (s *MeetingService) DeleteMeeting(ctx context.Context, principal Principal, meetingID string) error {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMeeting",
		"principal_id", principal.UserID,
		"meeting_id", meetingID,
	)

	meeting, _, err := s.guard.AuthorizeMeeting(ctx, principal, strings.TrimSpace(meetingID))
	if err == nil {
		err = mapRepoError(s.meetings.DeleteMeeting(ctx, meeting.ID))
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "meeting deleted")
	return nil
}
