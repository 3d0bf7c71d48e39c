package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/command-center/internal/aggregation"
	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/persistence"
)

// SummaryService generates and lists weekly summaries.
type SummaryService struct {
	summaries   persistence.SummaryRepository
	tasks       persistence.TaskRepository
	meetings    persistence.MeetingRepository
	resolver    *MembershipResolver
	calendar    *calendar.Calendar
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSummaryService constructs a summary service.
func NewSummaryService(summaries persistence.SummaryRepository, tasks persistence.TaskRepository, meetings persistence.MeetingRepository, resolver *MembershipResolver, cal *calendar.Calendar, idGenerator func() string, now func() time.Time) *SummaryService {
	return NewSummaryServiceWithLogger(summaries, tasks, meetings, resolver, cal, idGenerator, now, nil)
}

// NewSummaryServiceWithLogger constructs a summary service with a specified logger.
func NewSummaryServiceWithLogger(summaries persistence.SummaryRepository, tasks persistence.TaskRepository, meetings persistence.MeetingRepository, resolver *MembershipResolver, cal *calendar.Calendar, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SummaryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now = storedClock(now)
	if cal == nil {
		cal = calendar.New(time.UTC)
	}
	return &SummaryService{
		summaries:   summaries,
		tasks:       tasks,
		meetings:    meetings,
		resolver:    resolver,
		calendar:    cal,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SummaryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SummaryService", operation, attrs...)
}

// GenerateSummary computes the summary of the week containing now and appends it.
func (s *SummaryService) GenerateSummary(ctx context.Context, principal Principal) (summary WeeklySummary, err error) {
	if s == nil {
		err = fmt.Errorf("SummaryService is nil")
		return
	}
	if s.summaries == nil || s.tasks == nil || s.meetings == nil {
		err = fmt.Errorf("summary repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "GenerateSummary", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate summary", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"summary_id", summary.ID,
			"tasks_completed", summary.TasksCompleted,
			"tasks_created", summary.TasksCreated,
			"meetings_held", summary.MeetingsHeld,
		).InfoContext(ctx, "summary generated")
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, principal)
	if err != nil {
		return
	}
	workspaceID := membership.WorkspaceID()
	now := s.now()

	var taskModels []persistence.Task
	taskModels, err = s.tasks.ListTasks(ctx, persistence.TaskFilter{WorkspaceID: workspaceID})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	window := s.calendar.Week(now)
	windowEnd := window.End.Add(time.Nanosecond)
	var meetingModels []persistence.Meeting
	meetingModels, err = s.meetings.ListMeetings(ctx, persistence.MeetingFilter{
		WorkspaceID:  workspaceID,
		StartsAfter:  &window.Start,
		StartsBefore: &windowEnd,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	week := aggregation.ComputeWeek(s.calendar, aggregationTasks(toTasks(taskModels)), aggregationMeetings(toMeetings(meetingModels)), now)
	summary = WeeklySummary{
		ID:             s.idGenerator(),
		WorkspaceID:    workspaceID,
		WeekStartDate:  week.Window.Start.UTC(),
		WeekEndDate:    week.Window.End.UTC(),
		Summary:        aggregation.SummaryText(week),
		TasksCompleted: week.TasksCompleted,
		TasksCreated:   week.TasksCreated,
		MeetingsHeld:   week.MeetingsHeld,
		TopPriorities:  week.TopPriorityText,
		GeneratedAt:    now,
	}

	err = s.summaries.CreateSummary(ctx, persistence.WeeklySummary{
		ID:             summary.ID,
		WorkspaceID:    summary.WorkspaceID,
		WeekStartDate:  summary.WeekStartDate,
		WeekEndDate:    summary.WeekEndDate,
		Summary:        summary.Summary,
		TasksCompleted: summary.TasksCompleted,
		TasksCreated:   summary.TasksCreated,
		MeetingsHeld:   summary.MeetingsHeld,
		TopPriorities:  summary.TopPriorities,
		GeneratedAt:    summary.GeneratedAt,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// ListSummaries returns the workspace's summaries, newest first. A non-positive
// limit returns all of them.
func (s *SummaryService) ListSummaries(ctx context.Context, principal Principal, limit int) (summaries []WeeklySummary, err error) {
	if s == nil {
		err = fmt.Errorf("SummaryService is nil")
		return
	}
	if s.summaries == nil {
		err = fmt.Errorf("summary repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListSummaries", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list summaries", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, principal)
	if err != nil {
		return
	}

	var models []persistence.WeeklySummary
	models, err = s.summaries.ListSummaries(ctx, membership.WorkspaceID(), limit)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	summaries = make([]WeeklySummary, 0, len(models))
	for _, model := range models {
		summaries = append(summaries, toSummary(model))
	}
	return
}
