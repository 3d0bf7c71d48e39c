package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/command-center/internal/aggregation"
	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

// ViewService builds the read-only aggregate views of a workspace.
type ViewService struct {
	tasks     persistence.TaskRepository
	projects  persistence.ProjectRepository
	meetings  persistence.MeetingRepository
	summaries persistence.SummaryRepository
	resolver  *MembershipResolver
	guard     *AccessGuard
	calendar  *calendar.Calendar
	now       func() time.Time
	logger    *slog.Logger
}

// ViewRepositories groups the repositories read by ViewService.
type ViewRepositories struct {
	Tasks     persistence.TaskRepository
	Projects  persistence.ProjectRepository
	Meetings  persistence.MeetingRepository
	Summaries persistence.SummaryRepository
}

// NewViewService constructs a view service.
func NewViewService(repos ViewRepositories, resolver *MembershipResolver, guard *AccessGuard, cal *calendar.Calendar, now func() time.Time) *ViewService {
	return NewViewServiceWithLogger(repos, resolver, guard, cal, now, nil)
}

// NewViewServiceWithLogger constructs a view service with a specified logger.
func NewViewServiceWithLogger(repos ViewRepositories, resolver *MembershipResolver, guard *AccessGuard, cal *calendar.Calendar, now func() time.Time, logger *slog.Logger) *ViewService {
	now = storedClock(now)
	if cal == nil {
		cal = calendar.New(time.UTC)
	}
	return &ViewService{
		tasks:     repos.Tasks,
		projects:  repos.Projects,
		meetings:  repos.Meetings,
		summaries: repos.Summaries,
		resolver:  resolver,
		guard:     guard,
		calendar:  cal,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *ViewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ViewService", operation, attrs...)
}

func (s *ViewService) configured() error {
	if s == nil {
		return fmt.Errorf("ViewService is nil")
	}
	if s.tasks == nil || s.projects == nil || s.meetings == nil || s.summaries == nil {
		return fmt.Errorf("view repositories not configured")
	}
	return nil
}

// Dashboard returns today's and upcoming tasks, this week's meetings, task
// stats and the latest weekly summary of the caller's workspace.
func (s *ViewService) Dashboard(ctx context.Context, principal Principal) (dashboard Dashboard, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Dashboard", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build dashboard", "error", err, "error_kind", ErrorKind(err))
		}
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
	tasks := toTasks(taskModels)

	week := s.calendar.Week(now)
	weekEnd := week.End.Add(time.Nanosecond)
	var meetingModels []persistence.Meeting
	meetingModels, err = s.meetings.ListMeetings(ctx, persistence.MeetingFilter{
		WorkspaceID:   workspaceID,
		StartsAfter:   &week.Start,
		StartsBefore:  &weekEnd,
		AscendingTime: true,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	meetings := toMeetings(meetingModels)

	view := aggregation.ComputeDashboard(s.calendar, aggregationTasks(tasks), aggregationMeetings(meetings), now)
	dashboard = Dashboard{
		Workspace:     membership.Workspace,
		TodayTasks:    pickTasks(tasks, view.TodayTaskIDs),
		UpcomingTasks: pickTasks(tasks, view.UpcomingTaskIDs),
		Meetings:      pickMeetings(meetings, view.MeetingIDs),
		Stats:         TaskStats(view.Stats),
	}

	var latest persistence.WeeklySummary
	latest, err = s.summaries.LatestSummary(ctx, workspaceID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		err = nil
	case err != nil:
		err = mapRepoError(err)
		return
	default:
		summary := toSummary(latest)
		dashboard.LatestSummary = &summary
	}
	return
}

// Board groups a project's tasks into the four status columns.
func (s *ViewService) Board(ctx context.Context, principal Principal, projectID string) (board Board, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Board", "principal_id", principal.UserID, "project_id", projectID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build board", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var project Project
	project, _, err = s.guard.AuthorizeProject(ctx, principal, strings.TrimSpace(projectID))
	if err != nil {
		return
	}

	var models []persistence.Task
	models, err = s.tasks.ListTasks(ctx, persistence.TaskFilter{WorkspaceID: project.WorkspaceID, ProjectID: &project.ID})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	tasks := toTasks(models)

	view := aggregation.ComputeBoard(aggregationTasks(tasks))
	board = Board{
		Project:    project,
		Columns:    make([]BoardColumn, 0, len(view.Columns)),
		TotalTasks: view.Total,
		DoneTasks:  view.Done,
		Completion: view.Completion,
	}
	for _, column := range view.Columns {
		board.Columns = append(board.Columns, BoardColumn{Status: column.Status, Tasks: pickTasks(tasks, column.TaskIDs)})
	}
	return
}

// Meetings returns the workspace's 50 most recent meetings split into upcoming,
// soonest first, and past, most recent first.
func (s *ViewService) Meetings(ctx context.Context, principal Principal) (overview MeetingsOverview, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Meetings", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build meetings view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, principal)
	if err != nil {
		return
	}

	var models []persistence.Meeting
	models, err = s.meetings.ListMeetings(ctx, persistence.MeetingFilter{
		WorkspaceID: membership.WorkspaceID(),
		Limit:       aggregation.MeetingsPageLimit,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	meetings := toMeetings(models)

	partition := aggregation.PartitionMeetings(aggregationMeetings(meetings), s.now())
	overview = MeetingsOverview{
		Upcoming: pickMeetings(meetings, partition.UpcomingIDs),
		Past:     pickMeetings(meetings, partition.PastIDs),
	}
	return
}

// Projects returns the workspace's active projects, newest first, with their
// completion progress.
func (s *ViewService) Projects(ctx context.Context, principal Principal) (projects []ProjectProgress, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Projects", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build projects view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var membership Membership
	membership, err = s.resolver.Resolve(ctx, principal)
	if err != nil {
		return
	}
	workspaceID := membership.WorkspaceID()

	active := domain.ProjectStatusActive
	var projectModels []persistence.Project
	projectModels, err = s.projects.ListProjects(ctx, persistence.ProjectFilter{WorkspaceID: workspaceID, Status: &active})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var taskModels []persistence.Task
	taskModels, err = s.tasks.ListTasks(ctx, persistence.TaskFilter{WorkspaceID: workspaceID})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	byProject := make(map[string][]aggregation.Task)
	for _, task := range aggregationTasksFromModels(taskModels) {
		byProject[task.projectID] = append(byProject[task.projectID], task.Task)
	}

	projects = make([]ProjectProgress, 0, len(projectModels))
	for _, model := range projectModels {
		progress := aggregation.ComputeProgress(byProject[model.ID])
		projects = append(projects, ProjectProgress{
			Project:    toProject(model),
			TotalTasks: progress.Total,
			DoneTasks:  progress.Done,
			Progress:   progress.Percent,
		})
	}
	return
}

type projectTask struct {
	aggregation.Task
	projectID string
}

func aggregationTasksFromModels(models []persistence.Task) []projectTask {
	tasks := toTasks(models)
	converted := aggregationTasks(tasks)
	out := make([]projectTask, 0, len(models))
	for i, task := range converted {
		if tasks[i].ProjectID == nil {
			continue
		}
		out = append(out, projectTask{Task: task, projectID: *tasks[i].ProjectID})
	}
	return out
}
