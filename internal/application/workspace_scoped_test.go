package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/command-center/internal/application"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/testfixtures"
)

// wednesday is 2024-05-15 09:00 UTC; its week runs Sunday 12th to Saturday 18th.
var wednesday = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

type tenant struct {
	workspace testfixtures.WorkspaceFixture
	owner     testfixtures.UserFixture
	member    testfixtures.UserFixture
}

type scopedEnv struct {
	harness  *testfixtures.SQLiteHarness
	clock    *testfixtures.Clock
	services *testfixtures.Services
	alpha    tenant
	beta     tenant
}

func newScopedEnv(t *testing.T) *scopedEnv {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(wednesday)
	factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))

	env := &scopedEnv{
		harness:  harness,
		clock:    clock,
		services: factory.NewServices(harness.CoreDeps()),
		alpha: tenant{
			workspace: testfixtures.NewWorkspaceFixture(),
			owner:     testfixtures.NewUserFixture(),
			member:    testfixtures.NewUserFixture(),
		},
		beta: tenant{
			workspace: testfixtures.NewWorkspaceFixture(),
			owner:     testfixtures.NewUserFixture(),
			member:    testfixtures.NewUserFixture(),
		},
	}
	harness.Seed(t, env.alpha.workspace, env.alpha.owner, env.alpha.member)
	harness.Seed(t, env.beta.workspace, env.beta.owner, env.beta.member)
	return env
}

func (e *scopedEnv) addTask(t *testing.T, fixture testfixtures.TaskFixture) testfixtures.TaskFixture {
	t.Helper()
	if err := e.harness.Tasks.CreateTask(context.Background(), fixture.Persistence()); err != nil {
		t.Fatalf("failed to create task %s: %v", fixture.ID, err)
	}
	return fixture
}

func (e *scopedEnv) addProject(t *testing.T, fixture testfixtures.ProjectFixture) testfixtures.ProjectFixture {
	t.Helper()
	if err := e.harness.Projects.CreateProject(context.Background(), fixture.Persistence()); err != nil {
		t.Fatalf("failed to create project %s: %v", fixture.ID, err)
	}
	return fixture
}

func (e *scopedEnv) addMeeting(t *testing.T, fixture testfixtures.MeetingFixture) testfixtures.MeetingFixture {
	t.Helper()
	if err := e.harness.Meetings.CreateMeeting(context.Background(), fixture.Persistence()); err != nil {
		t.Fatalf("failed to create meeting %s: %v", fixture.ID, err)
	}
	return fixture
}

func ptr[T any](value T) *T {
	return &value
}

func taskIDs(tasks []application.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func meetingIDs(meetings []application.Meeting) []string {
	ids := make([]string, 0, len(meetings))
	for _, meeting := range meetings {
		ids = append(ids, meeting.ID)
	}
	return ids
}

func assertIDs(t *testing.T, label string, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: expected %v, got %v", label, want, got)
		}
	}
}

func TestDashboardView(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ws, owner := env.alpha.workspace.ID, env.alpha.owner.ID
	principal := env.alpha.owner.Principal()

	a := env.addTask(t, testfixtures.NewTaskFixture(ws, owner,
		testfixtures.WithTaskPriority(domain.PriorityUrgent),
		testfixtures.WithTaskDueDate(wednesday.Add(3*time.Hour)),
		testfixtures.WithTaskCreatedAt(wednesday.Add(-time.Hour))))
	b := env.addTask(t, testfixtures.NewTaskFixture(ws, owner,
		testfixtures.WithTaskPriority(domain.PriorityLow),
		testfixtures.WithTaskDueDate(wednesday.Add(24*time.Hour))))
	c := env.addTask(t, testfixtures.NewTaskFixture(ws, owner,
		testfixtures.WithTaskStatus(domain.StatusInProgress),
		testfixtures.WithTaskDueDate(wednesday.Add(5*24*time.Hour))))
	env.addTask(t, testfixtures.NewTaskFixture(ws, owner,
		testfixtures.WithTaskStatus(domain.StatusDone),
		testfixtures.WithTaskCompletedAt(wednesday.Add(-24*time.Hour)),
		testfixtures.WithTaskDueDate(wednesday.Add(-24*time.Hour))))
	e := env.addTask(t, testfixtures.NewTaskFixture(ws, owner,
		testfixtures.WithTaskDueDate(wednesday.Add(-24*time.Hour))))
	env.addTask(t, testfixtures.NewTaskFixture(env.beta.workspace.ID, env.beta.owner.ID,
		testfixtures.WithTaskPriority(domain.PriorityUrgent),
		testfixtures.WithTaskDueDate(wednesday)))

	monday := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(-2*24*time.Hour))))
	friday := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(2*24*time.Hour))))
	env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(5*24*time.Hour))))

	dashboard, err := env.services.Views.Dashboard(context.Background(), principal)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if dashboard.Workspace.ID != ws {
		t.Fatalf("expected workspace %s, got %s", ws, dashboard.Workspace.ID)
	}
	assertIDs(t, "todayTasks", taskIDs(dashboard.TodayTasks), a.ID, c.ID)
	assertIDs(t, "upcomingTasks", taskIDs(dashboard.UpcomingTasks), c.ID, b.ID)
	assertIDs(t, "meetings", meetingIDs(dashboard.Meetings), monday.ID, friday.ID)

	want := application.TaskStats{TotalTasks: 5, CompletedTasks: 1, InProgressTasks: 1, OverdueTasks: 1, CompletionRate: 20}
	if dashboard.Stats != want {
		t.Fatalf("expected stats %#v, got %#v", want, dashboard.Stats)
	}
	if dashboard.Stats.CompletedTasks+(dashboard.Stats.TotalTasks-dashboard.Stats.CompletedTasks) != dashboard.Stats.TotalTasks {
		t.Fatalf("completed and open tasks must add up to the total")
	}
	if dashboard.LatestSummary != nil {
		t.Fatalf("expected no summary yet, got %#v", dashboard.LatestSummary)
	}

	summary, err := env.services.Summaries.GenerateSummary(context.Background(), principal)
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if summary.TasksCompleted != 1 || summary.TasksCreated != 1 || summary.MeetingsHeld != 1 {
		t.Fatalf("unexpected summary counts %#v", summary)
	}
	wantTop := []string{a.Title, e.Title, c.Title}
	assertIDs(t, "topPriorities", summary.TopPriorities, wantTop...)
	if !summary.WeekStartDate.Equal(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start %v", summary.WeekStartDate)
	}

	dashboard, err = env.services.Views.Dashboard(context.Background(), principal)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dashboard.LatestSummary == nil || dashboard.LatestSummary.ID != summary.ID {
		t.Fatalf("expected latest summary %s, got %#v", summary.ID, dashboard.LatestSummary)
	}

	empty, err := env.services.Views.Dashboard(context.Background(), env.beta.member.Principal())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if empty.Stats.TotalTasks != 1 || len(empty.Meetings) != 0 {
		t.Fatalf("expected dashboard scoped to beta, got %#v", empty.Stats)
	}
}

func TestKanbanView(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ws, owner := env.alpha.workspace.ID, env.alpha.owner.ID
	principal := env.alpha.owner.Principal()

	project := env.addProject(t, testfixtures.NewProjectFixture(ws))
	emptyProject := env.addProject(t, testfixtures.NewProjectFixture(ws))
	done := env.addTask(t, testfixtures.NewTaskFixture(ws, owner, testfixtures.WithTaskProject(project.ID), testfixtures.WithTaskStatus(domain.StatusDone)))
	todo := env.addTask(t, testfixtures.NewTaskFixture(ws, owner, testfixtures.WithTaskProject(project.ID)))
	backlog := env.addTask(t, testfixtures.NewTaskFixture(ws, owner, testfixtures.WithTaskProject(project.ID), testfixtures.WithTaskStatus(domain.StatusBacklog)))
	env.addTask(t, testfixtures.NewTaskFixture(ws, owner))

	board, err := env.services.Views.Board(context.Background(), principal, project.ID)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	if board.TotalTasks != 3 || board.DoneTasks != 1 || board.Completion != 33 {
		t.Fatalf("unexpected board totals %d/%d/%d", board.TotalTasks, board.DoneTasks, board.Completion)
	}
	wantColumns := []domain.TaskStatus{domain.StatusBacklog, domain.StatusTodo, domain.StatusInProgress, domain.StatusDone}
	if len(board.Columns) != len(wantColumns) {
		t.Fatalf("expected %d columns, got %d", len(wantColumns), len(board.Columns))
	}
	for i, status := range wantColumns {
		if board.Columns[i].Status != status {
			t.Fatalf("column %d: expected %s, got %s", i, status, board.Columns[i].Status)
		}
	}
	assertIDs(t, "backlog", taskIDs(board.Columns[0].Tasks), backlog.ID)
	assertIDs(t, "todo", taskIDs(board.Columns[1].Tasks), todo.ID)
	assertIDs(t, "in progress", taskIDs(board.Columns[2].Tasks))
	assertIDs(t, "done", taskIDs(board.Columns[3].Tasks), done.ID)

	emptyBoard, err := env.services.Views.Board(context.Background(), principal, emptyProject.ID)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	if emptyBoard.TotalTasks != 0 || emptyBoard.Completion != 0 {
		t.Fatalf("expected empty board at 0%%, got %#v", emptyBoard)
	}

	if _, err := env.services.Views.Board(context.Background(), env.beta.owner.Principal(), project.ID); !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.services.Views.Board(context.Background(), principal, "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMeetingsAndProjectsViews(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ws, owner := env.alpha.workspace.ID, env.alpha.owner.ID
	principal := env.alpha.member.Principal()

	lastWeek := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(-7*24*time.Hour))))
	yesterday := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(-24*time.Hour))))
	nextWeek := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(7*24*time.Hour))))
	tomorrow := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingStart(wednesday.Add(24*time.Hour))))
	env.addMeeting(t, testfixtures.NewMeetingFixture(env.beta.workspace.ID, testfixtures.WithMeetingStart(wednesday.Add(time.Hour))))

	overview, err := env.services.Views.Meetings(context.Background(), principal)
	if err != nil {
		t.Fatalf("Meetings failed: %v", err)
	}
	assertIDs(t, "upcoming", meetingIDs(overview.Upcoming), tomorrow.ID, nextWeek.ID)
	assertIDs(t, "past", meetingIDs(overview.Past), yesterday.ID, lastWeek.ID)

	older := env.addProject(t, testfixtures.NewProjectFixture(ws, testfixtures.WithProjectCreatedAt(wednesday.Add(-48*time.Hour))))
	newer := env.addProject(t, testfixtures.NewProjectFixture(ws, testfixtures.WithProjectCreatedAt(wednesday.Add(-24*time.Hour))))
	env.addProject(t, testfixtures.NewProjectFixture(ws, testfixtures.WithProjectStatus("archived")))
	env.addTask(t, testfixtures.NewTaskFixture(ws, owner, testfixtures.WithTaskProject(older.ID), testfixtures.WithTaskStatus(domain.StatusDone)))
	env.addTask(t, testfixtures.NewTaskFixture(ws, owner, testfixtures.WithTaskProject(older.ID)))

	progress, err := env.services.Views.Projects(context.Background(), principal)
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 active projects, got %d", len(progress))
	}
	if progress[0].Project.ID != newer.ID || progress[1].Project.ID != older.ID {
		t.Fatalf("expected newest project first, got %s, %s", progress[0].Project.ID, progress[1].Project.ID)
	}
	if progress[0].TotalTasks != 0 || progress[0].Progress != 0 {
		t.Fatalf("unexpected progress for empty project %#v", progress[0])
	}
	if progress[1].TotalTasks != 2 || progress[1].DoneTasks != 1 || progress[1].Progress != 50 {
		t.Fatalf("unexpected progress %#v", progress[1])
	}
}

func TestCrossWorkspaceAccessIsForbidden(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ctx := context.Background()
	ws, owner := env.alpha.workspace.ID, env.alpha.owner.ID
	outsider := env.beta.owner.Principal()

	task := env.addTask(t, testfixtures.NewTaskFixture(ws, owner))
	project := env.addProject(t, testfixtures.NewProjectFixture(ws))
	meeting := env.addMeeting(t, testfixtures.NewMeetingFixture(ws, testfixtures.WithMeetingOrganizer(owner)))

	checks := []struct {
		name string
		call func() error
	}{
		{"get task", func() error { _, err := env.services.Tasks.GetTask(ctx, outsider, task.ID); return err }},
		{"update task", func() error {
			_, err := env.services.Tasks.UpdateTask(ctx, application.UpdateTaskParams{Principal: outsider, TaskID: task.ID, Patch: application.TaskPatch{Title: ptr("hijacked")}})
			return err
		}},
		{"delete task", func() error { return env.services.Tasks.DeleteTask(ctx, outsider, task.ID) }},
		{"get project", func() error { _, err := env.services.Projects.GetProject(ctx, outsider, project.ID); return err }},
		{"update project", func() error {
			_, err := env.services.Projects.UpdateProject(ctx, application.UpdateProjectParams{Principal: outsider, ProjectID: project.ID, Patch: application.ProjectPatch{Name: ptr("hijacked")}})
			return err
		}},
		{"delete project", func() error { return env.services.Projects.DeleteProject(ctx, outsider, project.ID) }},
		{"get meeting", func() error { _, err := env.services.Meetings.GetMeeting(ctx, outsider, meeting.ID); return err }},
		{"update meeting", func() error {
			_, err := env.services.Meetings.UpdateMeeting(ctx, application.UpdateMeetingParams{Principal: outsider, MeetingID: meeting.ID, Patch: application.MeetingPatch{Title: ptr("hijacked")}})
			return err
		}},
		{"delete meeting", func() error { return env.services.Meetings.DeleteMeeting(ctx, outsider, meeting.ID) }},
	}
	for _, check := range checks {
		if err := check.call(); !errors.Is(err, application.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", check.name, err)
		}
	}

	stored, err := env.harness.Tasks.GetTask(ctx, task.ID)
	if err != nil || stored.Title != task.Title {
		t.Fatalf("expected task untouched, got %#v (%v)", stored, err)
	}
	if _, err := env.harness.Projects.GetProject(ctx, project.ID); err != nil {
		t.Fatalf("expected project to survive: %v", err)
	}
	if _, err := env.harness.Meetings.GetMeeting(ctx, meeting.ID); err != nil {
		t.Fatalf("expected meeting to survive: %v", err)
	}

	if _, err := env.services.Tasks.GetTask(ctx, outsider, "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown task, got %v", err)
	}
	if _, err := env.services.Tasks.GetTask(ctx, application.Principal{}, task.ID); !errors.Is(err, application.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	listed, err := env.services.Tasks.ListTasks(ctx, application.ListTasksParams{Principal: outsider})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no foreign tasks, got %v", taskIDs(listed))
	}

	_, err = env.services.Tasks.CreateTask(ctx, application.CreateTaskParams{
		Principal: outsider,
		Input:     application.TaskInput{Title: "Sneaky", ProjectID: ptr(project.ID), MeetingID: ptr(meeting.ID)},
	})
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["projectId"]; !ok {
		t.Fatalf("expected projectId error, got %#v", vErr.FieldErrors)
	}
	if _, ok := vErr.FieldErrors["meetingId"]; !ok {
		t.Fatalf("expected meetingId error, got %#v", vErr.FieldErrors)
	}

	noWorkspace := testfixtures.NewUserFixture()
	if err := env.harness.Users.CreateUser(ctx, noWorkspace.Persistence()); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := env.services.Tasks.ListTasks(ctx, application.ListTasksParams{Principal: noWorkspace.Principal()}); !errors.Is(err, application.ErrNoWorkspace) {
		t.Fatalf("expected ErrNoWorkspace, got %v", err)
	}
	if _, err := env.services.Tasks.GetTask(ctx, noWorkspace.Principal(), task.ID); !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for an existing task outside any workspace, got %v", err)
	}
	if _, err := env.services.Meetings.GetMeeting(ctx, noWorkspace.Principal(), meeting.ID); !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for an existing meeting outside any workspace, got %v", err)
	}
	if _, err := env.services.Tasks.GetTask(ctx, noWorkspace.Principal(), "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown task, got %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ctx := context.Background()
	principal := env.alpha.member.Principal()
	project := env.addProject(t, testfixtures.NewProjectFixture(env.alpha.workspace.ID))

	created, err := env.services.Tasks.CreateTask(ctx, application.CreateTaskParams{
		Principal: principal,
		Input:     application.TaskInput{Title: "X"},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Priority != domain.PriorityMedium || created.Status != domain.StatusTodo || created.DueDate != nil {
		t.Fatalf("unexpected defaults %#v", created)
	}

	fetched, err := env.services.Tasks.GetTask(ctx, env.alpha.owner.Principal(), created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if fetched.Title != "X" || fetched.CreatedByID != principal.UserID || fetched.WorkspaceID != env.alpha.workspace.ID {
		t.Fatalf("unexpected round trip %#v", fetched)
	}

	env.clock.Advance(time.Hour)
	completedAt := env.clock.Now()
	done, err := env.services.Tasks.UpdateTask(ctx, application.UpdateTaskParams{
		Principal: principal,
		TaskID:    created.ID,
		Patch: application.TaskPatch{
			Status:    ptr("DONE"),
			ProjectID: application.Nullable[string]{Set: true, Value: ptr(project.ID)},
		},
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected completedAt %v, got %v", completedAt, done.CompletedAt)
	}

	env.clock.Advance(time.Hour)
	renamed, err := env.services.Tasks.UpdateTask(ctx, application.UpdateTaskParams{
		Principal: principal,
		TaskID:    created.ID,
		Patch:     application.TaskPatch{Title: ptr("Y"), Status: ptr("IN_PROGRESS")},
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if renamed.CompletedAt == nil || !renamed.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected completedAt to be kept, got %v", renamed.CompletedAt)
	}

	filtered, err := env.services.Tasks.ListTasks(ctx, application.ListTasksParams{
		Principal: principal,
		Filter:    application.TaskListFilter{ProjectID: ptr(project.ID), Status: ptr("IN_PROGRESS")},
	})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	assertIDs(t, "filtered", taskIDs(filtered), created.ID)

	if _, err := env.services.Tasks.ListTasks(ctx, application.ListTasksParams{
		Principal: principal,
		Filter:    application.TaskListFilter{Status: ptr("ARCHIVED")},
	}); err == nil {
		t.Fatalf("expected invalid status filter to fail")
	}

	if err := env.services.Projects.DeleteProject(ctx, principal, project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	orphan, err := env.services.Tasks.GetTask(ctx, principal, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if orphan.ProjectID != nil {
		t.Fatalf("expected task to be detached from deleted project, got %v", *orphan.ProjectID)
	}

	if err := env.services.Tasks.DeleteTask(ctx, principal, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := env.services.Tasks.GetTask(ctx, principal, created.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTimestampsRoundTripThroughStorage(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ctx := context.Background()
	principal := env.alpha.owner.Principal()
	env.clock.Set(wednesday.Add(123456789 * time.Nanosecond))

	created, err := env.services.Tasks.CreateTask(ctx, application.CreateTaskParams{
		Principal: principal,
		Input:     application.TaskInput{Title: "Precise", DueDate: ptr("2024-05-20T10:00:00.123456789Z")},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	wantDue := time.Date(2024, 5, 20, 10, 0, 0, 123456000, time.UTC)
	if created.DueDate == nil || !created.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date truncated to %v, got %v", wantDue, created.DueDate)
	}

	fetched, err := env.services.Tasks.GetTask(ctx, principal, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !fetched.DueDate.Equal(*created.DueDate) || !fetched.CreatedAt.Equal(created.CreatedAt) || !fetched.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected create and get to agree, created %#v fetched %#v", created, fetched)
	}

	meeting, err := env.services.Meetings.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal: principal,
		Input:     application.MeetingInput{Title: "Precise", StartTime: "2024-05-20T10:00:00.999999999Z"},
	})
	if err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	storedMeeting, err := env.services.Meetings.GetMeeting(ctx, principal, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if !storedMeeting.StartTime.Equal(meeting.StartTime) || !storedMeeting.CreatedAt.Equal(meeting.CreatedAt) {
		t.Fatalf("expected create and get to agree, created %#v fetched %#v", meeting, storedMeeting)
	}
}

func TestMeetingLifecycle(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ctx := context.Background()
	principal := env.alpha.owner.Principal()

	solo, err := env.services.Meetings.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal: principal,
		Input:     application.MeetingInput{Title: "Planning", StartTime: "2024-05-16T10:00:00Z"},
	})
	if err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	fetched, err := env.services.Meetings.GetMeeting(ctx, principal, solo.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if len(fetched.Participants) != 1 {
		t.Fatalf("expected exactly one participant, got %#v", fetched.Participants)
	}
	if p := fetched.Participants[0]; p.UserID != principal.UserID || p.Role != domain.ParticipantOrganizer {
		t.Fatalf("expected creator as organizer, got %#v", p)
	}

	group, err := env.services.Meetings.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal: principal,
		Input: application.MeetingInput{
			Title:          "Review",
			StartTime:      "2024-05-14T10:00:00Z",
			EndTime:        ptr("2024-05-14T11:00:00Z"),
			ParticipantIDs: []string{principal.UserID, env.alpha.member.ID},
		},
	})
	if err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	if _, err := env.services.Meetings.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal: principal,
		Input:     application.MeetingInput{Title: "Leak", StartTime: "2024-05-14T10:00:00Z", ParticipantIDs: []string{env.beta.owner.ID}},
	}); err == nil {
		t.Fatalf("expected foreign participant to be rejected")
	}

	upcoming, err := env.services.Meetings.ListMeetings(ctx, application.ListMeetingsParams{Principal: principal, Window: application.MeetingWindowUpcoming})
	if err != nil {
		t.Fatalf("ListMeetings failed: %v", err)
	}
	assertIDs(t, "upcoming", meetingIDs(upcoming), solo.ID)
	all, err := env.services.Meetings.ListMeetings(ctx, application.ListMeetingsParams{Principal: principal})
	if err != nil {
		t.Fatalf("ListMeetings failed: %v", err)
	}
	assertIDs(t, "all", meetingIDs(all), solo.ID, group.ID)

	followUp, err := env.services.Tasks.CreateTask(ctx, application.CreateTaskParams{
		Principal: principal,
		Input:     application.TaskInput{Title: "Follow up", MeetingID: ptr(group.ID)},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	updated, err := env.services.Meetings.UpdateMeeting(ctx, application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: group.ID,
		Patch:     application.MeetingPatch{EndTime: application.Nullable[string]{Set: true}, Notes: application.Nullable[string]{Set: true, Value: ptr("Ship it")}},
	})
	if err != nil {
		t.Fatalf("UpdateMeeting failed: %v", err)
	}
	if updated.EndTime != nil || updated.Notes == nil || len(updated.Participants) != 2 {
		t.Fatalf("unexpected update result %#v", updated)
	}
	stored, err := env.services.Meetings.GetMeeting(ctx, principal, group.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if stored.EndTime != nil || len(stored.Participants) != 2 {
		t.Fatalf("expected end time cleared and participants kept, got %#v", stored)
	}
	if len(stored.FollowUpTasks) != 1 || stored.FollowUpTasks[0].ID != followUp.ID {
		t.Fatalf("expected follow-up task on meeting read, got %#v", stored.FollowUpTasks)
	}
	if len(updated.FollowUpTasks) != 1 || updated.FollowUpTasks[0].ID != followUp.ID {
		t.Fatalf("expected follow-up task on meeting update, got %#v", updated.FollowUpTasks)
	}

	byMeeting, err := env.services.Tasks.ListTasks(ctx, application.ListTasksParams{
		Principal: principal,
		Filter:    application.TaskListFilter{MeetingID: ptr(group.ID)},
	})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	assertIDs(t, "by meeting", taskIDs(byMeeting), followUp.ID)

	regrouped, err := env.services.Meetings.UpdateMeeting(ctx, application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: group.ID,
		Patch:     application.MeetingPatch{ParticipantIDs: []string{env.alpha.member.ID}},
	})
	if err != nil {
		t.Fatalf("UpdateMeeting failed: %v", err)
	}
	if len(regrouped.Participants) != 1 || regrouped.Participants[0].UserID != env.alpha.member.ID || regrouped.Participants[0].Role != domain.ParticipantAttendee {
		t.Fatalf("expected participants replaced, got %#v", regrouped.Participants)
	}
	reread, err := env.services.Meetings.GetMeeting(ctx, principal, group.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if len(reread.Participants) != 1 || reread.Participants[0].UserID != env.alpha.member.ID {
		t.Fatalf("expected stored participants replaced, got %#v", reread.Participants)
	}
	if _, err := env.services.Meetings.UpdateMeeting(ctx, application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: group.ID,
		Patch:     application.MeetingPatch{ParticipantIDs: []string{env.beta.owner.ID}},
	}); err == nil {
		t.Fatalf("expected foreign participant to be rejected on update")
	}

	if err := env.services.Meetings.DeleteMeeting(ctx, principal, group.ID); err != nil {
		t.Fatalf("DeleteMeeting failed: %v", err)
	}
	task, err := env.services.Tasks.GetTask(ctx, principal, followUp.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.MeetingID != nil {
		t.Fatalf("expected follow-up task detached from deleted meeting")
	}
}

func TestCreateWithoutRepositoryFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	principal := application.Principal{UserID: "user-1"}

	checks := []struct {
		name string
		want string
		call func() error
	}{
		{"task", "task repository not configured", func() error {
			_, err := application.NewTaskService(nil, nil, nil, nil, nil, nil).
				CreateTask(ctx, application.CreateTaskParams{Principal: principal, Input: application.TaskInput{Title: "X"}})
			return err
		}},
		{"project", "project repository not configured", func() error {
			_, err := application.NewProjectService(nil, nil, nil, nil, nil, nil).
				CreateProject(ctx, application.CreateProjectParams{Principal: principal})
			return err
		}},
		{"meeting", "meeting repository not configured", func() error {
			_, err := application.NewMeetingService(nil, nil, nil, nil, nil, nil, nil).
				CreateMeeting(ctx, application.CreateMeetingParams{Principal: principal, Input: application.MeetingInput{Title: "X", StartTime: "2024-05-16"}})
			return err
		}},
	}
	for _, check := range checks {
		if err := check.call(); err == nil || !strings.Contains(err.Error(), check.want) {
			t.Fatalf("%s: expected %q, got %v", check.name, check.want, err)
		}
	}
}

func TestWorkspaceOnboarding(t *testing.T) {
	t.Parallel()

	env := newScopedEnv(t)
	ctx := context.Background()

	newcomer := func() application.Principal {
		user := testfixtures.NewUserFixture()
		if err := env.harness.Users.CreateUser(ctx, user.Persistence()); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		return user.Principal()
	}

	first := newcomer()
	membership, err := env.services.Workspaces.CreateWorkspace(ctx, application.CreateWorkspaceParams{Principal: first, Name: "Alex's Startup"})
	if err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if membership.Workspace.Slug != "alex-s-startup" || membership.Role != domain.RoleOwner {
		t.Fatalf("unexpected membership %#v", membership)
	}
	resolved, err := env.services.Workspaces.CurrentMembership(ctx, first)
	if err != nil || resolved.WorkspaceID() != membership.WorkspaceID() {
		t.Fatalf("expected new workspace to resolve, got %#v (%v)", resolved, err)
	}

	second := newcomer()
	other, err := env.services.Workspaces.CreateWorkspace(ctx, application.CreateWorkspaceParams{Principal: second, Name: "Alex's Startup"})
	if err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if other.Workspace.Slug != "alex-s-startup-2" {
		t.Fatalf("expected suffixed slug, got %q", other.Workspace.Slug)
	}

	if _, err := env.services.Workspaces.CreateWorkspace(ctx, application.CreateWorkspaceParams{Principal: first, Name: "Another"}); !errors.Is(err, application.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for second workspace, got %v", err)
	}
	if _, err := env.services.Workspaces.CreateWorkspace(ctx, application.CreateWorkspaceParams{Principal: newcomer(), Name: "Taken", Slug: "alex-s-startup"}); !errors.Is(err, application.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for taken slug, got %v", err)
	}
	if _, err := env.services.Workspaces.CreateWorkspace(ctx, application.CreateWorkspaceParams{Principal: newcomer()}); err == nil {
		t.Fatalf("expected missing name to fail validation")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Alex's Startup":   "alex-s-startup",
		"  Hello, World! ": "hello-world",
		"ACME 2024":        "acme-2024",
		"!!!":              "",
	}
	for input, want := range cases {
		if got := application.Slugify(input); got != want {
			t.Fatalf("Slugify(%q): expected %q, got %q", input, want, got)
		}
	}
}
