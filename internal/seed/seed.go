// Package seed loads the demo workspace used for local development.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/domain"
	"github.com/example/command-center/internal/persistence"
)

//go:embed demo.yaml
var demoData []byte

const day = 24 * time.Hour

// Dataset describes one workspace with its owner and content. Day offsets are
// applied to the time the seed runs.
type Dataset struct {
	Owner     Owner     `yaml:"owner"`
	Workspace Workspace `yaml:"workspace"`
	Projects  []Project `yaml:"projects"`
	Meetings  []Meeting `yaml:"meetings"`
	Summary   *Summary  `yaml:"summary"`
}

type Owner struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

type Workspace struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Tasks       []Task `yaml:"tasks"`
}

type Task struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Priority        string `yaml:"priority"`
	Status          string `yaml:"status"`
	DueInDays       *int   `yaml:"dueInDays"`
	CompletedInDays *int   `yaml:"completedInDays"`
}

type Meeting struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	StartInDays int           `yaml:"startInDays"`
	Duration    time.Duration `yaml:"duration"`
	Notes       string        `yaml:"notes"`
	FollowUps   []Task        `yaml:"followUps"`
}

type Summary struct {
	Text           string   `yaml:"text"`
	TasksCompleted int      `yaml:"tasksCompleted"`
	TasksCreated   int      `yaml:"tasksCreated"`
	MeetingsHeld   int      `yaml:"meetingsHeld"`
	TopPriorities  []string `yaml:"topPriorities"`
}

// Demo returns the embedded demo dataset.
func Demo() (Dataset, error) {
	return Parse(demoData)
}

// Parse decodes and validates a YAML dataset. Unknown keys are rejected.
func Parse(data []byte) (Dataset, error) {
	var dataset Dataset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&dataset); err != nil {
		return Dataset{}, fmt.Errorf("failed to decode seed data: %w", err)
	}
	if err := dataset.validate(); err != nil {
		return Dataset{}, err
	}
	return dataset, nil
}

func (d Dataset) validate() error {
	var problems []string
	if strings.TrimSpace(d.Owner.Email) == "" {
		problems = append(problems, "owner.email is required")
	}
	if strings.TrimSpace(d.Workspace.Name) == "" {
		problems = append(problems, "workspace.name is required")
	}
	if strings.TrimSpace(d.Workspace.Slug) == "" {
		problems = append(problems, "workspace.slug is required")
	}
	for i, project := range d.Projects {
		if strings.TrimSpace(project.Name) == "" {
			problems = append(problems, fmt.Sprintf("projects[%d].name is required", i))
		}
		for j, task := range project.Tasks {
			problems = append(problems, task.problems(fmt.Sprintf("projects[%d].tasks[%d]", i, j))...)
		}
	}
	for i, meeting := range d.Meetings {
		prefix := fmt.Sprintf("meetings[%d]", i)
		if strings.TrimSpace(meeting.Title) == "" {
			problems = append(problems, prefix+".title is required")
		}
		if meeting.Duration < 0 {
			problems = append(problems, prefix+".duration must not be negative")
		}
		for j, task := range meeting.FollowUps {
			problems = append(problems, task.problems(fmt.Sprintf("%s.followUps[%d]", prefix, j))...)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid seed data: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (t Task) problems(prefix string) []string {
	var problems []string
	if strings.TrimSpace(t.Title) == "" {
		problems = append(problems, prefix+".title is required")
	}
	if t.Priority != "" {
		if _, ok := domain.ParsePriority(t.Priority); !ok {
			problems = append(problems, fmt.Sprintf("%s.priority %q is not valid", prefix, t.Priority))
		}
	}
	if t.Status != "" {
		if _, ok := domain.ParseTaskStatus(t.Status); !ok {
			problems = append(problems, fmt.Sprintf("%s.status %q is not valid", prefix, t.Status))
		}
	}
	return problems
}

// Repositories groups the stores written by Run.
type Repositories struct {
	Users      persistence.UserRepository
	Workspaces persistence.WorkspaceRepository
	Projects   persistence.ProjectRepository
	Tasks      persistence.TaskRepository
	Meetings   persistence.MeetingRepository
	Summaries  persistence.SummaryRepository
}

// Options controls identifiers, time and logging for Run.
type Options struct {
	IDGenerator func() string
	Now         func() time.Time
	Calendar    *calendar.Calendar
	Logger      *slog.Logger
}

// Result reports what Run wrote.
type Result struct {
	WorkspaceID string
	OwnerID     string
	Created     bool
	Projects    int
	Tasks       int
	Meetings    int
	Summaries   int
}

// Run writes the dataset through the repositories. A workspace whose slug
// already exists is left untouched and reported with Created false.
func Run(ctx context.Context, repos Repositories, dataset Dataset, opts Options) (Result, error) {
	if repos.Users == nil || repos.Workspaces == nil || repos.Projects == nil ||
		repos.Tasks == nil || repos.Meetings == nil || repos.Summaries == nil {
		return Result{}, fmt.Errorf("seed repositories not configured")
	}
	s := newSeeder(repos, opts)
	logger := s.logger.With("slug", dataset.Workspace.Slug)

	existing, err := repos.Workspaces.GetWorkspaceBySlug(ctx, dataset.Workspace.Slug)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "seed skipped, workspace already exists", "workspace_id", existing.ID)
		return Result{WorkspaceID: existing.ID}, nil
	case !errors.Is(err, persistence.ErrNotFound):
		return Result{}, fmt.Errorf("failed to look up workspace %q: %w", dataset.Workspace.Slug, err)
	}

	result, err := s.run(ctx, dataset)
	if err != nil {
		logger.ErrorContext(ctx, "seed failed", "error", err)
		return Result{}, err
	}
	logger.InfoContext(ctx, "seed completed",
		"workspace_id", result.WorkspaceID,
		"projects", result.Projects,
		"tasks", result.Tasks,
		"meetings", result.Meetings,
	)
	return result, nil
}

type seeder struct {
	repos    Repositories
	nextID   func() string
	now      time.Time
	calendar *calendar.Calendar
	logger   *slog.Logger
}

func newSeeder(repos Repositories, opts Options) *seeder {
	s := &seeder{repos: repos, nextID: opts.IDGenerator, calendar: opts.Calendar, logger: opts.Logger}
	if s.nextID == nil {
		counter := 0
		s.nextID = func() string {
			counter++
			return fmt.Sprintf("seed-%d", counter)
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s.now = now()
	if s.calendar == nil {
		s.calendar = calendar.New(time.UTC)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *seeder) run(ctx context.Context, dataset Dataset) (Result, error) {
	ownerID, err := s.owner(ctx, dataset.Owner)
	if err != nil {
		return Result{}, err
	}
	result := Result{OwnerID: ownerID, Created: true}

	workspace := persistence.Workspace{
		ID:        s.nextID(),
		Name:      strings.TrimSpace(dataset.Workspace.Name),
		Slug:      strings.TrimSpace(dataset.Workspace.Slug),
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	owner := persistence.Membership{UserID: ownerID, Role: string(domain.RoleOwner), JoinedAt: s.now}
	if err := s.repos.Workspaces.CreateWorkspace(ctx, workspace, owner); err != nil {
		return Result{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	result.WorkspaceID = workspace.ID

	for _, entry := range dataset.Projects {
		project := persistence.Project{
			ID:          s.nextID(),
			WorkspaceID: workspace.ID,
			Name:        entry.Name,
			Description: optional(entry.Description),
			Color:       optional(entry.Color),
			Status:      domain.ProjectStatusActive,
			CreatedAt:   s.now,
			UpdatedAt:   s.now,
		}
		if err := s.repos.Projects.CreateProject(ctx, project); err != nil {
			return Result{}, fmt.Errorf("failed to create project %q: %w", entry.Name, err)
		}
		result.Projects++
		for _, task := range entry.Tasks {
			if err := s.createTask(ctx, workspace.ID, ownerID, &project.ID, nil, task); err != nil {
				return Result{}, err
			}
			result.Tasks++
		}
	}

	for _, entry := range dataset.Meetings {
		start := s.now.Add(time.Duration(entry.StartInDays) * day)
		end := start.Add(entry.Duration)
		meeting := persistence.Meeting{
			ID:           s.nextID(),
			WorkspaceID:  workspace.ID,
			Title:        entry.Title,
			Description:  optional(entry.Description),
			StartTime:    start,
			EndTime:      &end,
			Notes:        optional(entry.Notes),
			Participants: []persistence.Participant{{UserID: ownerID, Role: string(domain.ParticipantOrganizer)}},
			CreatedAt:    s.now,
			UpdatedAt:    s.now,
		}
		if err := s.repos.Meetings.CreateMeeting(ctx, meeting); err != nil {
			return Result{}, fmt.Errorf("failed to create meeting %q: %w", entry.Title, err)
		}
		result.Meetings++
		for _, task := range entry.FollowUps {
			if err := s.createTask(ctx, workspace.ID, ownerID, nil, &meeting.ID, task); err != nil {
				return Result{}, err
			}
			result.Tasks++
		}
	}

	if entry := dataset.Summary; entry != nil {
		week := s.calendar.Week(s.now)
		summary := persistence.WeeklySummary{
			ID:             s.nextID(),
			WorkspaceID:    workspace.ID,
			WeekStartDate:  week.Start,
			WeekEndDate:    week.End,
			Summary:        strings.TrimSpace(entry.Text),
			TasksCompleted: entry.TasksCompleted,
			TasksCreated:   entry.TasksCreated,
			MeetingsHeld:   entry.MeetingsHeld,
			TopPriorities:  append([]string{}, entry.TopPriorities...),
			GeneratedAt:    s.now,
		}
		if err := s.repos.Summaries.CreateSummary(ctx, summary); err != nil {
			return Result{}, fmt.Errorf("failed to create weekly summary: %w", err)
		}
		result.Summaries++
	}
	return result, nil
}

// owner reuses an existing account with the same email.
func (s *seeder) owner(ctx context.Context, entry Owner) (string, error) {
	email := strings.ToLower(strings.TrimSpace(entry.Email))
	existing, err := s.repos.Users.GetUserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return "", fmt.Errorf("failed to look up user %q: %w", email, err)
	}

	name := strings.TrimSpace(entry.Name)
	if name == "" {
		name = email
	}
	user := persistence.User{ID: s.nextID(), Name: name, Email: email, CreatedAt: s.now, UpdatedAt: s.now}
	if err := s.repos.Users.CreateUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user %q: %w", email, err)
	}
	return user.ID, nil
}

func (s *seeder) createTask(ctx context.Context, workspaceID, ownerID string, projectID, meetingID *string, entry Task) error {
	priority := domain.PriorityMedium
	if p, ok := domain.ParsePriority(entry.Priority); ok {
		priority = p
	}
	status := domain.StatusTodo
	if st, ok := domain.ParseTaskStatus(entry.Status); ok {
		status = st
	}

	task := persistence.Task{
		ID:          s.nextID(),
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		OwnerID:     &ownerID,
		CreatedByID: ownerID,
		MeetingID:   meetingID,
		Title:       entry.Title,
		Description: optional(entry.Description),
		Priority:    string(priority),
		Status:      string(status),
		DueDate:     s.offset(entry.DueInDays),
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	if status == domain.StatusDone {
		task.CompletedAt = s.offset(entry.CompletedInDays)
		if task.CompletedAt == nil {
			completed := s.now
			task.CompletedAt = &completed
		}
	}
	if err := s.repos.Tasks.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task %q: %w", entry.Title, err)
	}
	return nil
}

func (s *seeder) offset(days *int) *time.Time {
	if days == nil {
		return nil
	}
	t := s.now.Add(time.Duration(*days) * day)
	return &t
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
