package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/command-center/internal/application"
	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Calendar    *calendar.Calendar
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Calendar:    calendar.New(time.UTC),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Calendar == nil {
		factory.Calendar = calendar.New(time.UTC)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithCalendar overrides the calendar used for day and week windows.
func WithCalendar(cal *calendar.Calendar) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Calendar = cal
	}
}

// CoreDeps captures the repositories behind the workspace scoped services.
type CoreDeps struct {
	Workspaces persistence.WorkspaceRepository
	Projects   persistence.ProjectRepository
	Tasks      persistence.TaskRepository
	Meetings   persistence.MeetingRepository
	Summaries  persistence.SummaryRepository
	Logger     *slog.Logger
}

// CoreDeps returns the harness repositories as CoreDeps.
func (h *SQLiteHarness) CoreDeps() CoreDeps {
	return CoreDeps{
		Workspaces: h.Workspaces,
		Projects:   h.Projects,
		Tasks:      h.Tasks,
		Meetings:   h.Meetings,
		Summaries:  h.Summaries,
	}
}

// Services bundles the workspace scoped services built over one set of repositories.
type Services struct {
	Resolver   *application.MembershipResolver
	Guard      *application.AccessGuard
	Validator  *application.MutationValidator
	Tasks      *application.TaskService
	Projects   *application.ProjectService
	Meetings   *application.MeetingService
	Views      *application.ViewService
	Summaries  *application.SummaryService
	Workspaces *application.WorkspaceService
}

// NewServices wires every workspace scoped service with the factory clock,
// identifier generator and calendar.
func (f *ServiceFactory) NewServices(deps CoreDeps) *Services {
	idGen := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	resolver := application.NewMembershipResolver(deps.Workspaces, deps.Logger)
	guard := application.NewAccessGuard(resolver, deps.Tasks, deps.Projects, deps.Meetings, deps.Logger)
	validator := application.NewMutationValidator(f.Calendar, deps.Projects, deps.Meetings, deps.Workspaces)

	return &Services{
		Resolver:  resolver,
		Guard:     guard,
		Validator: validator,
		Tasks:     application.NewTaskServiceWithLogger(deps.Tasks, resolver, guard, validator, idGen, now, deps.Logger),
		Projects:  application.NewProjectServiceWithLogger(deps.Projects, resolver, guard, validator, idGen, now, deps.Logger),
		Meetings:  application.NewMeetingServiceWithLogger(deps.Meetings, deps.Tasks, resolver, guard, validator, idGen, now, deps.Logger),
		Views: application.NewViewServiceWithLogger(application.ViewRepositories{
			Tasks:     deps.Tasks,
			Projects:  deps.Projects,
			Meetings:  deps.Meetings,
			Summaries: deps.Summaries,
		}, resolver, guard, f.Calendar, now, deps.Logger),
		Summaries:  application.NewSummaryServiceWithLogger(deps.Summaries, deps.Tasks, deps.Meetings, resolver, f.Calendar, idGen, now, deps.Logger),
		Workspaces: application.NewWorkspaceServiceWithLogger(deps.Workspaces, resolver, idGen, now, deps.Logger),
	}
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Provider       application.IdentityProvider
	Users          persistence.UserRepository
	Sessions       persistence.SessionRepository
	Cache          application.SessionCache
	TokenGenerator func() string
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	idGen := f.IDGenerator.NextFunc()
	token := deps.TokenGenerator
	if token == nil {
		token = idGen
	}
	return application.NewAuthService(application.AuthServiceConfig{
		Provider:       deps.Provider,
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Cache:          deps.Cache,
		IDGenerator:    idGen,
		TokenGenerator: token,
		Now:            f.Clock.NowFunc(),
		SessionTTL:     deps.SessionTTL,
		Logger:         deps.Logger,
	})
}
