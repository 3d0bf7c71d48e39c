package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/example/command-center/internal/application"
	httpapi "github.com/example/command-center/internal/http"
	"github.com/example/command-center/internal/testfixtures"
)

type identityProviderStub struct {
	identities map[string]application.Identity
}

func (p identityProviderStub) AuthorizationURL(state string) (string, error) {
	return "https://auth.example.test/authorize?state=" + url.QueryEscape(state), nil
}

func (p identityProviderStub) Authenticate(_ context.Context, code string) (application.Identity, error) {
	identity, ok := p.identities[code]
	if !ok {
		return application.Identity{}, errors.New("unknown code")
	}
	return identity, nil
}

type apiClient struct {
	router http.Handler
}

func (c apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	GinkgoHelper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c apiClient) login(code string) string {
	GinkgoHelper()

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code="+code, nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	Expect(rec.Code).To(Equal(http.StatusFound))
	Expect(rec.Header().Get("Location")).To(Equal("https://app.example.test/dashboard"))

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value != "" {
			return cookie.Value
		}
	}
	Fail("callback did not set a session cookie")
	return ""
}

func decodeBody[T any](rec *httptest.ResponseRecorder) T {
	GinkgoHelper()
	var out T
	Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed(), rec.Body.String())
	return out
}

type jsonObject = map[string]any

var _ = Describe("Command center API", func() {
	var (
		client  apiClient
		harness *testfixtures.SQLiteHarness
		clock   *testfixtures.Clock
	)

	BeforeEach(func() {
		var err error
		harness, err = testfixtures.OpenSQLiteHarness(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(harness.Close)

		clock = testfixtures.NewClock(time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC))
		factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))
		services := factory.NewServices(harness.CoreDeps())
		auth := factory.NewAuthService(testfixtures.AuthServiceDeps{
			Provider: identityProviderStub{identities: map[string]application.Identity{
				"founder-code": {ExternalID: "ext-founder", Email: "founder@example.com", Name: "Alex Founder"},
				"rival-code":   {ExternalID: "ext-rival", Email: "rival@example.com", Name: "Riley Rival"},
			}},
			Users:    harness.Users,
			Sessions: harness.Sessions,
		})

		client = apiClient{router: httpapi.NewRouter(httpapi.RouterConfig{
			Auth:       httpapi.NewAuthHandler(auth, httpapi.AuthConfig{DashboardURL: "https://app.example.test/dashboard"}, nil),
			Tasks:      httpapi.NewTaskHandler(services.Tasks, nil),
			Projects:   httpapi.NewProjectHandler(services.Projects, services.Views, nil),
			Meetings:   httpapi.NewMeetingHandler(services.Meetings, nil),
			Views:      httpapi.NewViewHandler(services.Views, services.Summaries, nil),
			Workspaces: httpapi.NewWorkspaceHandler(services.Workspaces, nil),
			Health:     httpapi.NewHealthHandler(map[string]httpapi.Pinger{"database": harness.Storage}, nil),
			Sessions:   auth,
		})}
	})

	onboard := func(code, name string) string {
		GinkgoHelper()
		token := client.login(code)
		rec := client.do(http.MethodPost, "/api/workspaces", token, jsonObject{"name": name})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		return token
	}

	Describe("authentication", func() {
		It("redirects to the identity provider with a state cookie", func() {
			rec := client.do(http.MethodGet, "/auth/login", "", nil)

			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(HavePrefix("https://auth.example.test/authorize?state="))

			var state *http.Cookie
			for _, cookie := range rec.Result().Cookies() {
				if cookie.Name == "oauth_state" {
					state = cookie
				}
			}
			Expect(state).NotTo(BeNil())
			Expect(rec.Header().Get("Location")).To(HaveSuffix(url.QueryEscape(state.Value)))
		})

		It("rejects a callback whose state does not match", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=other&code=founder-code", nil)
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
			rec := httptest.NewRecorder()
			client.router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 401 when the provider rejects the code", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code=bogus", nil)
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
			rec := httptest.NewRecorder()
			client.router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("requires a session on API routes", func() {
			rec := client.do(http.MethodGet, "/api/tasks", "", nil)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeBody[jsonObject](rec)).To(HaveKey("error"))
		})

		It("accepts the session cookie and revokes it on logout", func() {
			token := client.login("founder-code")

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
			rec := httptest.NewRecorder()
			client.router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			me := decodeBody[jsonObject](rec)
			Expect(me["email"]).To(Equal("founder@example.com"))
			Expect(me["name"]).To(Equal("Alex Founder"))

			Expect(client.do(http.MethodPost, "/auth/logout", token, nil).Code).To(Equal(http.StatusNoContent))
			Expect(client.do(http.MethodGet, "/auth/me", token, nil).Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects sessions once they expire", func() {
			token := client.login("founder-code")
			clock.Advance(31 * 24 * time.Hour)

			Expect(client.do(http.MethodGet, "/auth/me", token, nil).Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("onboarding", func() {
		It("creates one workspace per user with a derived slug", func() {
			token := client.login("founder-code")
			Expect(client.do(http.MethodGet, "/api/workspace", token, nil).Code).To(Equal(http.StatusNotFound))

			rec := client.do(http.MethodPost, "/api/workspaces", token, jsonObject{"name": "Alex's Startup"})
			Expect(rec.Code).To(Equal(http.StatusCreated))
			created := decodeBody[jsonObject](rec)
			Expect(created["role"]).To(Equal("owner"))
			Expect(created["workspace"]).To(HaveKeyWithValue("slug", "alex-s-startup"))

			current := client.do(http.MethodGet, "/api/workspace", token, nil)
			Expect(current.Code).To(Equal(http.StatusOK))
			Expect(decodeBody[jsonObject](current)["workspace"]).To(HaveKeyWithValue("name", "Alex's Startup"))

			again := client.do(http.MethodPost, "/api/workspaces", token, jsonObject{"name": "Second"})
			Expect(again.Code).To(Equal(http.StatusConflict))

			list := client.do(http.MethodGet, "/api/workspaces", token, nil)
			Expect(decodeBody[[]jsonObject](list)).To(HaveLen(1))
		})

		It("reports missing names as field errors", func() {
			token := client.login("founder-code")
			rec := client.do(http.MethodPost, "/api/workspaces", token, jsonObject{"name": "  "})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody[jsonObject](rec)["fields"]).To(HaveKey("name"))
		})
	})

	Describe("tasks", func() {
		var token string

		BeforeEach(func() {
			token = onboard("founder-code", "Alex's Startup")
		})

		It("creates a title-only task with defaults and walks it to done", func() {
			rec := client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Write pitch"})
			Expect(rec.Code).To(Equal(http.StatusCreated))
			task := decodeBody[jsonObject](rec)
			Expect(task["priority"]).To(Equal("MEDIUM"))
			Expect(task["status"]).To(Equal("TODO"))
			Expect(task["dueDate"]).To(BeNil())
			Expect(task["completedAt"]).To(BeNil())
			id := task["id"].(string)

			patched := client.do(http.MethodPatch, "/api/tasks/"+id, token, jsonObject{"status": "DONE", "dueDate": "2024-05-20"})
			Expect(patched.Code).To(Equal(http.StatusOK))
			done := decodeBody[jsonObject](patched)
			Expect(done["status"]).To(Equal("DONE"))
			Expect(done["completedAt"]).To(Equal("2024-05-15T09:00:00Z"))
			Expect(done["dueDate"]).NotTo(BeNil())

			cleared := decodeBody[jsonObject](client.do(http.MethodPatch, "/api/tasks/"+id, token, jsonObject{"dueDate": nil}))
			Expect(cleared["dueDate"]).To(BeNil())
			Expect(cleared["completedAt"]).To(Equal("2024-05-15T09:00:00Z"))

			listed := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/tasks?status=DONE", token, nil))
			Expect(listed).To(HaveLen(1))

			deleted := client.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
			Expect(deleted.Code).To(Equal(http.StatusOK))
			Expect(decodeBody[jsonObject](deleted)).To(HaveKeyWithValue("success", true))
			Expect(client.do(http.MethodGet, "/api/tasks/"+id, token, nil).Code).To(Equal(http.StatusNotFound))
		})

		It("collects every invalid field", func() {
			rec := client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "", "priority": "EXTREME", "status": "LATER"})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			fields := decodeBody[jsonObject](rec)["fields"]
			Expect(fields).To(HaveKey("title"))
			Expect(fields).To(HaveKey("priority"))
			Expect(fields).To(HaveKey("status"))
		})

		It("rejects malformed bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("{"))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			client.router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers 405 for unsupported methods", func() {
			rec := client.do(http.MethodPut, "/api/tasks", token, nil)
			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(decodeBody[jsonObject](rec)).To(HaveKeyWithValue("error", "Method Not Allowed"))

			Expect(client.do(http.MethodPost, "/api/tasks/task-1", token, nil).Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(client.do(http.MethodDelete, "/api/dashboard", token, nil).Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("answers unknown paths with a JSON 404", func() {
			rec := client.do(http.MethodGet, "/api/unknown", token, nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(decodeBody[jsonObject](rec)).To(HaveKeyWithValue("error", "Not Found"))
		})

		It("still requires a session on authenticated routes", func() {
			Expect(client.do(http.MethodGet, "/api/tasks", "", nil).Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("tenancy", func() {
		It("forbids access to another workspace's entities", func() {
			founder := onboard("founder-code", "Alex's Startup")
			rival := onboard("rival-code", "Rival Corp")

			task := decodeBody[jsonObject](client.do(http.MethodPost, "/api/tasks", founder, jsonObject{"title": "Secret plan"}))
			project := decodeBody[jsonObject](client.do(http.MethodPost, "/api/projects", founder, jsonObject{"name": "Launch"}))
			meeting := decodeBody[jsonObject](client.do(http.MethodPost, "/api/meetings", founder, jsonObject{
				"title":     "Board sync",
				"startTime": "2024-05-16T10:00:00Z",
			}))

			for _, path := range []string{
				"/api/tasks/" + task["id"].(string),
				"/api/projects/" + project["id"].(string),
				"/api/projects/" + project["id"].(string) + "/board",
				"/api/meetings/" + meeting["id"].(string),
			} {
				Expect(client.do(http.MethodGet, path, rival, nil).Code).To(Equal(http.StatusForbidden), path)
			}
			Expect(client.do(http.MethodPatch, "/api/tasks/"+task["id"].(string), rival, jsonObject{"title": "Mine"}).Code).
				To(Equal(http.StatusForbidden))
			Expect(client.do(http.MethodDelete, "/api/meetings/"+meeting["id"].(string), rival, nil).Code).
				To(Equal(http.StatusForbidden))

			Expect(decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/tasks", rival, nil))).To(BeEmpty())
			Expect(client.do(http.MethodGet, "/api/tasks/"+task["id"].(string), founder, nil).Code).To(Equal(http.StatusOK))
		})

		It("treats a foreign workspace selector as no workspace", func() {
			founder := onboard("founder-code", "Alex's Startup")
			rival := onboard("rival-code", "Rival Corp")
			rivalWorkspace := decodeBody[jsonObject](client.do(http.MethodGet, "/api/workspace", rival, nil))["workspace"].(jsonObject)

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			req.Header.Set("Authorization", "Bearer "+founder)
			req.Header.Set(httpapi.WorkspaceHeader, rivalWorkspace["id"].(string))
			rec := httptest.NewRecorder()
			client.router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("projects and meetings", func() {
		var token string

		BeforeEach(func() {
			token = onboard("founder-code", "Alex's Startup")
		})

		It("renders the kanban board with completion", func() {
			project := decodeBody[jsonObject](client.do(http.MethodPost, "/api/projects", token, jsonObject{"name": "Launch", "color": "#3b82f6"}))
			projectID := project["id"].(string)
			Expect(project["status"]).To(Equal("active"))

			for _, status := range []string{"DONE", "TODO", "IN_PROGRESS"} {
				rec := client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Task " + status, "status": status, "projectId": projectID})
				Expect(rec.Code).To(Equal(http.StatusCreated))
			}

			board := decodeBody[jsonObject](client.do(http.MethodGet, "/api/projects/"+projectID+"/board", token, nil))
			Expect(board["completion"]).To(BeEquivalentTo(33))
			columns := board["columns"].([]any)
			Expect(columns).To(HaveLen(4))
			Expect(columns[0]).To(HaveKeyWithValue("status", "BACKLOG"))
			Expect(columns[3]).To(HaveKeyWithValue("status", "DONE"))

			progress := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/views/projects", token, nil))
			Expect(progress).To(HaveLen(1))
			Expect(progress[0]).To(HaveKeyWithValue("progress", BeEquivalentTo(33)))
			Expect(progress[0]).To(HaveKeyWithValue("name", "Launch"))
		})

		It("makes the creator the sole organizer and filters by window", func() {
			me := decodeBody[jsonObject](client.do(http.MethodGet, "/auth/me", token, nil))

			created := client.do(http.MethodPost, "/api/meetings", token, jsonObject{"title": "Standup", "startTime": "2024-05-16T10:00:00Z"})
			Expect(created.Code).To(Equal(http.StatusCreated))
			participants := decodeBody[jsonObject](created)["participants"].([]any)
			Expect(participants).To(ConsistOf(jsonObject{"userId": me["id"], "role": "organizer"}))

			client.do(http.MethodPost, "/api/meetings", token, jsonObject{"title": "Retro", "startTime": "2024-05-14T10:00:00Z"})

			upcoming := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/meetings?upcoming=true", token, nil))
			Expect(upcoming).To(HaveLen(1))
			Expect(upcoming[0]["title"]).To(Equal("Standup"))

			past := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/meetings?upcoming=false", token, nil))
			Expect(past).To(HaveLen(1))
			Expect(past[0]["title"]).To(Equal("Retro"))

			Expect(client.do(http.MethodGet, "/api/meetings?upcoming=maybe", token, nil).Code).To(Equal(http.StatusBadRequest))

			overview := decodeBody[jsonObject](client.do(http.MethodGet, "/api/views/meetings", token, nil))
			Expect(overview["upcoming"]).To(HaveLen(1))
			Expect(overview["past"]).To(HaveLen(1))
		})

		It("exposes follow-up tasks and replaces participants", func() {
			me := decodeBody[jsonObject](client.do(http.MethodGet, "/auth/me", token, nil))
			meeting := decodeBody[jsonObject](client.do(http.MethodPost, "/api/meetings", token, jsonObject{"title": "Roadmap", "startTime": "2024-05-16T10:00:00Z"}))
			meetingID := meeting["id"].(string)

			followUp := decodeBody[jsonObject](client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Document Q1 roadmap", "meetingId": meetingID}))
			client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Unrelated"})

			fetched := decodeBody[jsonObject](client.do(http.MethodGet, "/api/meetings/"+meetingID, token, nil))
			Expect(fetched["followUpTasks"]).To(HaveLen(1))
			Expect(fetched["followUpTasks"].([]any)[0]).To(HaveKeyWithValue("id", followUp["id"]))

			byMeeting := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/tasks?meetingId="+meetingID, token, nil))
			Expect(byMeeting).To(HaveLen(1))
			Expect(byMeeting[0]).To(HaveKeyWithValue("meetingId", meetingID))

			patched := client.do(http.MethodPatch, "/api/meetings/"+meetingID, token, jsonObject{"notes": "Ship it", "participantIds": []string{me["id"].(string)}})
			Expect(patched.Code).To(Equal(http.StatusOK), patched.Body.String())
			body := decodeBody[jsonObject](patched)
			Expect(body["participants"]).To(ConsistOf(jsonObject{"userId": me["id"], "role": "organizer"}))
			Expect(body["followUpTasks"]).To(HaveLen(1))

			rejected := client.do(http.MethodPatch, "/api/meetings/"+meetingID, token, jsonObject{"participantIds": []string{"ghost"}})
			Expect(rejected.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody[jsonObject](rejected)["fields"]).To(HaveKey("participantIds"))

			listed := decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/meetings", token, nil))
			Expect(listed[0]).NotTo(HaveKey("followUpTasks"))
		})

		It("rejects an end time before the start", func() {
			rec := client.do(http.MethodPost, "/api/meetings", token, jsonObject{
				"title":     "Backwards",
				"startTime": "2024-05-16T10:00:00Z",
				"endTime":   "2024-05-16T09:00:00Z",
			})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody[jsonObject](rec)["fields"]).To(HaveKey("endTime"))
		})
	})

	Describe("dashboard and summaries", func() {
		It("aggregates stats and exposes the latest summary", func() {
			token := onboard("founder-code", "Alex's Startup")
			client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Due today", "dueDate": "2024-05-15", "priority": "URGENT"})
			client.do(http.MethodPost, "/api/tasks", token, jsonObject{"title": "Shipped", "status": "DONE"})

			dashboard := decodeBody[jsonObject](client.do(http.MethodGet, "/api/dashboard", token, nil))
			Expect(dashboard["stats"]).To(HaveKeyWithValue("totalTasks", BeEquivalentTo(2)))
			Expect(dashboard["stats"]).To(HaveKeyWithValue("completedTasks", BeEquivalentTo(1)))
			Expect(dashboard["todayTasks"]).To(HaveLen(1))
			Expect(dashboard["latestSummary"]).To(BeNil())

			generated := client.do(http.MethodPost, "/api/summaries", token, nil)
			Expect(generated.Code).To(Equal(http.StatusCreated))
			summary := decodeBody[jsonObject](generated)
			Expect(summary["tasksCompleted"]).To(BeEquivalentTo(1))
			Expect(summary["tasksCreated"]).To(BeEquivalentTo(2))
			Expect(summary["topPriorities"]).To(Equal([]any{"Due today"}))

			Expect(decodeBody[[]jsonObject](client.do(http.MethodGet, "/api/summaries", token, nil))).To(HaveLen(1))
			Expect(client.do(http.MethodGet, "/api/summaries?limit=-1", token, nil).Code).To(Equal(http.StatusBadRequest))

			refreshed := decodeBody[jsonObject](client.do(http.MethodGet, "/api/dashboard", token, nil))
			Expect(refreshed["latestSummary"]).To(HaveKeyWithValue("id", summary["id"]))
		})
	})

	Describe("health", func() {
		It("reports the database as reachable", func() {
			rec := client.do(http.MethodGet, "/healthz", "", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeBody[jsonObject](rec)["checks"]).To(HaveKeyWithValue("database", "ok"))
		})
	})
})
