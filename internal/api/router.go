// Package api implements the SkillSync REST API.
//
// Every route is declared once in Handler.routes together with its access
// policy; the router enforces the policy before the handler runs. Handlers
// validate input, check references, delegate to the repositories and map
// the outcome through writeError.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/dashboard"
	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/sanitize"
	"github.com/Tech-Society-SEC/SkillSync/internal/search"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// ─── Dependencies ────────────────────────────────────────────────────────────

// WorkerStore persists worker profiles. Single-record methods accept the
// storage id or the workerId.
type WorkerStore interface {
	Create(ctx context.Context, w *model.Worker) (*model.Worker, error)
	List(ctx context.Context, f store.WorkerFilter, p store.Page) (*store.PageResult[model.Worker], error)
	Get(ctx context.Context, id string) (*model.Worker, error)
	Exists(ctx context.Context, workerID string) (bool, error)
	Update(ctx context.Context, id string, patch store.WorkerPatch) (*model.Worker, error)
	Delete(ctx context.Context, id string) error
}

// JobStore persists job postings.
type JobStore interface {
	Create(ctx context.Context, j *model.Job) (*model.Job, error)
	List(ctx context.Context, f store.JobFilter, p store.Page) (*store.PageResult[model.Job], error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Exists(ctx context.Context, jobID string) (bool, error)
	Update(ctx context.Context, id string, patch store.JobPatch) (*model.Job, error)
	SetActive(ctx context.Context, id string, active bool) (*model.Job, error)
	Delete(ctx context.Context, id string) error
}

// ApplicationStore persists applications. List orders by order within f.
type ApplicationStore interface {
	Create(ctx context.Context, a *model.Application) (*model.Application, error)
	List(ctx context.Context, f store.ApplicationFilter, order store.ApplicationOrder, p store.Page) (*store.PageResult[model.Application], error)
	Get(ctx context.Context, id string) (*model.Application, error)
	Update(ctx context.Context, id string, patch store.ApplicationPatch) (*model.Application, error)
	Delete(ctx context.Context, id string) error
}

// AnalyticsStore is the append-only event log.
type AnalyticsStore interface {
	Append(ctx context.Context, e *model.AnalyticsEvent) (*model.AnalyticsEvent, error)
	Events(ctx context.Context, f store.EventFilter, limit int) ([]model.AnalyticsEvent, error)
	CountByTypeForWorker(ctx context.Context, workerID string) ([]model.EventCount, error)
}

// LearningStore persists learning resources.
type LearningStore interface {
	Create(ctx context.Context, r *model.LearningResource) (*model.LearningResource, error)
	List(ctx context.Context, f store.LearningFilter, p store.Page) (*store.PageResult[model.LearningResource], error)
	Get(ctx context.Context, id string) (*model.LearningResource, error)
	Delete(ctx context.Context, id string) error
}

// ProgressStore tracks which resources each worker studies.
type ProgressStore interface {
	Recommend(ctx context.Context, workerID string, r *model.LearningResource) (*model.LearningProgress, error)
	Record(ctx context.Context, workerID string, r *model.LearningResource, status model.ProgressStatus, percent int) (*model.LearningProgress, error)
	ForWorker(ctx context.Context, workerID string) ([]model.LearningProgress, error)
}

// UserStore persists accounts. GetByEmail expects a normalized address.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// DashboardSource builds the platform summary behind GET /api/analytics/dashboard.
type DashboardSource interface {
	Stats(ctx context.Context) (*dashboard.Stats, error)
}

// JobSearch mirrors jobs into a search index.
type JobSearch interface {
	Index(ctx context.Context, j *model.Job) error
	Delete(ctx context.Context, jobID string) error
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// AudioStore keeps worker recordings.
type AudioStore interface {
	Upload(ctx context.Context, workerID, contentType string, body io.Reader, size int64) (string, error)
}

// Notifier receives change notifications. Failures never reach the caller.
type Notifier interface {
	ApplicationCreated(ctx context.Context, a *model.Application)
	ApplicationUpdated(ctx context.Context, a *model.Application, from model.ApplicationStatus)
	Analytics(ctx context.Context, e *model.AnalyticsEvent)
}

// Deps are the collaborators of Handler. Search and Audio are optional: a
// nil value answers 503 on the routes that need them.
type Deps struct {
	Workers      WorkerStore
	Jobs         JobStore
	Applications ApplicationStore
	Analytics    AnalyticsStore
	Learning     LearningStore
	Progress     ProgressStore
	Users        UserStore
	Dashboard    DashboardSource
	Search       JobSearch
	Audio        AudioStore
	Events       Notifier

	Tokens *auth.Tokens
	Auth   *auth.Authenticator

	// Health probes dependencies for GET /health.
	Health func(ctx context.Context) (map[string]string, bool)

	Production bool
	Version    string
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler serves every API route.
type Handler struct {
	Deps
	clean      *sanitize.Cleaner
	production bool
}

// NewHandler returns a Handler over d.
func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d, clean: sanitize.New(), production: d.Production}
}

type route struct {
	method  string
	pattern string
	policy  auth.Policy
	handle  http.HandlerFunc
}

func (h *Handler) routes() []route {
	employerOrAdmin := auth.Roles(model.RoleEmployer, model.RoleAdmin)
	admin := auth.Roles(model.RoleAdmin)

	return []route{
		{http.MethodGet, "/", auth.Public, h.info},
		{http.MethodGet, "/health", auth.Public, h.health},

		{http.MethodPost, "/api/auth/register", auth.Public, h.register},
		{http.MethodPost, "/api/auth/login", auth.Public, h.login},
		{http.MethodGet, "/api/auth/me", auth.Authenticated, h.me},

		{http.MethodGet, "/api/workers", auth.Public, h.listWorkers},
		{http.MethodGet, "/api/workers/{id}", auth.Public, h.getWorker},
		{http.MethodPost, "/api/workers", auth.OptionalAuth, h.createWorker},
		{http.MethodPut, "/api/workers/{id}", auth.Public, h.updateWorker},
		{http.MethodDelete, "/api/workers/{id}", auth.Public, h.deleteWorker},
		{http.MethodGet, "/api/workers/{id}/skills", auth.Public, h.workerSkills},
		{http.MethodPost, "/api/workers/{id}/audio", auth.Public, h.uploadAudio},
		{http.MethodGet, "/api/workers/{id}/learning", auth.Public, h.workerLearning},
		{http.MethodPost, "/api/workers/{id}/learning", auth.Public, h.recommendLearning},

		{http.MethodGet, "/api/jobs", auth.Public, h.listJobs},
		{http.MethodGet, "/api/jobs/search", auth.Public, h.searchJobs},
		{http.MethodGet, "/api/jobs/{id}", auth.Public, h.getJob},
		{http.MethodPost, "/api/jobs", employerOrAdmin, h.createJob},
		{http.MethodPut, "/api/jobs/{id}", employerOrAdmin, h.updateJob},
		{http.MethodDelete, "/api/jobs/{id}", admin, h.deleteJob},
		{http.MethodPost, "/api/jobs/{id}/deactivate", employerOrAdmin, h.setJobActive(false)},
		{http.MethodPost, "/api/jobs/{id}/activate", employerOrAdmin, h.setJobActive(true)},

		{http.MethodGet, "/api/applications", auth.Public, h.listApplications},
		{http.MethodGet, "/api/applications/{id}", auth.Public, h.getApplication},
		{http.MethodGet, "/api/applications/worker/{workerId}", auth.Public, h.workerApplications},
		{http.MethodGet, "/api/applications/job/{jobId}", auth.Public, h.jobApplications},
		{http.MethodPost, "/api/applications", auth.Public, h.createApplication},
		// Unrestricted, see CHANGELOG.md.
		{http.MethodPut, "/api/applications/{id}", auth.Public, h.updateApplication},
		{http.MethodDelete, "/api/applications/{id}", auth.Public, h.deleteApplication},

		{http.MethodPost, "/api/analytics/event", auth.OptionalAuth, h.trackEvent},
		{http.MethodGet, "/api/analytics/dashboard", auth.Public, h.dashboard},
		{http.MethodGet, "/api/analytics/worker/{workerId}", auth.Public, h.workerAnalytics},
		{http.MethodGet, "/api/analytics/user/{userId}", auth.Owner("userId"), h.userAnalytics},
		{http.MethodGet, "/api/analytics/events", admin, h.queryEvents},

		{http.MethodGet, "/api/learning", auth.Public, h.listLearning},
		{http.MethodGet, "/api/learning/{id}", auth.Public, h.getLearning},
		{http.MethodPost, "/api/learning", admin, h.createLearning},
		{http.MethodDelete, "/api/learning/{id}", admin, h.deleteLearning},
		{http.MethodPut, "/api/learning/{id}/progress", auth.Public, h.updateProgress},
	}
}

// Router mounts every route behind the request middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	for _, rt := range h.routes() {
		r.With(h.enforce(rt.policy)).Method(rt.method, rt.pattern, rt.handle)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// enforce authenticates according to p's mode and evaluates p.
func (h *Handler) enforce(p auth.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch p.Mode() {
			case auth.ModeNone:
				next.ServeHTTP(w, r)
				return
			case auth.ModeOptional:
				if id, err := h.Auth.Authenticate(r.Context(), r.Header.Get("Authorization")); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), id))
				}
				next.ServeHTTP(w, r)
				return
			}

			id, err := h.Auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				h.writeError(w, err)
				return
			}
			if err := auth.Enforce(p, id, func(k string) string { return chi.URLParam(r, k) }); err != nil {
				h.writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func identity(r *http.Request) *auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
