package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

type applicationBody struct {
	WorkerID   *string  `json:"workerId"`
	JobID      *string  `json:"jobId"`
	JobTitle   *string  `json:"jobTitle"`
	MatchScore *float64 `json:"matchScore"`
	Status     *string  `json:"status"`
	Notes      *string  `json:"notes"`
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged("status", "workerId", "jobId")...)
	f := store.ApplicationFilter{
		Status:   q.enum("status", check(model.ParseApplicationStatus)),
		WorkerID: q.str("workerId"),
		JobID:    q.str("jobId"),
	}
	h.pageApplications(w, r, q, f, store.OrderRecent)
}

func (h *Handler) workerApplications(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged("status")...)
	f := store.ApplicationFilter{
		Status:   q.enum("status", check(model.ParseApplicationStatus)),
		WorkerID: chi.URLParam(r, "workerId"),
	}
	h.pageApplications(w, r, q, f, store.OrderRecent)
}

// jobApplications lists a job's applicants, best match first.
func (h *Handler) jobApplications(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged("status")...)
	f := store.ApplicationFilter{
		Status: q.enum("status", check(model.ParseApplicationStatus)),
		JobID:  chi.URLParam(r, "jobId"),
	}
	h.pageApplications(w, r, q, f, store.OrderMatchScore)
}

func (h *Handler) pageApplications(w http.ResponseWriter, r *http.Request, q *query, f store.ApplicationFilter, order store.ApplicationOrder) {
	page := q.page()
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.Applications.List(r.Context(), f, order, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonPage(w, res)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.Applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Application"))
		return
	}
	jsonOK(w, app)
}

// createApplication validates the body, then checks that both referenced
// records exist, before inserting. The (workerId, jobId) pair is unique at
// the storage level.
func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var body applicationBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	workerID := h.clean.Ptr(body.WorkerID)
	jobID := h.clean.Ptr(body.JobID)
	jobTitle := h.clean.Ptr(body.JobTitle)
	requireText(&v, "workerId", workerID, true)
	requireText(&v, "jobId", jobID, true)
	requireText(&v, "jobTitle", jobTitle, true)
	if body.MatchScore != nil && *body.MatchScore < 0 {
		v.add("matchScore", "must not be negative")
	}
	if body.Status != nil {
		v.add("status", "is set by the service")
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	if ok, err := h.Workers.Exists(ctx, *workerID); err != nil {
		h.writeError(w, err)
		return
	} else if !ok {
		h.writeError(w, notFound("Worker"))
		return
	}
	if ok, err := h.Jobs.Exists(ctx, *jobID); err != nil {
		h.writeError(w, err)
		return
	} else if !ok {
		h.writeError(w, notFound("Job"))
		return
	}

	in := &model.Application{
		WorkerID: *workerID,
		JobID:    *jobID,
		JobTitle: *jobTitle,
		Notes:    h.clean.Ptr(body.Notes),
	}
	if body.MatchScore != nil {
		in.MatchScore = *body.MatchScore
	}

	app, err := h.Applications.Create(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = conflict("Application already exists for this worker and job")
		}
		h.writeError(w, orNotFound(err, "Worker or job"))
		return
	}

	h.record(ctx, "job_applied", &app.WorkerID, nil, map[string]any{
		"applicationId": app.ID,
		"jobId":         app.JobID,
		"jobTitle":      app.JobTitle,
		"matchScore":    app.MatchScore,
	})
	if h.Events != nil {
		h.Events.ApplicationCreated(ctx, app)
	}
	jsonCreated(w, app)
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request) {
	var body applicationBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	var patch store.ApplicationPatch
	if body.Status != nil {
		st, err := model.ParseApplicationStatus(*body.Status)
		if err != nil {
			v.add("status", err.Error())
		}
		patch.Status = &st
	}
	if body.MatchScore != nil {
		if *body.MatchScore < 0 {
			v.add("matchScore", "must not be negative")
		}
		patch.MatchScore = body.MatchScore
	}
	patch.Notes = h.clean.Ptr(body.Notes)
	if body.WorkerID != nil || body.JobID != nil {
		v.add("workerId", "an application cannot be moved to another worker or job")
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	before, err := h.Applications.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Application"))
		return
	}
	app, err := h.Applications.Update(ctx, before.ID, patch)
	if err != nil {
		h.writeError(w, orNotFound(err, "Application"))
		return
	}
	if h.Events != nil && app.Status != before.Status {
		h.Events.ApplicationUpdated(ctx, app, before.Status)
	}
	jsonOK(w, app)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.Applications.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, orNotFound(err, "Application"))
		return
	}
	jsonMessage(w, "Application deleted successfully")
}
