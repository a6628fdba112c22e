package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/search"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

type jobBody struct {
	Title              *string    `json:"title"`
	Company            *string    `json:"company"`
	Description        *string    `json:"description"`
	Location           *string    `json:"location"`
	SkillsRequired     *[]string  `json:"skillsRequired"`
	ExperienceRequired *int       `json:"experienceRequired"`
	SalaryMin          *int       `json:"salaryMin"`
	SalaryMax          *int       `json:"salaryMax"`
	EmploymentType     *string    `json:"employmentType"`
	PostedBy           *string    `json:"postedBy"`
	ExpiresAt          *time.Time `json:"expiresAt"`
}

func (h *Handler) jobPatch(b jobBody, required bool) (store.JobPatch, error) {
	var v violations
	p := store.JobPatch{
		Title:              h.clean.Ptr(b.Title),
		Company:            h.clean.Ptr(b.Company),
		Description:        h.clean.Ptr(b.Description),
		Location:           h.clean.Ptr(b.Location),
		ExperienceRequired: b.ExperienceRequired,
		SalaryMin:          b.SalaryMin,
		SalaryMax:          b.SalaryMax,
		ExpiresAt:          b.ExpiresAt,
	}

	requireText(&v, "title", p.Title, required)
	requireText(&v, "company", p.Company, required)
	requireText(&v, "description", p.Description, required)
	requireText(&v, "location", p.Location, required)

	switch {
	case b.SkillsRequired != nil:
		skills := h.clean.List(*b.SkillsRequired)
		if len(skills) == 0 {
			v.add("skillsRequired", "must contain at least one skill")
		}
		p.SkillsRequired = &skills
	case required:
		v.add("skillsRequired", "is required")
	}

	if b.ExperienceRequired != nil && *b.ExperienceRequired < 0 {
		v.add("experienceRequired", "must not be negative")
	}
	if b.SalaryMin != nil && *b.SalaryMin < 0 {
		v.add("salaryMin", "must not be negative")
	}
	if b.SalaryMax != nil && *b.SalaryMax < 0 {
		v.add("salaryMax", "must not be negative")
	}
	if b.SalaryMin != nil && b.SalaryMax != nil && *b.SalaryMin > *b.SalaryMax {
		v.add("salaryMax", "must not be less than salaryMin")
	}
	if b.EmploymentType != nil {
		et, err := model.ParseEmploymentType(*b.EmploymentType)
		if err != nil {
			v.add("employmentType", err.Error())
		}
		p.EmploymentType = &et
	}
	if b.PostedBy != nil && !required {
		v.add("postedBy", "cannot be changed")
	}
	return p, v.err()
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// listJobs shows active jobs unless isActive says otherwise.
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged(
		"title", "company", "location", "employmentType", "skills", "postedBy", "isActive")...)
	f := store.JobFilter{
		Title:          q.str("title"),
		Company:        q.str("company"),
		Location:       q.str("location"),
		EmploymentType: q.enum("employmentType", check(model.ParseEmploymentType)),
		PostedBy:       q.str("postedBy"),
		Skills:         q.list("skills"),
		IsActive:       q.boolPtr("isActive"),
	}
	page := q.page()
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}
	if f.IsActive == nil {
		active := true
		f.IsActive = &active
	}

	res, err := h.Jobs.List(r.Context(), f, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonPage(w, res)
}

func (h *Handler) searchJobs(w http.ResponseWriter, r *http.Request) {
	if h.Search == nil {
		h.writeError(w, search.ErrDisabled)
		return
	}
	q := newQuery(r.URL.Query(), paged("q")...)
	text := q.str("q")
	page := q.page()
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.Search.Search(r.Context(), search.Query{
		Text:       text,
		ActiveOnly: true,
		From:       page.Offset(),
		Size:       page.Limit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonPage(w, &store.PageResult[model.Job]{Items: res.Jobs, Total: res.Total, Page: page})
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Job"))
		return
	}
	jsonOK(w, job)
}

// createJob posts on behalf of the caller unless postedBy names someone
// else, which only admins may do.
func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var body jobBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.jobPatch(body, true)
	if err != nil {
		h.writeError(w, err)
		return
	}

	caller := identity(r)
	postedBy := caller.ID
	if body.PostedBy != nil && *body.PostedBy != "" {
		postedBy = *body.PostedBy
		if _, err := uuid.Parse(postedBy); err != nil {
			h.writeError(w, invalid("postedBy", "must be a user id"))
			return
		}
		if !auth.IsOwner(caller, postedBy) {
			h.writeError(w, forbidden("Only admins can post jobs for another user"))
			return
		}
	}

	in := &model.Job{
		Title:          *p.Title,
		Company:        *p.Company,
		Description:    *p.Description,
		Location:       *p.Location,
		SkillsRequired: *p.SkillsRequired,
		SalaryMin:      p.SalaryMin,
		SalaryMax:      p.SalaryMax,
		PostedBy:       postedBy,
		ExpiresAt:      p.ExpiresAt,
	}
	if p.ExperienceRequired != nil {
		in.ExperienceRequired = *p.ExperienceRequired
	}
	if p.EmploymentType != nil {
		in.EmploymentType = *p.EmploymentType
	}

	job, err := h.Jobs.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, orNotFound(err, "User"))
		return
	}
	h.indexJob(r.Context(), job)
	jsonCreated(w, job)
}

func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request) {
	var body jobBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.jobPatch(body, false)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	// A single salary bound is checked against the stored other bound.
	if (p.SalaryMin == nil) != (p.SalaryMax == nil) {
		cur, err := h.Jobs.Get(ctx, id)
		if err != nil {
			h.writeError(w, orNotFound(err, "Job"))
			return
		}
		if err := salaryRange(cur, p); err != nil {
			h.writeError(w, err)
			return
		}
	}

	job, err := h.Jobs.Update(ctx, id, p)
	if err != nil {
		h.writeError(w, orNotFound(err, "Job"))
		return
	}
	h.indexJob(ctx, job)
	jsonOK(w, job)
}

// salaryRange validates the salary bounds cur would have after p.
func salaryRange(cur *model.Job, p store.JobPatch) error {
	lo, hi := cur.SalaryMin, cur.SalaryMax
	field := "salaryMax"
	if p.SalaryMin != nil {
		lo, field = p.SalaryMin, "salaryMin"
	}
	if p.SalaryMax != nil {
		hi = p.SalaryMax
	}
	if lo == nil || hi == nil || *lo <= *hi {
		return nil
	}
	if field == "salaryMin" {
		return invalid(field, "must not exceed the current salaryMax")
	}
	return invalid(field, "must not be less than the current salaryMin")
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Job"))
		return
	}
	if err := h.Jobs.Delete(r.Context(), job.ID); err != nil {
		h.writeError(w, orNotFound(err, "Job"))
		return
	}
	if h.Search != nil {
		if err := h.Search.Delete(r.Context(), job.JobID); err != nil {
			slog.Warn("remove job from search index failed", "jobId", job.JobID, "err", err)
		}
	}
	jsonMessage(w, "Job deleted successfully")
}

func (h *Handler) setJobActive(active bool) http.HandlerFunc {
	msg := "Job deactivated successfully"
	if active {
		msg = "Job activated successfully"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := h.Jobs.SetActive(r.Context(), chi.URLParam(r, "id"), active)
		if err != nil {
			h.writeError(w, orNotFound(err, "Job"))
			return
		}
		h.indexJob(r.Context(), job)
		writeJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: job})
	}
}

// indexJob mirrors job into the search index. Failures are logged only.
func (h *Handler) indexJob(ctx context.Context, job *model.Job) {
	if h.Search == nil {
		return
	}
	if err := h.Search.Index(ctx, job); err != nil {
		slog.Warn("index job failed", "jobId", job.JobID, "err", err)
	}
}
