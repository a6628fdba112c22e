package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

type learningBody struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	URL             *string   `json:"url"`
	ResourceType    *string   `json:"resourceType"`
	Skills          *[]string `json:"skills"`
	Language        *string   `json:"language"`
	DurationMinutes *int      `json:"durationMinutes"`
	DifficultyLevel *string   `json:"difficultyLevel"`
}

func (h *Handler) listLearning(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged("skill", "resourceType", "difficultyLevel", "language")...)
	f := store.LearningFilter{
		Skill:           q.str("skill"),
		ResourceType:    q.enum("resourceType", check(model.ParseResourceType)),
		DifficultyLevel: q.enum("difficultyLevel", check(model.ParseDifficultyLevel)),
		Language:        q.str("language"),
	}
	page := q.page()
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.Learning.List(r.Context(), f, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonPage(w, res)
}

func (h *Handler) getLearning(w http.ResponseWriter, r *http.Request) {
	res, err := h.Learning.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Learning resource"))
		return
	}
	jsonOK(w, res)
}

func (h *Handler) createLearning(w http.ResponseWriter, r *http.Request) {
	var body learningBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	title := h.clean.Ptr(body.Title)
	link := h.clean.Ptr(body.URL)
	requireText(&v, "title", title, true)
	requireText(&v, "url", link, true)
	if link != nil && *link != "" {
		if u, err := url.ParseRequestURI(*link); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			v.add("url", "must be an http(s) URL")
		}
	}

	in := &model.LearningResource{
		ResourceType:    model.ResourceArticle,
		DifficultyLevel: model.Beginner,
		Language:        "en",
		Skills:          []string{},
	}
	if body.ResourceType != nil {
		rt, err := model.ParseResourceType(*body.ResourceType)
		if err != nil {
			v.add("resourceType", err.Error())
		}
		in.ResourceType = rt
	}
	if body.DifficultyLevel != nil {
		d, err := model.ParseDifficultyLevel(*body.DifficultyLevel)
		if err != nil {
			v.add("difficultyLevel", err.Error())
		}
		in.DifficultyLevel = d
	}
	if body.DurationMinutes != nil {
		if *body.DurationMinutes < 0 {
			v.add("durationMinutes", "must not be negative")
		}
		in.DurationMinutes = *body.DurationMinutes
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	in.Title, in.URL = *title, *link
	if d := h.clean.Ptr(body.Description); d != nil {
		in.Description = *d
	}
	if l := nonEmpty(h.clean.Ptr(body.Language)); l != nil {
		in.Language = *l
	}
	if body.Skills != nil {
		in.Skills = h.clean.List(*body.Skills)
	}

	res, err := h.Learning.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonCreated(w, res)
}

func (h *Handler) deleteLearning(w http.ResponseWriter, r *http.Request) {
	if err := h.Learning.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, orNotFound(err, "Learning resource"))
		return
	}
	jsonMessage(w, "Learning resource deleted successfully")
}

// ─── Worker progress ─────────────────────────────────────────────────────────

type recommendBody struct {
	ResourceID *string `json:"resourceId"`
}

type progressBody struct {
	WorkerID        *string `json:"workerId"`
	ProgressPercent *int    `json:"progressPercent"`
	Status          *string `json:"status"`
}

// workerLearning lists the resources linked to a worker with their progress.
func (h *Handler) workerLearning(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Workers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	items, err := h.Progress.ForWorker(r.Context(), worker.WorkerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{
		"workerId":  worker.WorkerID,
		"count":     len(items),
		"resources": items,
	})
}

func (h *Handler) recommendLearning(w http.ResponseWriter, r *http.Request) {
	var body recommendBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	resourceID := h.clean.Ptr(body.ResourceID)
	if resourceID == nil || *resourceID == "" {
		h.writeError(w, invalid("resourceId", "is required"))
		return
	}

	ctx := r.Context()
	worker, err := h.Workers.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	res, err := h.Learning.Get(ctx, *resourceID)
	if err != nil {
		h.writeError(w, orNotFound(err, "Learning resource"))
		return
	}

	p, err := h.Progress.Recommend(ctx, worker.WorkerID, res)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = conflict("Resource already linked to this worker")
		}
		h.writeError(w, err)
		return
	}
	jsonCreated(w, p)
}

// updateProgress records a worker's progress on a resource. Without an
// explicit status the percentage decides it; an explicit status must agree
// with the percentage at the 0 and 100 boundaries.
func (h *Handler) updateProgress(w http.ResponseWriter, r *http.Request) {
	var body progressBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	workerID := h.clean.Ptr(body.WorkerID)
	requireText(&v, "workerId", workerID, true)
	percent := -1
	switch {
	case body.ProgressPercent == nil:
		v.add("progressPercent", "is required")
	case *body.ProgressPercent < 0 || *body.ProgressPercent > 100:
		v.add("progressPercent", "must be between 0 and 100")
	default:
		percent = *body.ProgressPercent
	}
	status := model.ProgressFor(percent)
	if body.Status != nil {
		st, err := model.ParseProgressStatus(*body.Status)
		switch {
		case err != nil:
			v.add("status", err.Error())
		case percent < 0:
		case st == model.ProgressCompleted && percent != 100:
			v.add("status", "completed requires progressPercent 100")
		case st != model.ProgressCompleted && percent == 100:
			v.add("status", "progressPercent 100 requires status completed")
		case st == model.ProgressRecommended && percent > 0:
			v.add("status", "recommended requires progressPercent 0")
		}
		status = st
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
	res, err := h.Learning.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Learning resource"))
		return
	}

	p, err := h.Progress.Record(ctx, *workerID, res, status, percent)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.record(ctx, "learning_progress", &p.WorkerID, nil, map[string]any{
		"resourceId":      p.ResourceID,
		"status":          p.Status,
		"progressPercent": p.ProgressPercent,
	})
	jsonOK(w, p)
}
