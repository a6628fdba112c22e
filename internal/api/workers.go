package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Society-SEC/SkillSync/internal/media"
	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// workerBody is the JSON accepted by worker create and update. Pointer
// fields distinguish "absent" from "empty".
type workerBody struct {
	Name            *string   `json:"name"`
	Phone           *string   `json:"phone"`
	Email           *string   `json:"email"`
	JobTitle        *string   `json:"jobTitle"`
	ExperienceYears *int      `json:"experienceYears"`
	Skills          *[]string `json:"skills"`
	Location        *string   `json:"location"`
	Language        *string   `json:"language"`
	AudioFilePath   *string   `json:"audioFilePath"`
	Transcription   *string   `json:"transcription"`
}

// workerPatch sanitizes b and validates the fields it carries. With required
// set, name and phone must be present.
func (h *Handler) workerPatch(b workerBody, required bool) (store.WorkerPatch, error) {
	var v violations
	p := store.WorkerPatch{
		Name:          h.clean.Ptr(b.Name),
		Phone:         h.clean.Ptr(b.Phone),
		Email:         h.clean.Ptr(b.Email),
		JobTitle:      h.clean.Ptr(b.JobTitle),
		Location:      h.clean.Ptr(b.Location),
		Language:      h.clean.Ptr(b.Language),
		AudioFilePath: h.clean.Ptr(b.AudioFilePath),
		Transcription: h.clean.Ptr(b.Transcription),
	}

	requireText(&v, "name", p.Name, required)
	requireText(&v, "phone", p.Phone, required)
	if p.Email != nil && *p.Email != "" {
		if !isEmail(*p.Email) {
			v.add("email", "must be a valid email address")
		}
	}
	if b.ExperienceYears != nil {
		if *b.ExperienceYears < 0 {
			v.add("experienceYears", "must not be negative")
		}
		p.ExperienceYears = b.ExperienceYears
	}
	if b.Skills != nil {
		skills := h.clean.List(*b.Skills)
		p.Skills = &skills
	}
	return p, v.err()
}

func requireText(v *violations, field string, s *string, required bool) {
	switch {
	case s == nil && required:
		v.add(field, "is required")
	case s != nil && *s == "":
		v.add(field, "must not be empty")
	}
}

// isEmail accepts a bare addr-spec only. Display names and angle brackets
// that mail.ParseAddress tolerates are rejected.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (h *Handler) listWorkers(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), paged(
		"jobTitle", "location", "language", "skills", "minExperience", "search")...)
	f := store.WorkerFilter{
		JobTitle:      q.str("jobTitle"),
		Location:      q.str("location"),
		Language:      q.str("language"),
		Search:        q.str("search"),
		Skills:        q.list("skills"),
		MinExperience: q.intPtr("minExperience", 0),
	}
	page := q.page()
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.Workers.List(r.Context(), f, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonPage(w, res)
}

func (h *Handler) getWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Workers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	jsonOK(w, worker)
}

func (h *Handler) createWorker(w http.ResponseWriter, r *http.Request) {
	var body workerBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.workerPatch(body, true)
	if err != nil {
		h.writeError(w, err)
		return
	}

	in := &model.Worker{Name: *p.Name, Phone: *p.Phone, Email: p.Email, Language: p.Language, Skills: []string{}}
	if p.JobTitle != nil {
		in.JobTitle = *p.JobTitle
	}
	if p.ExperienceYears != nil {
		in.ExperienceYears = *p.ExperienceYears
	}
	if p.Skills != nil {
		in.Skills = *p.Skills
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.AudioFilePath != nil {
		in.AudioFilePath = *p.AudioFilePath
	}
	if p.Transcription != nil {
		in.Transcription = *p.Transcription
	}

	worker, err := h.Workers.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var userID *string
	if id := identity(r); id != nil {
		userID = &id.ID
	}
	h.record(r.Context(), "profile_created", &worker.WorkerID, userID, map[string]any{
		"name":     worker.Name,
		"jobTitle": worker.JobTitle,
		"skills":   worker.Skills,
	})
	jsonCreated(w, worker)
}

func (h *Handler) updateWorker(w http.ResponseWriter, r *http.Request) {
	var body workerBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.workerPatch(body, false)
	if err != nil {
		h.writeError(w, err)
		return
	}

	worker, err := h.Workers.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	jsonOK(w, worker)
}

func (h *Handler) deleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.Workers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	jsonMessage(w, "Worker deleted successfully")
}

func (h *Handler) workerSkills(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Workers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	jsonOK(w, map[string]any{
		"workerId": worker.WorkerID,
		"name":     worker.Name,
		"skills":   worker.Skills,
	})
}

// uploadAudio stores the raw request body as the worker's recording and
// points audioFilePath at it.
func (h *Handler) uploadAudio(w http.ResponseWriter, r *http.Request) {
	if h.Audio == nil {
		h.writeError(w, media.ErrDisabled)
		return
	}
	ct := r.Header.Get("Content-Type")
	if _, err := media.Extension(ct); err != nil {
		h.writeError(w, invalid("Content-Type", err.Error()))
		return
	}
	if r.ContentLength > media.MaxAudioBytes {
		h.writeError(w, invalid("body", "audio exceeds the upload limit"))
		return
	}

	worker, err := h.Workers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, media.MaxAudioBytes)
	loc, err := h.Audio.Upload(r.Context(), worker.WorkerID, ct, body, r.ContentLength)
	if err != nil {
		h.writeError(w, err)
		return
	}

	worker, err = h.Workers.Update(r.Context(), worker.ID, store.WorkerPatch{AudioFilePath: &loc})
	if err != nil {
		h.writeError(w, orNotFound(err, "Worker"))
		return
	}
	jsonOK(w, worker)
}

// ─── Analytics side effects ──────────────────────────────────────────────────

// record appends an automatic analytics event. Failures are logged only.
func (h *Handler) record(ctx context.Context, eventType string, workerID, userID *string, data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Warn("marshal analytics event failed", "eventType", eventType, "err", err)
		return
	}
	e, err := h.Analytics.Append(ctx, &model.AnalyticsEvent{
		WorkerID:  workerID,
		UserID:    userID,
		EventType: eventType,
		EventData: raw,
	})
	if err != nil {
		slog.Warn("record analytics event failed", "eventType", eventType, "err", err)
		return
	}
	if h.Events != nil {
		h.Events.Analytics(ctx, e)
	}
}
