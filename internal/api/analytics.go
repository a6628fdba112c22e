package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

const defaultEventLimit = 50

type eventBody struct {
	EventType *string         `json:"eventType"`
	WorkerID  *string         `json:"workerId"`
	UserID    *string         `json:"userId"`
	EventData json.RawMessage `json:"eventData"`
}

// trackEvent appends a client-reported event. An authenticated caller is
// recorded as the event's user unless the body names one; only admins may
// name another user.
func (h *Handler) trackEvent(w http.ResponseWriter, r *http.Request) {
	var body eventBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	eventType := h.clean.Ptr(body.EventType)
	requireText(&v, "eventType", eventType, true)
	data := bytes.TrimSpace(body.EventData)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) && data[0] != '{' {
		v.add("eventData", "must be a JSON object")
	}
	if bytes.Equal(data, []byte("null")) {
		data = nil
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	userID := nonEmpty(body.UserID)
	if caller := identity(r); caller != nil {
		switch {
		case userID == nil:
			userID = &caller.ID
		case !auth.IsOwner(caller, *userID):
			h.writeError(w, forbidden("Cannot record events for another user"))
			return
		}
	}

	e, err := h.Analytics.Append(r.Context(), &model.AnalyticsEvent{
		WorkerID:  nonEmpty(body.WorkerID),
		UserID:    userID,
		EventType: *eventType,
		EventData: data,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.Events != nil {
		h.Events.Analytics(r.Context(), e)
	}
	jsonCreated(w, e)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, stats)
}

// workerAnalytics returns the worker's recent events and a per-type count.
// eventType narrows the event list; the breakdown always spans every type.
func (h *Handler) workerAnalytics(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), "limit", "eventType")
	limit := eventLimit(q)
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	workerID := chi.URLParam(r, "workerId")
	f := store.EventFilter{WorkerID: workerID, EventType: q.str("eventType")}
	events, err := h.Analytics.Events(r.Context(), f, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	counts, err := h.Analytics.CountByTypeForWorker(r.Context(), workerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	breakdown := make(map[string]int64, len(counts))
	for _, c := range counts {
		breakdown[c.Key] = c.Count
	}
	jsonOK(w, map[string]any{
		"workerId":    workerID,
		"totalEvents": len(events),
		"events":      events,
		"breakdown":   breakdown,
	})
}

func (h *Handler) userAnalytics(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), "limit", "eventType")
	limit := eventLimit(q)
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	userID := chi.URLParam(r, "userId")
	f := store.EventFilter{UserID: userID, EventType: q.str("eventType")}
	events, err := h.Analytics.Events(r.Context(), f, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{
		"userId":      userID,
		"totalEvents": len(events),
		"events":      events,
	})
}

// queryEvents is the cross-subject event read, filtered by workerId and
// eventType.
func (h *Handler) queryEvents(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query(), "limit", "workerId", "eventType")
	f := store.EventFilter{WorkerID: q.str("workerId"), EventType: q.str("eventType")}
	limit := eventLimit(q)
	if err := q.err(); err != nil {
		h.writeError(w, err)
		return
	}

	events, err := h.Analytics.Events(r.Context(), f, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{
		"totalEvents": len(events),
		"events":      events,
	})
}

func eventLimit(q *query) int {
	limit := defaultEventLimit
	if n := q.intPtr("limit", 1); n != nil {
		limit = min(*n, 100)
	}
	return limit
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
