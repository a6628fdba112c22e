package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/media"
	"github.com/Tech-Society-SEC/SkillSync/internal/search"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// ─── Envelope ────────────────────────────────────────────────────────────────

// Envelope is the body of every response.
type Envelope struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Data        any         `json:"data,omitempty"`
	Errors      []Violation `json:"errors,omitempty"`
	Count       *int        `json:"count,omitempty"`
	TotalPages  *int        `json:"totalPages,omitempty"`
	CurrentPage *int        `json:"currentPage,omitempty"`
	Total       *int64      `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func jsonOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func jsonMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

func jsonPage[T any](w http.ResponseWriter, res *store.PageResult[T]) {
	count := len(res.Items)
	pages := res.TotalPages()
	current := res.Page.Number
	total := res.Total
	writeJSON(w, http.StatusOK, Envelope{
		Success:     true,
		Data:        res.Items,
		Count:       &count,
		TotalPages:  &pages,
		CurrentPage: &current,
		Total:       &total,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, Envelope{Success: false, Message: msg})
}

// ─── Errors ──────────────────────────────────────────────────────────────────

// Violation is one invalid input field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// violations collects problems before failing the request.
type violations []Violation

func (v *violations) add(field, msg string) {
	*v = append(*v, Violation{Field: field, Message: msg})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

func invalid(field, msg string) error {
	return &ValidationError{Violations: []Violation{{Field: field, Message: msg}}}
}

// statusError gives a sentinel a resource-specific message.
type statusError struct {
	kind error
	msg  string
}

func (e *statusError) Error() string { return e.msg }
func (e *statusError) Unwrap() error { return e.kind }

func notFound(what string) error {
	return &statusError{kind: store.ErrNotFound, msg: what + " not found"}
}

func conflict(msg string) error {
	return &statusError{kind: store.ErrConflict, msg: msg}
}

// orNotFound replaces a bare store.ErrNotFound with a message naming what.
func orNotFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return err
}

// writeError maps an error to its status code and envelope. It is the only
// place domain errors become HTTP.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		ve     *ValidationError
		se     *statusError
		tooBig *http.MaxBytesError
	)
	msg := func(fallback string) string {
		if errors.As(err, &se) {
			return se.msg
		}
		return fallback
	}

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, Envelope{Message: "Validation failed", Errors: ve.Violations})
	case errors.As(err, &tooBig):
		jsonError(w, "Request body too large", http.StatusBadRequest)
	case errors.Is(err, store.ErrConflict):
		jsonError(w, msg("Resource already exists"), http.StatusBadRequest)
	case errors.Is(err, auth.ErrTokenExpired):
		jsonError(w, "Token expired", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		jsonError(w, "Not authorized, token failed", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthenticated):
		jsonError(w, "Not authorized, no valid token", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrBadCredentials):
		jsonError(w, "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		jsonError(w, msg("You do not have permission to perform this action"), http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, msg("Resource not found"), http.StatusNotFound)
	case errors.Is(err, search.ErrDisabled), errors.Is(err, media.ErrDisabled):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("[api] internal error: %v", err)
		if h.production {
			jsonError(w, "Server error", http.StatusInternalServerError)
			return
		}
		jsonError(w, "Server error: "+err.Error(), http.StatusInternalServerError)
	}
}

func forbidden(msg string) error {
	return &statusError{kind: auth.ErrForbidden, msg: msg}
}

// ─── Request bodies ──────────────────────────────────────────────────────────

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return invalid("body", "invalid JSON: "+err.Error())
	}
	return nil
}
