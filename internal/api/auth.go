package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

const minPasswordLen = 8

type credentialsBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// register creates a worker or employer account. Admins are provisioned
// out of band.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var v violations
	name := h.clean.Text(body.Name)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if name == "" {
		v.add("name", "is required")
	}
	if email == "" {
		v.add("email", "is required")
	} else if !isEmail(email) {
		v.add("email", "must be a valid email address")
	}
	if len(body.Password) < minPasswordLen {
		v.add("password", "must be at least 8 characters")
	}
	role := model.RoleWorker
	if body.Role != "" {
		parsed, err := model.ParseRole(body.Role)
		switch {
		case err != nil:
			v.add("role", err.Error())
		case parsed == model.RoleAdmin:
			v.add("role", "must be worker or employer")
		default:
			role = parsed
		}
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	user, err := h.Users.Create(r.Context(), &model.User{Name: name, Email: email, PasswordHash: hash, Role: role})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = conflict("Email is already registered")
		}
		h.writeError(w, err)
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonCreated(w, session{Token: token, User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	var v violations
	if strings.TrimSpace(body.Email) == "" {
		v.add("email", "is required")
	}
	if body.Password == "" {
		v.add("password", "is required")
	}
	if err := v.err(); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), strings.TrimSpace(body.Email))
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, auth.ErrBadCredentials)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, body.Password); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, session{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, identity(r).User)
}
