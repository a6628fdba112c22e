package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	User *model.User
	ID   string
	Role model.Role
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached by the authenticator, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator turns Authorization headers into identities.
type Authenticator struct {
	tokens *Tokens
	users  UserLookup
}

// NewAuthenticator returns an Authenticator verifying with tokens and
// resolving subjects through users.
func NewAuthenticator(tokens *Tokens, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves header to an Identity.
//
// Errors: no bearer token → ErrUnauthenticated; bad token → ErrInvalidToken;
// expired → ErrTokenExpired; unknown subject → ErrUnauthenticated; anything
// else is returned wrapped and should be treated as internal.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Identity, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: no token", ErrUnauthenticated)
	}

	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	return &Identity{User: user, ID: user.ID, Role: user.Role}, nil
}
