package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

// Users stores accounts. Reads by id never select the password hash.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns a Users repository backed by pool.
func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Create inserts u. A duplicate email returns ErrConflict.
func (s *Users) Create(ctx context.Context, u *model.User) (*model.User, error) {
	var out model.User
	var role string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role)
		 VALUES ($1, lower($2), $3, $4)
		 RETURNING id::text, name, email, role, created_at`,
		u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&out.ID, &out.Name, &out.Email, &role, &out.CreatedAt)
	if err != nil {
		return nil, mapWriteErr("createUser", err)
	}
	out.Role = model.Role(role)
	return &out, nil
}

// GetByID returns the user without its password hash.
func (s *Users) GetByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var u model.User
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, name, email, role, created_at FROM users WHERE id = $1::uuid`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getUser: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

// GetByEmail returns the user including its password hash, for login.
func (s *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, name, email, password_hash, role, created_at
		 FROM users WHERE email = lower($1)`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getUserByEmail: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}
