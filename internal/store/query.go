// Package store implements the PostgreSQL repositories behind the API.
//
// Every repository accepts either the storage id (UUID) or the external
// business id (WKR-…, JOB-…, LRN-…) wherever a single record is addressed.
package store

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write would violate a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapWriteErr converts constraint violations into the package sentinels: a
// duplicate key becomes ErrConflict, a dangling reference ErrNotFound.
func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ─── Pagination ──────────────────────────────────────────────────────────────

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page selects a 1-based page of a sorted result set.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into its valid range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}

// PageResult is one page of records plus the size of the full result set.
type PageResult[T any] struct {
	Items []T
	Total int64
	Page  Page
}

// TotalPages is ceil(Total / Limit).
func (r *PageResult[T]) TotalPages() int {
	limit := r.Page.Normalize().Limit
	return int(math.Ceil(float64(r.Total) / float64(limit)))
}

// ─── WHERE / SET builders ────────────────────────────────────────────────────

// where accumulates AND-ed conditions with positional arguments. Column
// names are always package constants; user input only reaches args.
type where struct {
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) eq(col string, v any) {
	w.conds = append(w.conds, col+" = "+w.arg(v))
}

func (w *where) gte(col string, v any) {
	w.conds = append(w.conds, col+" >= "+w.arg(v))
}

// contains is a case-insensitive substring match.
func (w *where) contains(col, s string) {
	w.conds = append(w.conds, col+" ILIKE "+w.arg(likePattern(s)))
}

// containsAny matches when any of cols contains s.
func (w *where) containsAny(cols []string, s string) {
	p := w.arg(likePattern(s))
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE " + p
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

// overlaps matches array columns sharing at least one element with vals.
func (w *where) overlaps(col string, vals []string) {
	w.conds = append(w.conds, col+" && "+w.arg(vals)+"::text[]")
}

// byID matches either the storage UUID or the external id column.
func (w *where) byID(extCol, id string) {
	if _, err := uuid.Parse(id); err == nil {
		w.conds = append(w.conds, "id = "+w.arg(id)+"::uuid")
		return
	}
	w.eq(extCol, id)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// set accumulates assignments for a partial UPDATE.
type set struct {
	cols []string
	args []any
}

func (s *set) add(col string, v any) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

// update renders "UPDATE table SET … , updated_at = … WHERE <id match>".
// updated_at never moves backwards even if the database clock does.
func (s *set) update(table, extCol, id string, touch bool) (string, []any) {
	cols := s.cols
	if touch {
		cols = append(cols, "updated_at = GREATEST(updated_at, NOW())")
	}
	w := where{args: s.args}
	w.byID(extCol, id)
	return "UPDATE " + table + " SET " + strings.Join(cols, ", ") + w.sql(), w.args
}

// newExternalID returns a prefixed identifier such as WKR-<uuid>.
func newExternalID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
