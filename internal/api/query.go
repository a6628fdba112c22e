package api

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// query reads a closed set of query parameters. Keys outside the set, and
// values that fail to parse, are recorded as violations.
type query struct {
	values url.Values
	v      violations
}

// paged returns the allowed keys of a paginated listing.
func paged(keys ...string) []string {
	return append([]string{"page", "limit"}, keys...)
}

func newQuery(values url.Values, allowed ...string) *query {
	q := &query{values: values}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !slices.Contains(allowed, k) {
			q.v.add(k, "unknown query parameter")
		}
	}
	return q
}

func (q *query) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

// list accepts both repeated keys and comma-separated values.
func (q *query) list(key string) []string {
	var out []string
	for _, raw := range q.values[key] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (q *query) intPtr(key string, min int) *int {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.v.add(key, "must be an integer")
		return nil
	}
	if n < min {
		q.v.add(key, "must be at least "+strconv.Itoa(min))
		return nil
	}
	return &n
}

func (q *query) boolPtr(key string) *bool {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.v.add(key, "must be true or false")
		return nil
	}
	return &b
}

// enum validates key with parse and returns the raw value.
func (q *query) enum(key string, parse func(string) error) string {
	raw := q.str(key)
	if raw == "" {
		return ""
	}
	if err := parse(raw); err != nil {
		q.v.add(key, err.Error())
		return ""
	}
	return raw
}

// page reads page and limit. A limit above the maximum is clamped.
func (q *query) page() store.Page {
	p := store.Page{Number: 1, Limit: store.DefaultLimit}
	if n := q.intPtr("page", 1); n != nil {
		p.Number = *n
	}
	if n := q.intPtr("limit", 1); n != nil {
		p.Limit = *n
	}
	return p.Normalize()
}

func (q *query) err() error { return q.v.err() }

// check adapts a model Parse function for query.enum.
func check[T any](parse func(string) (T, error)) func(string) error {
	return func(s string) error {
		_, err := parse(s)
		return err
	}
}
