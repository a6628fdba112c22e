// Package sanitize strips markup from free-text fields before they are stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner removes every HTML element from user-supplied text.
type Cleaner struct {
	policy *bluemonday.Policy
}

// New returns a Cleaner backed by bluemonday's strict policy.
func New() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// maxPasses bounds the strip-and-decode loop in Text.
const maxPasses = 8

// Text returns s without tags and surrounding whitespace. Entities are
// decoded after stripping, and the pair repeats until the output is stable,
// so encoded markup such as "&lt;script&gt;" cannot survive as a live tag.
// Text(Text(s)) == Text(s).
func (c *Cleaner) Text(s string) string {
	if s == "" {
		return s
	}
	out := s
	for range maxPasses {
		next := strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	// Still changing after maxPasses: drop anything that can open a tag or an entity.
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "", "&", "").Replace(out))
}

// Ptr applies Text to an optional field.
func (c *Cleaner) Ptr(s *string) *string {
	if s == nil {
		return nil
	}
	v := c.Text(*s)
	return &v
}

// List applies Text to every element and drops the ones left empty.
func (c *Cleaner) List(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := c.Text(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
