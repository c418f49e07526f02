package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/espalier/pkg/ports"
)

type piiMiddleware struct {
	next     ports.IntentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that keeps phrases matching the
// patterns out of the persisted snapshot. A masked phrase would be useless
// as a cache key, so matching entries are dropped entirely: they still
// resolve within a run, they are just never written to storage.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.IntentStore) ports.IntentStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, entries map[string]string) error {
	// Filter into a copy to avoid side effects on the caller's map.
	filtered := make(map[string]string, len(entries))
	for phrase, intent := range entries {
		if m.matches(phrase) {
			continue
		}
		filtered[phrase] = intent
	}
	return m.next.Save(ctx, filtered)
}

func (m *piiMiddleware) Load(ctx context.Context) (map[string]string, error) {
	return m.next.Load(ctx)
}

func (m *piiMiddleware) matches(phrase string) bool {
	for _, p := range m.patterns {
		if p.MatchString(phrase) {
			return true
		}
	}
	return false
}
