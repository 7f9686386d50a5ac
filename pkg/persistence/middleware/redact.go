package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/record"
)

// Mask replaces the default of a redacted string variable.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks the default value of every project variable
// whose name matches one of the patterns before the document is stored.
// String defaults become Mask; numbers and booleans fall back to their zero value.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, id string, doc *domain.Record) error {
	// The caller keeps editing its own tree, so mask a copy.
	cloned, err := record.Clone(doc, domain.DefaultMaxDepth)
	if err != nil {
		return err
	}
	for _, v := range cloned.Collection(domain.TypeVariable).Records() {
		if m.matches(v.String(domain.PropName)) {
			v.Set(domain.PropVarDefault, masked(v.String(domain.PropVarType)))
		}
	}
	return m.next.Save(ctx, id, cloned)
}

func (m *redactionMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func masked(varType string) any {
	switch varType {
	case "number":
		return 0
	case "boolean":
		return false
	default:
		return Mask
	}
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (*domain.Record, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
