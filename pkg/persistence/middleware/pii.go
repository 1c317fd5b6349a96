package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type piiMiddleware struct {
	ports.SessionLog
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks every match of the
// patterns in entry texts before they are persisted. The live message
// keeps its text for the current turn.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionLog) ports.SessionLog {
		return &piiMiddleware{SessionLog: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Append(ctx context.Context, sessionID string, entries ...domain.Entry) error {
	masked := make([]domain.Entry, len(entries))
	for i, e := range entries {
		for _, p := range m.patterns {
			e.Text = p.ReplaceAllString(e.Text, Mask)
		}
		masked[i] = e
	}
	return m.SessionLog.Append(ctx, sessionID, masked...)
}
