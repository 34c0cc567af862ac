// Package timeparse turns user supplied "since" filters into timestamps.
package timeparse

import (
	"strings"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// Parser wraps a when parser configured with the English rule set.
type Parser struct {
	w *when.Parser
}

// NewParser creates a Parser.
func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	return &Parser{w: w}
}

// Since parses input as RFC3339, a date (2006-01-02) or natural language
// relative to now ("yesterday", "2 days ago"). The result must not be in the
// future. An empty input returns the zero time.
func (p *Parser) Since(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return checkPast(t, now)
	}
	if t, err := time.ParseInLocation("2006-01-02", input, now.Location()); err == nil {
		return checkPast(t, now)
	}

	r, err := p.w.Parse(strings.ToLower(input), now)
	if err != nil || r == nil {
		return time.Time{}, apperr.Validation("could not understand since=%q", input)
	}
	return checkPast(r.Time, now)
}

func checkPast(t, now time.Time) (time.Time, error) {
	if t.After(now) {
		return time.Time{}, apperr.Validation("since must be in the past")
	}
	return t, nil
}
