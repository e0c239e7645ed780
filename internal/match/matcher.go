// Package match tests child output lines against the configured success,
// error, and exclusion patterns and runs the progress detectors.
package match

import (
	"regexp"
	"time"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Matcher evaluates lines from all monitored streams. It is driven from a
// single goroutine (the engine's line loop), so it keeps no locks.
type Matcher struct {
	success *regexp.Regexp
	err     *regexp.Regexp
	exclude *regexp.Regexp

	best *domain.MatchEvent
}

// New creates a Matcher. Any pattern may be nil.
func New(success, errPattern, exclude *regexp.Regexp) *Matcher {
	return &Matcher{success: success, err: errPattern, exclude: exclude}
}

// Observe tests one line. It returns the match event for this line, if any.
// Excluded lines return an exclude event and never count as a primary match.
// When a single line satisfies both the success and the error pattern, the
// error pattern takes precedence.
func (m *Matcher) Observe(stream domain.StreamID, lineNo int, text string, ts time.Time) *domain.MatchEvent {
	if m.exclude != nil && m.exclude.MatchString(text) {
		ev := domain.NewMatchEvent(domain.MatchExclude, stream, lineNo, text, ts)
		return &ev
	}
	var kind domain.MatchKind
	switch {
	case m.err != nil && m.err.MatchString(text):
		kind = domain.MatchError
	case m.success != nil && m.success.MatchString(text):
		kind = domain.MatchSuccess
	default:
		return nil
	}
	ev := domain.NewMatchEvent(kind, stream, lineNo, text, ts)
	m.arbitrate(&ev)
	return &ev
}

// arbitrate keeps the winning primary match: earliest timestamp across all
// streams, ties broken by stream priority (stdout, stderr, then extra fds).
func (m *Matcher) arbitrate(ev *domain.MatchEvent) {
	if m.best == nil {
		m.best = ev
		return
	}
	switch {
	case ev.Timestamp.Before(m.best.Timestamp):
		m.best = ev
	case ev.Timestamp.Equal(m.best.Timestamp) && ev.Stream.Priority() < m.best.Stream.Priority():
		m.best = ev
	}
}

// Best returns the winning primary match so far, or nil.
func (m *Matcher) Best() *domain.MatchEvent {
	return m.best
}
