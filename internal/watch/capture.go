package watch

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Window is the after-context capture opened by a qualifying primary match.
// It accepts new lines from all streams until either the line budget is
// reached, the time budget elapses, or every stream hits EOF — whichever
// comes first.
type Window struct {
	timer    *clock.Timer
	expired  <-chan time.Time
	maxLines int
	lines    []Line
}

// NewWindow opens a capture window. maxLines <= 0 means no line budget;
// budget <= 0 means no time budget. The engine never opens a window when
// both budgets are zero — the match resolves immediately instead.
func NewWindow(clk clock.Clock, maxLines int, budget time.Duration) *Window {
	w := &Window{maxLines: maxLines}
	if budget > 0 {
		w.timer = clk.Timer(budget)
		w.expired = w.timer.C
	}
	return w
}

// Expired yields when the time budget elapses; nil when there is none.
func (w *Window) Expired() <-chan time.Time { return w.expired }

// Add records one line and reports whether the line budget is now reached.
func (w *Window) Add(l Line) bool {
	if w.Full() {
		return true
	}
	w.lines = append(w.lines, l)
	return w.Full()
}

// Full reports whether the line budget is exhausted. A window without a
// line budget only closes on its timer or on EOF.
func (w *Window) Full() bool {
	return w.maxLines > 0 && len(w.lines) >= w.maxLines
}

// Stop releases the time budget timer.
func (w *Window) Stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Lines returns the captured after-context, in arrival order.
func (w *Window) Lines() []Line { return w.lines }

// ContextReport bundles the before/after context around the winning match.
type ContextReport struct {
	Type          string                       `json:"type"` // "context"
	SchemaVersion int                          `json:"schemaVersion"`
	Before        map[domain.StreamID][]string `json:"before,omitempty"`
	Match         *domain.MatchEvent           `json:"match,omitempty"`
	After         []string                     `json:"after,omitempty"`
}
