package match

import (
	"regexp"
	"time"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// RepeatDetector fires when the extracted key stays identical for MaxRepeat
// consecutive observations. It backs both stuck detection (a value that
// should not repeat) and no-progress detection (a value that should change);
// the two differ only in the event kind they report.
type RepeatDetector struct {
	extractor Extractor
	maxRepeat int
	kind      domain.MatchKind

	lastKey string
	streak  int
	fired   bool
}

// NewStuckDetector builds a detector reporting MatchStuck events.
func NewStuckDetector(e Extractor, maxRepeat int) *RepeatDetector {
	return &RepeatDetector{extractor: e, maxRepeat: maxRepeat, kind: domain.MatchStuck}
}

// NewNoProgressDetector builds a detector reporting MatchNoProgress events.
func NewNoProgressDetector(e Extractor, maxRepeat int) *RepeatDetector {
	return &RepeatDetector{extractor: e, maxRepeat: maxRepeat, kind: domain.MatchNoProgress}
}

// Observe feeds one line. It returns an event when the streak reaches
// MaxRepeat. A differing key resets the streak; partial streaks never
// persist across a differing line.
func (d *RepeatDetector) Observe(stream domain.StreamID, lineNo int, text string, ts time.Time) *domain.MatchEvent {
	if d.fired {
		return nil
	}
	key, ok := d.extractor.Extract(text)
	if !ok {
		return nil
	}
	if d.streak > 0 && key == d.lastKey {
		d.streak++
	} else {
		d.lastKey = key
		d.streak = 1
	}
	if d.streak < d.maxRepeat {
		return nil
	}
	d.fired = true
	ev := domain.NewMatchEvent(d.kind, stream, lineNo, text, ts)
	return &ev
}

// RegressionDetector fires immediately when the extracted state moves
// backward relative to the highest state index seen so far. No repeat count
// is involved.
type RegressionDetector struct {
	extractor Extractor
	index     map[string]int

	highest int
	seen    bool
	fired   bool
}

// NewRegressionDetector builds a detector over an ordered list of expected
// states.
func NewRegressionDetector(e Extractor, states []string) *RegressionDetector {
	idx := make(map[string]int, len(states))
	for i, s := range states {
		idx[s] = i
	}
	return &RegressionDetector{extractor: e, index: idx}
}

// Observe feeds one line. States not in the expected list are ignored.
func (d *RegressionDetector) Observe(stream domain.StreamID, lineNo int, text string, ts time.Time) *domain.MatchEvent {
	if d.fired {
		return nil
	}
	key, ok := d.extractor.Extract(text)
	if !ok {
		return nil
	}
	idx, known := d.index[key]
	if !known {
		return nil
	}
	if d.seen && idx < d.highest {
		d.fired = true
		ev := domain.NewMatchEvent(domain.MatchRegression, stream, lineNo, text, ts)
		return &ev
	}
	if !d.seen || idx > d.highest {
		d.highest = idx
		d.seen = true
	}
	return nil
}

// DetectorSet bundles the configured detectors for one stream.
type DetectorSet struct {
	detectors []interface {
		Observe(domain.StreamID, int, string, time.Time) *domain.MatchEvent
	}
}

// NewDetectorSet builds the per-stream detectors from config. Nil configs
// are skipped; an empty set is valid and observes nothing.
func NewDetectorSet(cfg *domain.ExecutionConfig) *DetectorSet {
	s := &DetectorSet{}
	if c := cfg.Stuck; c != nil {
		s.detectors = append(s.detectors, NewStuckDetector(extractorFor(c.Extract, c.Strip), c.MaxRepeat))
	}
	if c := cfg.NoProgress; c != nil {
		s.detectors = append(s.detectors, NewNoProgressDetector(extractorFor(c.Extract, c.Strip), c.MaxRepeat))
	}
	if c := cfg.Regression; c != nil {
		s.detectors = append(s.detectors, NewRegressionDetector(extractorFor(c.Extract, nil), c.States))
	}
	return s
}

// Observe feeds one line to every detector and returns the first event.
func (s *DetectorSet) Observe(stream domain.StreamID, lineNo int, text string, ts time.Time) *domain.MatchEvent {
	for _, d := range s.detectors {
		if ev := d.Observe(stream, lineNo, text, ts); ev != nil {
			return ev
		}
	}
	return nil
}

func extractorFor(pattern *regexp.Regexp, strip []*regexp.Regexp) Extractor {
	if pattern == nil {
		return IdentityExtractor{Strip: strip}
	}
	return RegexExtractor{Pattern: pattern, Strip: strip}
}
