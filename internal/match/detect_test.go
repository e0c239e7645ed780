package match

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

func observeAll(d interface {
	Observe(domain.StreamID, int, string, time.Time) *domain.MatchEvent
}, lines []string) *domain.MatchEvent {
	ts := time.Unix(1000, 0)
	for i, l := range lines {
		if ev := d.Observe(domain.StreamStdout, i+1, l, ts); ev != nil {
			return ev
		}
	}
	return nil
}

func TestStuckDetectorExactRepeatCount(t *testing.T) {
	t.Run("trips on exactly K consecutive identical lines", func(t *testing.T) {
		d := NewStuckDetector(IdentityExtractor{}, 3)
		ev := observeAll(d, []string{"waiting", "waiting", "waiting"})
		require.NotNil(t, ev)
		assert.Equal(t, domain.MatchStuck, ev.Kind)
		assert.Equal(t, 3, ev.LineNo)
	})

	t.Run("K-1 repeats then a different line resets the counter", func(t *testing.T) {
		d := NewStuckDetector(IdentityExtractor{}, 3)
		assert.Nil(t, observeAll(d, []string{"waiting", "waiting", "other", "waiting", "waiting"}))
	})

	t.Run("streak restarts cleanly after reset", func(t *testing.T) {
		d := NewStuckDetector(IdentityExtractor{}, 3)
		ev := observeAll(d, []string{"a", "a", "b", "a", "a", "a"})
		require.NotNil(t, ev)
		assert.Equal(t, 6, ev.LineNo)
	})

	t.Run("extractor normalizes away counters", func(t *testing.T) {
		d := NewStuckDetector(RegexExtractor{Pattern: regexp.MustCompile(`STATUS:\s+(\w+)`)}, 3)
		ev := observeAll(d, []string{
			"count=1 STATUS: loading",
			"count=2 STATUS: loading",
			"count=3 STATUS: loading",
		})
		require.NotNil(t, ev)
		assert.Equal(t, 3, ev.LineNo)
	})

	t.Run("lines without the extractor key are ignored", func(t *testing.T) {
		d := NewStuckDetector(RegexExtractor{Pattern: regexp.MustCompile(`STATUS:\s+(\w+)`)}, 2)
		ev := observeAll(d, []string{"STATUS: x", "noise", "STATUS: x"})
		require.NotNil(t, ev)
		assert.Equal(t, 3, ev.LineNo)
	})

	t.Run("fires at most once", func(t *testing.T) {
		d := NewStuckDetector(IdentityExtractor{}, 2)
		require.NotNil(t, observeAll(d, []string{"x", "x"}))
		assert.Nil(t, observeAll(d, []string{"x", "x"}))
	})
}

func TestNoProgressDetector(t *testing.T) {
	d := NewNoProgressDetector(RegexExtractor{Pattern: regexp.MustCompile(`processed (\d+)`)}, 3)
	ev := observeAll(d, []string{
		"processed 10 items",
		"processed 10 items again",
		"processed 10 items still",
	})
	require.NotNil(t, ev)
	assert.Equal(t, domain.MatchNoProgress, ev.Kind)

	t.Run("changing value never trips", func(t *testing.T) {
		d := NewNoProgressDetector(RegexExtractor{Pattern: regexp.MustCompile(`processed (\d+)`)}, 3)
		assert.Nil(t, observeAll(d, []string{"processed 1", "processed 2", "processed 3", "processed 4"}))
	})
}

func TestRegressionDetector(t *testing.T) {
	states := []string{"init", "build", "test", "deploy"}
	extractor := RegexExtractor{Pattern: regexp.MustCompile(`phase=(\w+)`)}

	t.Run("forward progress never fires", func(t *testing.T) {
		d := NewRegressionDetector(extractor, states)
		assert.Nil(t, observeAll(d, []string{"phase=init", "phase=build", "phase=deploy"}))
	})

	t.Run("backward move fires immediately with no repeat count", func(t *testing.T) {
		d := NewRegressionDetector(extractor, states)
		ev := observeAll(d, []string{"phase=init", "phase=test", "phase=build"})
		require.NotNil(t, ev)
		assert.Equal(t, domain.MatchRegression, ev.Kind)
		assert.Equal(t, 3, ev.LineNo)
	})

	t.Run("repeating the same state is not a regression", func(t *testing.T) {
		d := NewRegressionDetector(extractor, states)
		assert.Nil(t, observeAll(d, []string{"phase=build", "phase=build", "phase=build"}))
	})

	t.Run("unknown states are ignored", func(t *testing.T) {
		d := NewRegressionDetector(extractor, states)
		assert.Nil(t, observeAll(d, []string{"phase=test", "phase=warmup"}))
	})
}

func TestDetectorSet(t *testing.T) {
	cfg := &domain.ExecutionConfig{
		Stuck: &domain.DetectorConfig{MaxRepeat: 2},
	}
	s := NewDetectorSet(cfg)
	ts := time.Unix(1000, 0)
	assert.Nil(t, s.Observe(domain.StreamStdout, 1, "same", ts))
	ev := s.Observe(domain.StreamStdout, 2, "same", ts)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MatchStuck, ev.Kind)
}
