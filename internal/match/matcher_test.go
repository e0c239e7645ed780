package match

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

func TestMatcherPrimaryPatterns(t *testing.T) {
	ts := time.Unix(1000, 0)

	t.Run("success pattern matches", func(t *testing.T) {
		m := New(regexp.MustCompile("ready"), nil, nil)
		ev := m.Observe(domain.StreamStdout, 1, "server ready", ts)
		require.NotNil(t, ev)
		assert.Equal(t, domain.MatchSuccess, ev.Kind)
	})

	t.Run("non-matching line returns nil", func(t *testing.T) {
		m := New(regexp.MustCompile("ready"), nil, nil)
		assert.Nil(t, m.Observe(domain.StreamStdout, 1, "booting", ts))
	})

	t.Run("error pattern takes precedence on a dual match", func(t *testing.T) {
		m := New(regexp.MustCompile("build"), regexp.MustCompile("failed"), nil)
		ev := m.Observe(domain.StreamStdout, 1, "build failed", ts)
		require.NotNil(t, ev)
		assert.Equal(t, domain.MatchError, ev.Kind)
	})

	t.Run("excluded line never counts as primary", func(t *testing.T) {
		m := New(nil, regexp.MustCompile("ERROR"), regexp.MustCompile("deprecation"))
		ev := m.Observe(domain.StreamStdout, 1, "ERROR: deprecation warning", ts)
		require.NotNil(t, ev)
		assert.Equal(t, domain.MatchExclude, ev.Kind)
		assert.Nil(t, m.Best())
	})
}

func TestMatcherArbitration(t *testing.T) {
	ts := time.Unix(1000, 0)

	t.Run("earliest timestamp wins across streams", func(t *testing.T) {
		m := New(regexp.MustCompile("hit"), nil, nil)
		m.Observe(domain.StreamStderr, 5, "hit late", ts.Add(time.Second))
		m.Observe(domain.StreamStdout, 9, "hit early", ts)
		require.NotNil(t, m.Best())
		assert.Equal(t, "hit early", m.Best().Text)
	})

	t.Run("tied timestamps break by stream priority", func(t *testing.T) {
		m := New(regexp.MustCompile("hit"), nil, nil)
		m.Observe(domain.StreamFD(3), 1, "hit fd3", ts)
		m.Observe(domain.StreamStderr, 1, "hit stderr", ts)
		m.Observe(domain.StreamStdout, 1, "hit stdout", ts)
		require.NotNil(t, m.Best())
		assert.Equal(t, domain.StreamStdout, m.Best().Stream)
	})

	t.Run("later match never displaces an earlier one", func(t *testing.T) {
		m := New(regexp.MustCompile("hit"), nil, nil)
		m.Observe(domain.StreamStdout, 1, "hit first", ts)
		m.Observe(domain.StreamStdout, 2, "hit second", ts.Add(time.Millisecond))
		assert.Equal(t, "hit first", m.Best().Text)
	})
}

func TestStreamPriorityOrder(t *testing.T) {
	assert.Less(t, domain.StreamStdout.Priority(), domain.StreamStderr.Priority())
	assert.Less(t, domain.StreamStderr.Priority(), domain.StreamFD(3).Priority())
	assert.Less(t, domain.StreamFD(3).Priority(), domain.StreamFD(4).Priority())
}
