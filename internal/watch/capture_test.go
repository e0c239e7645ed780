package watch

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

func TestWindowLineBudgetWinsOverTimeBudget(t *testing.T) {
	// 5s time budget, 3 line budget, one line per second: the line budget
	// is reached first and exactly 3 lines are captured.
	mock := clock.NewMock()
	w := NewWindow(mock, 3, 5*time.Second)
	defer w.Stop()

	for i := 0; i < 2; i++ {
		mock.Add(time.Second)
		require.False(t, w.Add(Line{Stream: domain.StreamStdout, Text: "line"}))
	}
	mock.Add(time.Second)
	require.True(t, w.Add(Line{Stream: domain.StreamStdout, Text: "line"}))

	assert.Len(t, w.Lines(), 3)
	assert.True(t, w.Full())
	// Further lines are not captured.
	w.Add(Line{Stream: domain.StreamStdout, Text: "extra"})
	assert.Len(t, w.Lines(), 3)
}

func TestWindowTimeBudgetWinsWhenLinesAreSlow(t *testing.T) {
	mock := clock.NewMock()
	w := NewWindow(mock, 10, 2*time.Second)
	defer w.Stop()

	require.False(t, w.Add(Line{Text: "one"}))
	mock.Add(2 * time.Second)

	select {
	case <-w.Expired():
	default:
		t.Fatal("time budget should have expired")
	}
	assert.Len(t, w.Lines(), 1)
}

func TestWindowWithoutTimeBudgetNeverExpires(t *testing.T) {
	mock := clock.NewMock()
	w := NewWindow(mock, 2, 0)
	defer w.Stop()

	assert.Nil(t, w.Expired())
	require.False(t, w.Add(Line{Text: "one"}))
	require.True(t, w.Add(Line{Text: "two"}))
}
