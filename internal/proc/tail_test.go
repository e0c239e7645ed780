package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailReaderFollowsGrowingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spill.log")
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()
	r, err := os.Open(path)
	require.NoError(t, err)

	childDone := make(chan struct{})
	tr := newTailReader(r, clock.New(), childDone)
	defer tr.Close()

	_, err = w.WriteString("first\n")
	require.NoError(t, err)

	sc := bufio.NewScanner(tr)
	require.True(t, sc.Scan())
	assert.Equal(t, "first", sc.Text())

	// Data appended after the reader caught up is still observed.
	go func() {
		time.Sleep(20 * time.Millisecond)
		w.WriteString("second\n")
		time.Sleep(20 * time.Millisecond)
		close(childDone)
	}()

	require.True(t, sc.Scan())
	assert.Equal(t, "second", sc.Text())

	// With the child gone and no more data, the tail ends.
	assert.False(t, sc.Scan())
	require.NoError(t, sc.Err())
}

func TestTailReaderCloseUnblocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spill.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	r, err := os.Open(path)
	require.NoError(t, err)

	tr := newTailReader(r, clock.New(), make(chan struct{}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 16)
		tr.Read(buf)
	}()

	time.Sleep(20 * time.Millisecond)
	tr.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read did not observe close within the poll interval")
	}
}
