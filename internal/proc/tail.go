package proc

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// tailPoll is the interval between read attempts when a spill file has no
// new data. Cancellation is observed within one poll.
const tailPoll = 50 * time.Millisecond

// tailReader reads a growing spill file. At end of data it polls instead
// of blocking indefinitely; it only reports EOF once the child has exited
// and the file has no more bytes, or once it is closed.
type tailReader struct {
	f         *os.File
	clk       clock.Clock
	childDone <-chan struct{}
	closed    atomic.Bool
}

func newTailReader(f *os.File, clk clock.Clock, childDone <-chan struct{}) *tailReader {
	return &tailReader{f: f, clk: clk, childDone: childDone}
}

func (t *tailReader) Read(p []byte) (int, error) {
	for {
		if t.closed.Load() {
			return 0, io.EOF
		}
		n, err := t.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		select {
		case <-t.childDone:
			// One more read so bytes flushed right before exit are seen.
			if n, err := t.f.Read(p); n > 0 {
				return n, err
			}
			return 0, io.EOF
		default:
		}
		t.clk.Sleep(tailPoll)
	}
}

func (t *tailReader) Close() error {
	t.closed.Store(true)
	return t.f.Close()
}
