package watch

import (
	"bufio"
	"io"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Line is one timestamped line of child output.
type Line struct {
	Stream domain.StreamID
	No     int // 1-based, per stream
	Text   string
	When   time.Time
}

// StreamHandle pairs a stream identity with its readable end.
type StreamHandle struct {
	ID domain.StreamID
	R  io.ReadCloser
}

// Reader pumps one monitored stream. It exclusively owns writes to its own
// sink and its stream-local timestamp; the only cross-goroutine state it
// touches is the monotonic-max timestamp bundle. A read error is treated
// as EOF for this stream only and never aborts the others.
type Reader struct {
	handle StreamHandle
	clk    clock.Clock
	ts     *Timestamps
	sink   io.Writer // echo / log sink for this stream; may be nil
	lines  chan<- Line
	stop   <-chan struct{}
}

// NewReader creates a reader for one stream. lines is the engine's shared
// intake channel; stop releases the reader when the session resolves.
func NewReader(h StreamHandle, clk clock.Clock, ts *Timestamps, sink io.Writer, lines chan<- Line, stop <-chan struct{}) *Reader {
	return &Reader{handle: h, clk: clk, ts: ts, sink: sink, lines: lines, stop: stop}
}

// Run reads until EOF, read error, or stop. Call in its own goroutine; the
// engine closes the underlying handle on teardown, which unblocks the read.
func (r *Reader) Run() {
	defer r.handle.R.Close()

	sc := bufio.NewScanner(r.handle.R)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		now := r.clk.Now()
		text := sc.Text()

		r.ts.Touch(r.handle.ID, now)
		if r.sink != nil {
			io.WriteString(r.sink, text+"\n")
		}

		select {
		case r.lines <- Line{Stream: r.handle.ID, No: lineNo, Text: text, When: now}:
		case <-r.stop:
			return
		}
	}
	// Scanner errors land here too; per-stream faults are contained as EOF.
}
