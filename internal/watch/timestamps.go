// Package watch contains the decision engine: stream readers, the timeout
// supervisor, context capture, and the single-assignment exit resolver.
package watch

import (
	"sync/atomic"
	"time"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Timestamps is the shared timing state written concurrently by the stream
// readers and read by the timeout supervisor. Every write is a
// monotonic-max store, so concurrent writers need no lock: only increasing
// values are ever stored.
type Timestamps struct {
	start     time.Time
	anyOutput atomic.Int64 // unix nanos; zero means no output yet
	perStream map[domain.StreamID]*atomic.Int64
}

// NewTimestamps creates timing state for the given streams. The stream set
// is fixed for the session; the map is never mutated after construction.
func NewTimestamps(streams []domain.StreamID, start time.Time) *Timestamps {
	per := make(map[domain.StreamID]*atomic.Int64, len(streams))
	for _, s := range streams {
		per[s] = &atomic.Int64{}
	}
	return &Timestamps{start: start, perStream: per}
}

// Touch records output on a stream at ts. Safe for concurrent use.
func (t *Timestamps) Touch(stream domain.StreamID, ts time.Time) {
	n := ts.UnixNano()
	if a, ok := t.perStream[stream]; ok {
		storeMax(a, n)
	}
	storeMax(&t.anyOutput, n)
}

// Start returns the session launch time.
func (t *Timestamps) Start() time.Time { return t.start }

// FirstSeen reports whether any stream has produced output.
func (t *Timestamps) FirstSeen() bool { return t.anyOutput.Load() != 0 }

// LastAny returns the most recent output time on any stream, or the start
// time when nothing has been seen.
func (t *Timestamps) LastAny() time.Time {
	if n := t.anyOutput.Load(); n != 0 {
		return time.Unix(0, n)
	}
	return t.start
}

// LastStream returns the most recent output time on one stream, or the
// start time when that stream has been silent.
func (t *Timestamps) LastStream(stream domain.StreamID) time.Time {
	if a, ok := t.perStream[stream]; ok {
		if n := a.Load(); n != 0 {
			return time.Unix(0, n)
		}
	}
	return t.start
}

func storeMax(a *atomic.Int64, v int64) {
	for {
		cur := a.Load()
		if v <= cur {
			return
		}
		if a.CompareAndSwap(cur, v) {
			return
		}
	}
}
