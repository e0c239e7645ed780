package watch

// Ring is a bounded buffer of the last N lines on one stream, used to
// satisfy before-context immediately when a match fires. O(1) memory,
// classic trailing-window semantics.
type Ring struct {
	buf  []string
	next int
	full bool
}

// NewRing creates a ring with the given capacity. Capacity zero yields a
// ring that stores nothing.
func NewRing(capacity int) *Ring {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring{buf: make([]string, capacity)}
}

// Push appends a line, evicting the oldest when full.
func (r *Ring) Push(line string) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = line
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// Lines returns the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	if !r.full {
		return append([]string(nil), r.buf[:r.next]...)
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
