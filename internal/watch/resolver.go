package watch

import (
	"sync"
	"sync/atomic"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Resolver is the single-assignment arbiter between competing termination
// triggers. The first trigger wins; later triggers are recorded for
// diagnostics but never change the outcome. This is the only piece of
// state in the engine requiring real mutual exclusion.
type Resolver struct {
	decided  atomic.Bool
	decision domain.ExitDecision
	done     chan struct{}

	mu   sync.Mutex
	late []domain.ExitDecision
}

// NewResolver creates an undecided resolver.
func NewResolver() *Resolver {
	return &Resolver{done: make(chan struct{})}
}

// Resolve attempts to assign the terminal decision. It returns true when d
// won; false when another trigger got there first, in which case d is kept
// as a late trigger for diagnostics.
func (r *Resolver) Resolve(d domain.ExitDecision) bool {
	if r.decided.CompareAndSwap(false, true) {
		r.decision = d
		close(r.done)
		return true
	}
	r.mu.Lock()
	r.late = append(r.late, d)
	r.mu.Unlock()
	return false
}

// Done is closed once a decision exists. Decision may be read after Done.
func (r *Resolver) Done() <-chan struct{} { return r.done }

// Decided reports whether a decision exists.
func (r *Resolver) Decided() bool { return r.decided.Load() }

// Decision returns the terminal decision. Valid only after Done is closed.
func (r *Resolver) Decision() domain.ExitDecision {
	<-r.done
	return r.decision
}

// Late returns triggers that fired after the decision, for diagnostics.
func (r *Resolver) Late() []domain.ExitDecision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ExitDecision(nil), r.late...)
}
