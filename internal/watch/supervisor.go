package watch

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// tickInterval is the supervisor's evaluation period. Timeouts therefore
// resolve within one tick of their nominal threshold.
const tickInterval = 100 * time.Millisecond

// Supervisor periodically evaluates the independent timeout policies
// against the shared timestamp state. Policies are checked in priority
// order: first-output, stream-idle, idle, overall. A zero threshold
// disables a policy. The first policy to trip produces the session's only
// timeout classification; afterwards the supervisor stops evaluating.
type Supervisor struct {
	clk      clock.Clock
	cfg      *domain.ExecutionConfig
	ts       *Timestamps
	resolver *Resolver
}

// NewSupervisor wires a supervisor to the session's timing state and
// resolver.
func NewSupervisor(clk clock.Clock, cfg *domain.ExecutionConfig, ts *Timestamps, resolver *Resolver) *Supervisor {
	return &Supervisor{clk: clk, cfg: cfg, ts: ts, resolver: resolver}
}

// enabled reports whether any policy has a non-zero threshold; with none,
// Run returns immediately and no ticker is ever scheduled.
func (s *Supervisor) enabled() bool {
	if s.cfg.FirstOutputTimeout > 0 || s.cfg.IdleTimeout > 0 || s.cfg.OverallTimeout > 0 {
		return true
	}
	for _, d := range s.cfg.StreamIdleTimeout {
		if d > 0 {
			return true
		}
	}
	return false
}

// Run ticks until a policy trips or the session resolves. Call in its own
// goroutine.
func (s *Supervisor) Run() {
	if !s.enabled() {
		return
	}
	ticker := s.clk.Ticker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.resolver.Done():
			return
		case now := <-ticker.C:
			if reason, tripped := s.evaluate(now); tripped {
				s.resolver.Resolve(domain.NewExitDecision(domain.ClassTimeout, reason))
				return
			}
		}
	}
}

// evaluate checks the policies in priority order against now.
func (s *Supervisor) evaluate(now time.Time) (string, bool) {
	// First-output: active only until any stream produces its first line,
	// then permanently disarmed.
	if d := s.cfg.FirstOutputTimeout; d > 0 && !s.ts.FirstSeen() {
		if now.Sub(s.ts.Start()) >= d {
			return fmt.Sprintf("no output within %s", d), true
		}
	}
	// Stream-idle: silence on one specific stream, independent of others.
	for _, stream := range s.cfg.Streams {
		d := s.cfg.StreamIdleTimeout[stream]
		if d <= 0 {
			continue
		}
		if now.Sub(s.ts.LastStream(stream)) >= d {
			return fmt.Sprintf("no output on %s for %s", stream, d), true
		}
	}
	// Idle: silence on every monitored stream.
	if d := s.cfg.IdleTimeout; d > 0 {
		if now.Sub(s.ts.LastAny()) >= d {
			return fmt.Sprintf("no output for %s", d), true
		}
	}
	// Overall: elapsed time since launch.
	if d := s.cfg.OverallTimeout; d > 0 {
		if now.Sub(s.ts.Start()) >= d {
			return fmt.Sprintf("still running after %s", d), true
		}
	}
	return "", false
}
