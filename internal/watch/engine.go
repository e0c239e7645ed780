package watch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/match"
)

// Process is the engine's view of the launched child. Nil in pipe mode.
type Process interface {
	// Done is closed once the child has exited and been reaped.
	Done() <-chan struct{}
	// ExitCode is valid after Done.
	ExitCode() int
	// Alive reports whether the child is still running.
	Alive() bool
	// Terminate sends the graceful signal, waits up to grace, then kills.
	Terminate(grace time.Duration) error
	// Detach leaves the child running and persists its identifiers.
	Detach() error
}

// Engine wires the readers, matcher, detectors, supervisor, and capture
// window around the exit resolver. One Engine serves one session.
type Engine struct {
	cfg     *domain.ExecutionConfig
	handles []StreamHandle
	child   Process
	clk     clock.Clock
	log     *zap.SugaredLogger
	sinks   map[domain.StreamID]io.Writer

	resolver *Resolver
	ts       *Timestamps
	events   chan domain.MatchEvent
	report   ContextReport
}

// Option configures an Engine.
type Option func(*Engine)

// WithChild attaches the launched child process.
func WithChild(p Process) Option { return func(e *Engine) { e.child = p } }

// WithClock substitutes the session clock, used by tests.
func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clk = c } }

// WithSink routes a stream's echo/log output. Each sink is written from
// exactly one reader goroutine.
func WithSink(s domain.StreamID, w io.Writer) Option {
	return func(e *Engine) { e.sinks[s] = w }
}

// WithLogger attaches a verbose debug logger.
func WithLogger(l *zap.SugaredLogger) Option { return func(e *Engine) { e.log = l } }

// NewEngine creates an engine over the given stream handles.
func NewEngine(cfg *domain.ExecutionConfig, handles []StreamHandle, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		handles:  handles,
		clk:      clock.New(),
		sinks:    make(map[domain.StreamID]io.Writer),
		resolver: NewResolver(),
		events:   make(chan domain.MatchEvent, 64),
		report:   ContextReport{Type: "context", SchemaVersion: domain.SchemaVersion},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Events is the observer feed of match events. Sends never block the core;
// events are dropped when the observer lags.
func (e *Engine) Events() <-chan domain.MatchEvent { return e.events }

// Context returns the before/after context around the winning match. Valid
// after Run returns.
func (e *Engine) Context() ContextReport { return e.report }

// Late returns triggers that fired after the terminal decision.
func (e *Engine) Late() []domain.ExitDecision { return e.resolver.Late() }

// Run drives the session to its single terminal decision and tears down
// all readers and the supervisor. In detach mode the child is left running.
func (e *Engine) Run(ctx context.Context) domain.ExitDecision {
	streams := make([]domain.StreamID, 0, len(e.handles))
	for _, h := range e.handles {
		streams = append(streams, h.ID)
	}
	e.ts = NewTimestamps(streams, e.clk.Now())

	lines := make(chan Line, 256)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for _, h := range e.handles {
		wg.Add(1)
		rd := NewReader(h, e.clk, e.ts, e.sinks[h.ID], lines, stop)
		go func() {
			defer wg.Done()
			rd.Run()
		}()
	}
	allEOF := make(chan struct{})
	go func() {
		wg.Wait()
		close(allEOF)
	}()

	go NewSupervisor(e.clk, e.cfg, e.ts, e.resolver).Run()

	e.loop(ctx, lines, allEOF)

	decision := e.resolver.Decision()
	e.teardown(decision, stop)
	close(e.events)
	return decision
}

func (e *Engine) loop(ctx context.Context, lines <-chan Line, allEOF <-chan struct{}) {
	matcher := match.New(e.cfg.SuccessPattern, e.cfg.ErrorPattern, e.cfg.ExcludePattern)
	detectors := make(map[domain.StreamID]*match.DetectorSet, len(e.handles))
	rings := make(map[domain.StreamID]*Ring, len(e.handles))
	for _, h := range e.handles {
		detectors[h.ID] = match.NewDetectorSet(e.cfg)
		rings[h.ID] = NewRing(e.cfg.BeforeLines)
	}

	var window *Window
	var graceTimer *clock.Timer
	var graceCh <-chan time.Time
	var pendingDetect *domain.ExitDecision
	defer func() {
		if graceTimer != nil {
			graceTimer.Stop()
		}
		if window != nil {
			window.Stop()
		}
	}()

	eofAll := false
	childDone := e.child == nil
	var childDoneCh <-chan struct{}
	if e.child != nil {
		childDoneCh = e.child.Done()
	}

	windowExpired := func() <-chan time.Time {
		if window != nil {
			return window.Expired()
		}
		return nil
	}

	finish := func() {
		best := matcher.Best()
		class := domain.ClassMatched
		if e.cfg.Detach {
			class = domain.ClassDetached
		}
		d := domain.NewExitDecision(class, fmt.Sprintf("%s pattern matched at %s:%d", best.Kind, best.Stream, best.LineNo))
		d.Match = best
		e.report.Match = best
		if window != nil {
			for _, l := range window.Lines() {
				e.report.After = append(e.report.After, l.Text)
			}
			window.Stop()
		}
		e.resolver.Resolve(d)
	}

	naturalExit := func() {
		if window != nil || matcher.Best() != nil {
			finish()
			return
		}
		reason := "input closed, no pattern matched"
		if e.child != nil {
			reason = fmt.Sprintf("process exited with status %d", e.child.ExitCode())
			if e.cfg.HasPrimaryPattern() {
				reason += ", no pattern matched"
			}
		}
		e.resolver.Resolve(domain.NewExitDecision(domain.ClassNoMatch, reason))
	}

	handleLine := func(l Line) {
		e.debugf("line %s:%d %q", l.Stream, l.No, l.Text)
		if window != nil {
			// A capture window is open. Later matches still arbitrate (an
			// earlier-stamped match on another stream may replace the
			// reported event) but the window keeps running.
			if ev := matcher.Observe(l.Stream, l.No, l.Text, l.When); ev != nil && ev.Kind.Primary() {
				e.emit(*ev)
			}
			if window.Add(l) {
				finish()
			}
			return
		}
		if ev := matcher.Observe(l.Stream, l.No, l.Text, l.When); ev != nil {
			e.emit(*ev)
			if ev.Kind == domain.MatchExclude {
				rings[l.Stream].Push(l.Text)
				return
			}
			// Qualifying primary match: satisfy before-context from the
			// rings, then open the bounded after-context window.
			for s, r := range rings {
				if ctxLines := r.Lines(); len(ctxLines) > 0 {
					if e.report.Before == nil {
						e.report.Before = make(map[domain.StreamID][]string)
					}
					e.report.Before[s] = ctxLines
				}
			}
			if e.cfg.AfterLines <= 0 && e.cfg.AfterWindow <= 0 {
				finish()
				return
			}
			window = NewWindow(e.clk, e.cfg.AfterLines, e.cfg.AfterWindow)
			return
		}
		if dev := detectors[l.Stream].Observe(l.Stream, l.No, l.Text, l.When); dev != nil {
			e.emit(*dev)
			d := domain.NewExitDecision(domain.ClassStuck, fmt.Sprintf("%s detected at %s:%d", dev.Kind, dev.Stream, dev.LineNo))
			d.Match = dev
			if e.cfg.DetectorGrace > 0 {
				if graceCh == nil {
					pendingDetect = &d
					graceTimer = e.clk.Timer(e.cfg.DetectorGrace)
					graceCh = graceTimer.C
				}
				return
			}
			e.resolver.Resolve(d)
			return
		}
		rings[l.Stream].Push(l.Text)
	}

	for !e.resolver.Decided() {
		select {
		case <-ctx.Done():
			// An external interrupt always wins, even over an in-flight
			// capture window.
			e.resolver.Resolve(domain.NewExitDecision(domain.ClassInterrupted, "interrupted"))
		case <-e.resolver.Done():
			return
		case <-windowExpired():
			finish()
		case <-graceCh:
			if pendingDetect != nil {
				e.resolver.Resolve(*pendingDetect)
			}
		case <-childDoneCh:
			childDone = true
			childDoneCh = nil
			if eofAll {
				naturalExit()
			}
		case <-allEOF:
			eofAll = true
			allEOF = nil
			// Buffered lines may still be queued behind the EOF signal.
		drain:
			for {
				select {
				case l := <-lines:
					handleLine(l)
					if e.resolver.Decided() {
						return
					}
				default:
					break drain
				}
			}
			// All streams at EOF ends an open capture window immediately;
			// a no-match classification still waits for the exit status.
			if window != nil || matcher.Best() != nil {
				finish()
			} else if childDone {
				naturalExit()
			}
		case l := <-lines:
			handleLine(l)
		}
	}
}

func (e *Engine) teardown(d domain.ExitDecision, stop chan struct{}) {
	close(stop)
	for _, h := range e.handles {
		h.R.Close()
	}
	if e.child == nil {
		return
	}
	if d.Classification == domain.ClassDetached {
		if err := e.child.Detach(); err != nil {
			e.debugf("detach: %v", err)
		}
		return
	}
	if e.child.Alive() {
		if err := e.child.Terminate(e.cfg.KillGrace); err != nil {
			e.debugf("terminate: %v", err)
		}
	}
}

// emit forwards a match event to observers without ever blocking the core.
func (e *Engine) emit(ev domain.MatchEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) debugf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Debugf(format, args...)
	}
}
