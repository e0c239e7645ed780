package cli

import (
	"context"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/output"
	"github.com/rsleedbx/earlyexit/internal/watch"
)

// runSession drives one engine to its terminal decision, forwarding match
// events to the configured writer and emitting exactly one status line and
// one exit code.
func runSession(ctx context.Context, globals *Globals, cfg *domain.ExecutionConfig, handles []watch.StreamHandle, child watch.Process) int {
	log := newSessionLogger(globals)

	opts := []watch.Option{}
	if child != nil {
		opts = append(opts, watch.WithChild(child))
	}
	if log.Sugared() != nil {
		opts = append(opts, watch.WithLogger(log.Sugared()))
	}
	// Echo sinks: child stdout and extra fds pass through to our stdout,
	// child stderr to our stderr. Each sink is owned by one reader.
	for _, h := range handles {
		sink := globals.Stdout
		if h.ID == domain.StreamStderr {
			sink = globals.Stderr
		}
		opts = append(opts, watch.WithSink(h.ID, sink))
	}
	eng := watch.NewEngine(cfg, handles, opts...)

	var ndjson *output.NDJSONWriter
	var text *output.TextWriter
	if globals.Format == "ndjson" {
		ndjson = output.NewNDJSONWriter(globals.Stdout)
	} else {
		text = output.NewTextWriter(globals.Stderr)
	}

	// Pure observer of the match event feed; the engine never blocks on it.
	obsDone := make(chan struct{})
	go func() {
		defer close(obsDone)
		for ev := range eng.Events() {
			if ndjson != nil {
				ndjson.WriteEvent(ev)
			} else if !globals.Quiet {
				text.WriteEvent(ev)
			}
		}
	}()

	decision := eng.Run(ctx)
	<-obsDone

	if rep := eng.Context(); rep.Match != nil {
		if ndjson != nil {
			ndjson.WriteContext(rep)
		} else if !globals.Quiet {
			text.WriteContext(rep)
		}
	}
	if ndjson != nil {
		ndjson.WriteDecision(decision)
	} else if !globals.Quiet {
		text.WriteDecision(decision)
	}
	for _, late := range eng.Late() {
		log.Debug("late trigger: %s (%s)", late.Classification, late.Reason)
	}
	return decision.ExitCode
}
