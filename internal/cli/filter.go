package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/watch"
)

// FilterCmd watches stdin as a single monitored stream, passing lines
// through while looking for the configured pattern. Exactly one primary
// pattern is required; after-context defaults to zero so downstream
// consumers see lines immediately.
type FilterCmd struct {
	watchFlags
}

// Run executes the filter command.
func (c *FilterCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := c.buildConfig(globals, true)
	if err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
		return nil
	}
	cfg.Streams = []domain.StreamID{domain.StreamStdin}

	handles := []watch.StreamHandle{{ID: domain.StreamStdin, R: os.Stdin}}
	globals.ExitCode = runSession(ctx, globals, cfg, handles, nil)
	return nil
}
