package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/output"
	"github.com/rsleedbx/earlyexit/internal/proc"
)

// RunCmd launches a command and watches its output until a pattern
// matches, a timeout trips, progress stalls, or the command finishes.
type RunCmd struct {
	watchFlags

	Stream       []string `default:"stdout,stderr" help:"Streams to monitor (stdout, stderr)"`
	ExtraFD      []int    `help:"Extra child file descriptors (>= 3) to create and monitor; can be repeated"`
	Detach       bool     `short:"d" help:"On match, exit (code 4) and leave the child running"`
	PidFile      string   `help:"Where to persist the child's pid/pgid on detach"`
	ProcessGroup bool     `help:"Start the child in its own process group and signal the whole group"`
	Unbuffer     bool     `short:"u" help:"Force line-buffered child stdio via stdbuf"`

	Args []string `arg:"" passthrough:"" help:"Command and arguments to run"`
}

// Run executes the run command.
func (c *RunCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An external interrupt becomes its own terminal state (exit 130).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := c.buildConfig(globals, false)
	if err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
		return nil
	}
	for _, s := range c.Stream {
		switch domain.StreamID(s) {
		case domain.StreamStdout, domain.StreamStderr:
			cfg.Streams = append(cfg.Streams, domain.StreamID(s))
		default:
			globals.ExitCode = domain.ExitLaunchError
			outputErrorCommon(globals, "INVALID_STREAM", "unknown stream: "+s, "use stdout or stderr; extra descriptors go through --extra-fd")
			return nil
		}
	}
	for _, fd := range c.ExtraFD {
		if fd < 3 {
			globals.ExitCode = domain.ExitLaunchError
			outputErrorCommon(globals, "INVALID_STREAM", "extra fds start at 3")
			return nil
		}
		cfg.ExtraFDs = append(cfg.ExtraFDs, fd)
		cfg.Streams = append(cfg.Streams, domain.StreamFD(fd))
	}
	cfg.Detach = c.Detach
	cfg.PIDFile = c.PidFile
	cfg.ProcessGroup = c.ProcessGroup
	cfg.Unbuffer = c.Unbuffer
	if cfg.Unbuffer && !proc.UnbufferAvailable() {
		if globals.Format == "ndjson" {
			output.NewNDJSONWriter(globals.Stdout).WriteInfo("stdbuf not found; child output may be block-buffered")
		} else if !globals.Quiet {
			fmt.Fprintln(globals.Stderr, "Warning: stdbuf not found; child output may be block-buffered")
		}
	}

	child, handles, err := proc.Launch(cfg, c.Args, clock.New())
	if err != nil {
		// The one failure with no concurrency at all: nothing else was
		// ever started.
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "LAUNCH_FAILED", err.Error())
		return nil
	}

	globals.ExitCode = runSession(ctx, globals, cfg, handles, child)
	return nil
}
