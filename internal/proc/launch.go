// Package proc launches, terminates, and detaches from the child process.
package proc

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/watch"
)

// Child is a launched process plus its monitored stream handles. It
// implements watch.Process.
type Child struct {
	cmd  *exec.Cmd
	clk  clock.Clock
	pid  int
	pgid int

	pidFile   string
	group     bool
	spillLogs map[domain.StreamID]string

	done     chan struct{}
	exitCode int
}

// Launch starts argv with the stdio wiring the config asks for: a pipe per
// monitored stream (or a spill file in detach mode, so the child survives
// the watcher exiting), inherited stdio for unmonitored streams, optional
// extra descriptors, optional unbuffer wrapper, optional new process group.
// On failure nothing else is ever started; the caller classifies it as a
// launch error.
func Launch(cfg *domain.ExecutionConfig, argv []string, clk clock.Clock) (*Child, []watch.StreamHandle, error) {
	if len(argv) == 0 {
		return nil, nil, fmt.Errorf("no command given")
	}
	if cfg.Unbuffer {
		argv = unbufferArgv(argv)
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, nil, fmt.Errorf("executable not found: %w", err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	if cfg.ProcessGroup {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	c := &Child{
		cmd:       cmd,
		clk:       clk,
		pidFile:   cfg.PIDFile,
		group:     cfg.ProcessGroup,
		spillLogs: make(map[domain.StreamID]string),
		done:      make(chan struct{}),
		exitCode:  -1,
	}

	monitored := make(map[domain.StreamID]bool, len(cfg.Streams))
	for _, s := range cfg.Streams {
		monitored[s] = true
	}

	var handles []watch.StreamHandle
	var closeAfterStart []*os.File

	wire := func(id domain.StreamID, set func(*os.File)) error {
		if !monitored[id] {
			return nil
		}
		w, r, err := c.outputPair(id, cfg.Detach)
		if err != nil {
			return err
		}
		set(w)
		closeAfterStart = append(closeAfterStart, w)
		handles = append(handles, watch.StreamHandle{ID: id, R: r})
		return nil
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := wire(domain.StreamStdout, func(f *os.File) { cmd.Stdout = f }); err != nil {
		return nil, nil, err
	}
	if err := wire(domain.StreamStderr, func(f *os.File) { cmd.Stderr = f }); err != nil {
		return nil, nil, err
	}
	for _, fd := range cfg.ExtraFDs {
		fd := fd
		if err := wire(domain.StreamFD(fd), func(f *os.File) { setExtraFile(cmd, fd, f) }); err != nil {
			return nil, nil, err
		}
	}

	if err := cmd.Start(); err != nil {
		for _, h := range handles {
			h.R.Close()
		}
		for _, f := range closeAfterStart {
			f.Close()
		}
		return nil, nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	// The child owns its copies now.
	for _, f := range closeAfterStart {
		f.Close()
	}

	c.pid = cmd.Process.Pid
	c.pgid = c.pid // with Setpgid the child leads its own group
	if !cfg.ProcessGroup {
		if pgid, err := syscall.Getpgid(c.pid); err == nil {
			c.pgid = pgid
		}
	}

	go func() {
		err := cmd.Wait()
		if cmd.ProcessState != nil {
			c.exitCode = cmd.ProcessState.ExitCode()
		} else if err != nil {
			c.exitCode = -1
		}
		close(c.done)
	}()

	if cfg.Detach {
		handles = c.tailHandles(handles)
	}
	return c, handles, nil
}

// outputPair returns the child-side writer and our reader for one stream.
// Detach mode routes the child through a spill file instead of a pipe: the
// child keeps a valid output destination after the watcher exits, and the
// watcher tails the file with a bounded poll.
func (c *Child) outputPair(id domain.StreamID, detach bool) (*os.File, *os.File, error) {
	if !detach {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err
		}
		return w, r, nil
	}
	w, err := os.CreateTemp("", "earlyexit-"+sanitize(id)+"-*.log")
	if err != nil {
		return nil, nil, err
	}
	r, err := os.Open(w.Name())
	if err != nil {
		w.Close()
		return nil, nil, err
	}
	c.spillLogs[id] = w.Name()
	return w, r, nil
}

// setExtraFile places f at descriptor fd (>= 3) in the child, padding the
// gaps with the null device.
func setExtraFile(cmd *exec.Cmd, fd int, f *os.File) {
	idx := fd - 3
	for len(cmd.ExtraFiles) <= idx {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.ExtraFiles = append(cmd.ExtraFiles, null)
	}
	cmd.ExtraFiles[idx] = f
}

// UnbufferAvailable reports whether the stdbuf wrapper exists on this host.
func UnbufferAvailable() bool {
	_, err := exec.LookPath("stdbuf")
	return err == nil
}

// unbufferArgv wraps argv so the child's stdio is forced to line-buffered
// mode. Skipped when stdbuf is unavailable.
func unbufferArgv(argv []string) []string {
	if !UnbufferAvailable() {
		return argv
	}
	return append([]string{"stdbuf", "-oL", "-eL"}, argv...)
}

func sanitize(id domain.StreamID) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		b := id[i]
		if b == ':' {
			b = '-'
		}
		out = append(out, b)
	}
	return string(out)
}

// PID returns the child's process identifier.
func (c *Child) PID() int { return c.pid }

// PGID returns the child's process-group identifier.
func (c *Child) PGID() int { return c.pgid }

// Done is closed once the child has been reaped.
func (c *Child) Done() <-chan struct{} { return c.done }

// ExitCode returns the child's exit status; valid after Done.
func (c *Child) ExitCode() int { return c.exitCode }

// Alive reports whether the child is still running.
func (c *Child) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// SpillLogs returns the per-stream spill file paths used in detach mode.
func (c *Child) SpillLogs() map[domain.StreamID]string { return c.spillLogs }

// tailHandles converts spill-file handles to poll-based tail readers that
// observe cancellation within one poll interval.
func (c *Child) tailHandles(handles []watch.StreamHandle) []watch.StreamHandle {
	out := make([]watch.StreamHandle, len(handles))
	for i, h := range handles {
		f, ok := h.R.(*os.File)
		if ok && c.spillLogs[h.ID] != "" {
			out[i] = watch.StreamHandle{ID: h.ID, R: newTailReader(f, c.clk, c.done)}
		} else {
			out[i] = h
		}
	}
	return out
}
