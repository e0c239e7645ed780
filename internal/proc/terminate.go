package proc

import (
	"syscall"
	"time"
)

// Terminate asks the child to exit: SIGTERM (to the whole process group if
// one was requested), a grace period, then SIGKILL if it is still alive.
func (c *Child) Terminate(grace time.Duration) error {
	if !c.Alive() {
		return nil
	}
	c.signal(syscall.SIGTERM)

	if grace > 0 {
		timer := c.clk.Timer(grace)
		defer timer.Stop()
		select {
		case <-c.done:
			return nil
		case <-timer.C:
		}
	}
	if !c.Alive() {
		return nil
	}
	c.signal(syscall.SIGKILL)
	<-c.done
	return nil
}

// Detach leaves the child running. No signal is ever sent; the child's
// identifiers (and spill log locations) are persisted for the caller when
// a state file is configured. From here the child's lifecycle is solely
// the caller's responsibility.
func (c *Child) Detach() error {
	if c.pidFile == "" {
		return nil
	}
	return saveDetachState(c.pidFile, newDetachState(c))
}

func (c *Child) signal(sig syscall.Signal) {
	if c.group {
		// Negative pid addresses the whole group.
		if err := syscall.Kill(-c.pgid, sig); err == nil {
			return
		}
	}
	syscall.Kill(c.pid, sig)
}
