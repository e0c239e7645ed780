package proc

import (
	"bufio"
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

func stdoutConfig() *domain.ExecutionConfig {
	return &domain.ExecutionConfig{Streams: []domain.StreamID{domain.StreamStdout}}
}

func TestLaunchReadsChildOutput(t *testing.T) {
	child, handles, err := Launch(stdoutConfig(), []string{"sh", "-c", "printf 'one\ntwo\n'"}, clock.New())
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, domain.StreamStdout, handles[0].ID)

	sc := bufio.NewScanner(handles[0].R)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	assert.Equal(t, []string{"one", "two"}, lines)

	select {
	case <-child.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}
	assert.Equal(t, 0, child.ExitCode())
	assert.False(t, child.Alive())
}

func TestLaunchMissingExecutable(t *testing.T) {
	_, _, err := Launch(stdoutConfig(), []string{"definitely-not-a-real-binary-4242"}, clock.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLaunchEmptyArgv(t *testing.T) {
	_, _, err := Launch(stdoutConfig(), nil, clock.New())
	assert.Error(t, err)
}

func TestTerminateEscalatesToKill(t *testing.T) {
	// The child ignores SIGTERM, so termination must escalate.
	child, handles, err := Launch(stdoutConfig(), []string{"sh", "-c", "trap '' TERM; sleep 60"}, clock.New())
	require.NoError(t, err)
	defer handles[0].R.Close()

	start := time.Now()
	require.NoError(t, child.Terminate(200*time.Millisecond))
	assert.False(t, child.Alive())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTerminateGracefulExit(t *testing.T) {
	child, handles, err := Launch(stdoutConfig(), []string{"sleep", "60"}, clock.New())
	require.NoError(t, err)
	defer handles[0].R.Close()

	require.NoError(t, child.Terminate(2*time.Second))
	assert.False(t, child.Alive())
}

func TestDetachLeavesChildAlive(t *testing.T) {
	cfg := stdoutConfig()
	cfg.Detach = true

	child, handles, err := Launch(cfg, []string{"sh", "-c", "echo started; sleep 30"}, clock.New())
	require.NoError(t, err)
	defer func() {
		// Clean up the deliberately surviving child.
		syscall.Kill(child.PID(), syscall.SIGKILL)
	}()

	for _, h := range handles {
		h.R.Close()
	}
	require.NoError(t, child.Detach())

	// The child's identifier remains resolvable and the process is alive.
	assert.NoError(t, syscall.Kill(child.PID(), 0))
	assert.True(t, child.Alive())
}

func TestDetachPersistsState(t *testing.T) {
	cfg := stdoutConfig()
	cfg.Detach = true
	cfg.PIDFile = t.TempDir() + "/detach.json"

	child, handles, err := Launch(cfg, []string{"sleep", "30"}, clock.New())
	require.NoError(t, err)
	defer syscall.Kill(child.PID(), syscall.SIGKILL)
	for _, h := range handles {
		h.R.Close()
	}

	require.NoError(t, child.Detach())

	st, err := LoadDetachState(cfg.PIDFile)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, child.PID(), st.PID)
	assert.Equal(t, child.PGID(), st.PGID)
	assert.NotEmpty(t, st.SpillLogs)
}

func TestUnbufferArgv(t *testing.T) {
	wrapped := unbufferArgv([]string{"mytool", "--flag"})
	if len(wrapped) == 2 {
		// stdbuf unavailable on this host; argv passes through untouched.
		assert.Equal(t, []string{"mytool", "--flag"}, wrapped)
		return
	}
	assert.Equal(t, []string{"stdbuf", "-oL", "-eL", "mytool", "--flag"}, wrapped)
}

func TestProcessGroupLeadership(t *testing.T) {
	cfg := stdoutConfig()
	cfg.ProcessGroup = true

	child, handles, err := Launch(cfg, []string{"sleep", "30"}, clock.New())
	require.NoError(t, err)
	defer handles[0].R.Close()
	defer child.Terminate(0)

	assert.Equal(t, child.PID(), child.PGID())
}
