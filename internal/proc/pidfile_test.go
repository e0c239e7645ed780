package proc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetachStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "detach.json")

	st := &DetachState{
		Type:          "detach_state",
		SchemaVersion: 1,
		PID:           4242,
		PGID:          4242,
		SpillLogs:     map[string]string{"stdout": "/tmp/out.log"},
		DetachedAt:    "2026-08-24T10:00:00Z",
	}
	require.NoError(t, saveDetachState(path, st))

	loaded, err := LoadDetachState(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, st, loaded)
}

func TestLoadDetachStateMissingFile(t *testing.T) {
	loaded, err := LoadDetachState(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadDetachStateEmptyPath(t *testing.T) {
	_, err := LoadDetachState("  ")
	assert.Error(t, err)
}
