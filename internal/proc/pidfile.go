package proc

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// DetachState is persisted when the watcher detaches, so the caller can
// still resolve the child's process and group identifiers after the tool
// has exited.
type DetachState struct {
	Type          string            `json:"type"` // "detach_state"
	SchemaVersion int               `json:"schemaVersion"`
	PID           int               `json:"pid"`
	PGID          int               `json:"pgid"`
	SpillLogs     map[string]string `json:"spill_logs,omitempty"`
	DetachedAt    string            `json:"detached_at"`
}

func newDetachState(c *Child) *DetachState {
	st := &DetachState{
		Type:          "detach_state",
		SchemaVersion: domain.SchemaVersion,
		PID:           c.pid,
		PGID:          c.pgid,
		DetachedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if len(c.spillLogs) > 0 {
		st.SpillLogs = make(map[string]string, len(c.spillLogs))
		for id, path := range c.spillLogs {
			st.SpillLogs[string(id)] = path
		}
	}
	return st
}

func saveDetachState(path string, st *DetachState) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("detach state path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// LoadDetachState reads a previously persisted detach state. A missing
// file returns (nil, nil).
func LoadDetachState(path string) (*DetachState, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("detach state path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var st DetachState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
