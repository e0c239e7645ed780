// Package output renders match events, context, and the exit decision as
// NDJSON (for agents and scripts) or styled text (for humans).
package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/match"
	"github.com/rsleedbx/earlyexit/internal/watch"
)

// SchemaVersion of every emitted NDJSON record.
const SchemaVersion = domain.SchemaVersion

// NDJSONWriter emits one JSON object per line. Safe for concurrent use.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates an NDJSON writer over w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// WriteEvent emits a match event record.
func (w *NDJSONWriter) WriteEvent(ev domain.MatchEvent) error {
	return w.write(ev)
}

// WriteDecision emits the terminal exit decision record.
func (w *NDJSONWriter) WriteDecision(d domain.ExitDecision) error {
	return w.write(d)
}

// WriteContext emits the before/after context around the winning match.
func (w *NDJSONWriter) WriteContext(r watch.ContextReport) error {
	return w.write(r)
}

// WriteScanResult emits an offline scan summary.
func (w *NDJSONWriter) WriteScanResult(res *match.ScanResult) error {
	return w.write(res)
}

// WriteError emits a machine-readable failure record.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	rec := struct {
		Type          string `json:"type"` // "error"
		SchemaVersion int    `json:"schemaVersion"`
		Code          string `json:"code"`
		Message       string `json:"message"`
		Hint          string `json:"hint,omitempty"`
	}{Type: "error", SchemaVersion: SchemaVersion, Code: code, Message: message}
	if len(hint) > 0 {
		rec.Hint = hint[0]
	}
	return w.write(rec)
}

// WriteInfo emits an informational record.
func (w *NDJSONWriter) WriteInfo(message string) error {
	rec := struct {
		Type          string `json:"type"` // "info"
		SchemaVersion int    `json:"schemaVersion"`
		Message       string `json:"message"`
	}{Type: "info", SchemaVersion: SchemaVersion, Message: message}
	return w.write(rec)
}
