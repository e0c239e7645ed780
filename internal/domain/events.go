package domain

import "time"

// MatchKind classifies a MatchEvent.
type MatchKind string

const (
	MatchSuccess    MatchKind = "success"
	MatchError      MatchKind = "error"
	MatchExclude    MatchKind = "exclude"
	MatchStuck      MatchKind = "stuck"
	MatchNoProgress MatchKind = "no_progress"
	MatchRegression MatchKind = "regression"
)

// Primary reports whether this kind terminates the session via pattern
// matching (as opposed to exclusion or a progress detector).
func (k MatchKind) Primary() bool {
	return k == MatchSuccess || k == MatchError
}

// MatchEvent is emitted for every line that matched a pattern or tripped a
// detector. Observers (console echo, log writers, telemetry) consume these;
// they never block the core.
type MatchEvent struct {
	Type          string    `json:"type"` // "match"
	SchemaVersion int       `json:"schemaVersion"`
	Kind          MatchKind `json:"kind"`
	Stream        StreamID  `json:"stream"`
	LineNo        int       `json:"line"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewMatchEvent creates a MatchEvent with the current schema version.
func NewMatchEvent(kind MatchKind, stream StreamID, lineNo int, text string, ts time.Time) MatchEvent {
	return MatchEvent{
		Type:          "match",
		SchemaVersion: SchemaVersion,
		Kind:          kind,
		Stream:        stream,
		LineNo:        lineNo,
		Text:          text,
		Timestamp:     ts,
	}
}

// SchemaVersion is bumped whenever an emitted record changes shape.
const SchemaVersion = 1
