package domain

// Classification is the terminal outcome of a watch session.
type Classification string

const (
	ClassMatched     Classification = "matched"
	ClassNoMatch     Classification = "no_match"
	ClassTimeout     Classification = "timeout"
	ClassStuck       Classification = "stuck"
	ClassLaunchError Classification = "launch_error"
	ClassDetached    Classification = "detached"
	ClassInterrupted Classification = "interrupted"
)

// Canonical exit codes. External scripts depend on these; the CLI layer
// must pass them through unaltered.
const (
	ExitMatched     = 0   // configured pattern matched
	ExitNoMatch     = 1   // no match, clean completion
	ExitTimeout     = 2   // timeout / stuck / no-progress / regression
	ExitLaunchError = 3   // executable missing or failed to start
	ExitDetached    = 4   // detached, child still running
	ExitInterrupted = 130 // external interrupt
)

// ExitCode maps a classification to its canonical exit code.
func (c Classification) ExitCode() int {
	switch c {
	case ClassMatched:
		return ExitMatched
	case ClassNoMatch:
		return ExitNoMatch
	case ClassTimeout, ClassStuck:
		return ExitTimeout
	case ClassLaunchError:
		return ExitLaunchError
	case ClassDetached:
		return ExitDetached
	case ClassInterrupted:
		return ExitInterrupted
	}
	return ExitNoMatch
}

// ExitDecision is the single terminal record of a session. Exactly one is
// produced per session, no matter how many triggers fire.
type ExitDecision struct {
	Type           string         `json:"type"` // "exit_decision"
	SchemaVersion  int            `json:"schemaVersion"`
	Classification Classification `json:"classification"`
	ExitCode       int            `json:"exit_code"`
	Reason         string         `json:"reason"`
	ChildRunning   bool           `json:"child_running"` // true only when detached
	Match          *MatchEvent    `json:"match,omitempty"`
}

// NewExitDecision builds a decision with the canonical exit code for the
// classification.
func NewExitDecision(c Classification, reason string) ExitDecision {
	return ExitDecision{
		Type:           "exit_decision",
		SchemaVersion:  SchemaVersion,
		Classification: c,
		ExitCode:       c.ExitCode(),
		Reason:         reason,
		ChildRunning:   c == ClassDetached,
	}
}
