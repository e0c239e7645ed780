package domain

import (
	"errors"
	"regexp"
	"time"
)

// DetectorConfig configures a stuck or no-progress detector.
type DetectorConfig struct {
	// Extract pulls the normalized key out of a line. When nil the whole
	// line is the key. With capture groups, the first group is the key.
	Extract *regexp.Regexp
	// Strip patterns are removed from the line before extraction, used to
	// drop timestamps and counters that would defeat repeat detection.
	Strip []*regexp.Regexp
	// MaxRepeat is the number of consecutive identical observations that
	// trips the detector.
	MaxRepeat int
}

// RegressionConfig configures ordered-state regression detection.
type RegressionConfig struct {
	// Extract pulls the state name out of a line; non-matching lines are
	// ignored.
	Extract *regexp.Regexp
	// States is the expected forward order. A move backward relative to the
	// highest index seen so far fires immediately.
	States []string
}

// ExecutionConfig is the resolved configuration for one watch session,
// produced by the CLI layer before any process is spawned.
type ExecutionConfig struct {
	SuccessPattern *regexp.Regexp
	ErrorPattern   *regexp.Regexp
	ExcludePattern *regexp.Regexp

	// Streams lists the monitored streams in priority order.
	Streams []StreamID
	// ExtraFDs are additional child descriptors (>= 3) to create and watch.
	ExtraFDs []int

	OverallTimeout     time.Duration
	IdleTimeout        time.Duration
	FirstOutputTimeout time.Duration
	// StreamIdleTimeout bounds silence on one specific stream, independent
	// of activity on the others.
	StreamIdleTimeout map[StreamID]time.Duration

	BeforeLines int
	AfterLines  int
	AfterWindow time.Duration

	Stuck      *DetectorConfig
	NoProgress *DetectorConfig
	Regression *RegressionConfig
	// DetectorGrace delays termination after a detector fires, giving the
	// child a last chance to produce a primary match.
	DetectorGrace time.Duration

	Detach       bool
	ProcessGroup bool
	Unbuffer     bool
	PIDFile      string
	KillGrace    time.Duration

	// PipeMode reads stdin as the single monitored stream instead of
	// owning a child process.
	PipeMode bool
}

// HasPrimaryPattern reports whether any terminating pattern is configured.
func (c *ExecutionConfig) HasPrimaryPattern() bool {
	return c.SuccessPattern != nil || c.ErrorPattern != nil
}

// Validate checks cross-field constraints that flag parsing cannot.
func (c *ExecutionConfig) Validate() error {
	if c.PipeMode {
		if c.SuccessPattern != nil && c.ErrorPattern != nil {
			return errors.New("pipe mode accepts exactly one pattern")
		}
		if !c.HasPrimaryPattern() {
			return errors.New("pipe mode requires a pattern")
		}
	}
	if c.Stuck != nil && c.Stuck.MaxRepeat < 2 {
		return errors.New("stuck detection requires max-repeat >= 2")
	}
	if c.NoProgress != nil && c.NoProgress.MaxRepeat < 2 {
		return errors.New("no-progress detection requires max-repeat >= 2")
	}
	if c.Regression != nil && len(c.Regression.States) < 2 {
		return errors.New("regression detection requires at least two states")
	}
	return nil
}
