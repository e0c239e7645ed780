package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// watchFlags are shared by the run and filter commands and resolve into a
// domain.ExecutionConfig. Pattern compilation happens here, before any
// process is spawned.
type watchFlags struct {
	Pattern      string `short:"p" help:"Success regex; the session exits 0 when it matches"`
	ErrorPattern string `short:"e" help:"Error regex; takes precedence when a single line matches both"`
	Exclude      string `short:"x" help:"Regex for lines that must never count as a match"`

	Timeout            string   `short:"t" help:"Overall timeout since launch (0 disables)"`
	IdleTimeout        string   `help:"Max silence across all monitored streams (0 disables)"`
	FirstOutputTimeout string   `help:"Max silence before the very first line of output (0 disables)"`
	StreamIdle         []string `help:"Per-stream idle timeout as stream=duration (e.g. stderr=10s); can be repeated"`

	BeforeLines  int    `short:"B" default:"0" help:"Before-context lines kept per stream"`
	AfterLines   int    `short:"A" default:"-1" help:"After-context line budget once matched (-1 uses the mode default)"`
	AfterSeconds string `help:"After-context time budget once matched"`

	StuckPattern      string   `help:"Regex whose (sub)match must not repeat; trips stuck detection"`
	NoProgressPattern string   `help:"Regex whose (sub)match must keep changing; trips no-progress detection"`
	MaxRepeat         int      `help:"Consecutive identical observations that trip stuck/no-progress"`
	Strip             []string `help:"Regexes removed before stuck/no-progress comparison (timestamps, counters)"`
	RegressionStates  []string `help:"Ordered expected states; moving backward trips regression detection"`
	RegressionPattern string   `help:"Regex extracting the state name for regression detection"`
	DetectorGrace     string   `help:"Grace delay after a detector fires before terminating"`
}

// buildConfig resolves flags plus config-file defaults into the execution
// config. Invalid expressions and durations are fatal here, before the
// child is spawned.
func (f *watchFlags) buildConfig(globals *Globals, pipeMode bool) (*domain.ExecutionConfig, error) {
	cfg := &domain.ExecutionConfig{PipeMode: pipeMode}
	defaults := globals.Config.Defaults

	var err error
	if cfg.SuccessPattern, err = compileFlag(f.Pattern, "pattern"); err != nil {
		return nil, err
	}
	if cfg.ErrorPattern, err = compileFlag(f.ErrorPattern, "error-pattern"); err != nil {
		return nil, err
	}
	exclude := f.Exclude
	if exclude == "" {
		exclude = defaults.ExcludePattern
	}
	if cfg.ExcludePattern, err = compileFlag(exclude, "exclude"); err != nil {
		return nil, err
	}

	if cfg.OverallTimeout, err = durationFlag(f.Timeout, defaults.OverallTimeout, "timeout"); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = durationFlag(f.IdleTimeout, defaults.IdleTimeout, "idle-timeout"); err != nil {
		return nil, err
	}
	if cfg.FirstOutputTimeout, err = durationFlag(f.FirstOutputTimeout, defaults.FirstOutputTimeout, "first-output-timeout"); err != nil {
		return nil, err
	}
	for _, spec := range f.StreamIdle {
		name, dur, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid stream-idle %q, want stream=duration", spec)
		}
		d, err := time.ParseDuration(dur)
		if err != nil {
			return nil, fmt.Errorf("invalid stream-idle duration %q: %w", dur, err)
		}
		if cfg.StreamIdleTimeout == nil {
			cfg.StreamIdleTimeout = make(map[domain.StreamID]time.Duration)
		}
		cfg.StreamIdleTimeout[domain.StreamID(name)] = d
	}

	cfg.BeforeLines = f.BeforeLines
	if cfg.BeforeLines == 0 {
		cfg.BeforeLines = defaults.BeforeLines
	}
	// After-context defaults to non-zero when the tool owns the child and
	// to zero in pipe mode, preserving pass-through composability.
	cfg.AfterLines = f.AfterLines
	afterSeconds := f.AfterSeconds
	if cfg.AfterLines < 0 {
		if pipeMode {
			cfg.AfterLines = 0
		} else {
			cfg.AfterLines = defaults.AfterLines
			if afterSeconds == "" {
				afterSeconds = defaults.AfterSeconds
			}
		}
	}
	if cfg.AfterWindow, err = durationFlag(afterSeconds, "", "after-seconds"); err != nil {
		return nil, err
	}

	maxRepeat := f.MaxRepeat
	if maxRepeat == 0 {
		maxRepeat = defaults.MaxRepeat
	}
	strip := make([]*regexp.Regexp, 0, len(f.Strip))
	for _, s := range f.Strip {
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("invalid strip pattern %q: %w", s, err)
		}
		strip = append(strip, re)
	}
	if f.StuckPattern != "" {
		re, err := regexp.Compile(f.StuckPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid stuck-pattern: %w", err)
		}
		cfg.Stuck = &domain.DetectorConfig{Extract: re, Strip: strip, MaxRepeat: maxRepeat}
	}
	if f.NoProgressPattern != "" {
		re, err := regexp.Compile(f.NoProgressPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid no-progress-pattern: %w", err)
		}
		cfg.NoProgress = &domain.DetectorConfig{Extract: re, Strip: strip, MaxRepeat: maxRepeat}
	}
	if len(f.RegressionStates) > 0 {
		var re *regexp.Regexp
		if f.RegressionPattern != "" {
			if re, err = regexp.Compile(f.RegressionPattern); err != nil {
				return nil, fmt.Errorf("invalid regression-pattern: %w", err)
			}
		} else {
			// Default extractor: any expected state appearing in the line.
			quoted := lo.Map(f.RegressionStates, func(s string, _ int) string { return regexp.QuoteMeta(s) })
			re, err = regexp.Compile("(" + strings.Join(quoted, "|") + ")")
			if err != nil {
				return nil, err
			}
		}
		cfg.Regression = &domain.RegressionConfig{Extract: re, States: f.RegressionStates}
	}
	if cfg.DetectorGrace, err = durationFlag(f.DetectorGrace, "", "detector-grace"); err != nil {
		return nil, err
	}

	if cfg.KillGrace, err = durationFlag("", defaults.KillGrace, "kill-grace"); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func compileFlag(pattern, name string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return re, nil
}

func durationFlag(value, fallback, name string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

