package cli

import (
	"io"
	"os"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/match"
	"github.com/rsleedbx/earlyexit/internal/output"
)

// CheckCmd dry-runs the matcher over a static corpus, with no subprocess.
// It validates a pattern before deploying it against a live process: total,
// matched, and excluded line counts plus the first match locations. Given
// the same corpus and flags the report is identical on every run.
type CheckCmd struct {
	Pattern      string `short:"p" help:"Success regex to test"`
	ErrorPattern string `short:"e" help:"Error regex to test"`
	Exclude      string `short:"x" help:"Exclude regex to test"`
	Locations    int    `short:"n" default:"10" help:"Number of match locations to report"`

	File string `arg:"" optional:"" help:"Log file to scan (default: stdin)"`
}

// Run executes the check command.
func (c *CheckCmd) Run(globals *Globals) error {
	cfg := &domain.ExecutionConfig{}
	var err error
	if cfg.SuccessPattern, err = compileFlag(c.Pattern, "pattern"); err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
		return nil
	}
	if cfg.ErrorPattern, err = compileFlag(c.ErrorPattern, "error-pattern"); err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
		return nil
	}
	if cfg.ExcludePattern, err = compileFlag(c.Exclude, "exclude"); err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
		return nil
	}
	if !cfg.HasPrimaryPattern() {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "INVALID_CONFIG", "check requires a pattern or error-pattern")
		return nil
	}

	var in io.Reader = os.Stdin
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			globals.ExitCode = domain.ExitLaunchError
			outputErrorCommon(globals, "CORPUS_UNREADABLE", err.Error())
			return nil
		}
		defer f.Close()
		in = f
	}

	res, err := match.Scan(in, cfg, c.Locations)
	if err != nil {
		globals.ExitCode = domain.ExitLaunchError
		outputErrorCommon(globals, "SCAN_FAILED", err.Error())
		return nil
	}

	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteScanResult(res)
	} else {
		output.NewTextWriter(globals.Stdout).WriteScanResult(res)
	}
	if res.MatchedLines > 0 {
		globals.ExitCode = domain.ExitMatched
	} else {
		globals.ExitCode = domain.ExitNoMatch
	}
	return nil
}
