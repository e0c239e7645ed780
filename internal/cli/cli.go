// Package cli defines the earlyexit command surface.
package cli

import (
	"io"
	"os"

	"github.com/rsleedbx/earlyexit/internal/config"
)

// CLI is the root command model parsed by kong.
type CLI struct {
	Format  string `help:"Output format for status and events (text, ndjson)" enum:"text,ndjson" default:"${config_format}"`
	Quiet   bool   `short:"q" help:"Suppress non-essential output"`
	Verbose bool   `help:"Verbose debug logging"`

	Run    RunCmd    `cmd:"" help:"Launch a command and watch its output"`
	Filter FilterCmd `cmd:"" help:"Watch stdin as a pipe filter"`
	Check  CheckCmd  `cmd:"" help:"Dry-run a pattern against a static log file"`
}

// Globals carries cross-command state into each command's Run method.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	// ExitCode is the canonical session exit code, set by the command and
	// passed through unaltered by main.
	ExitCode int
}

// NewGlobalsWithConfig builds Globals from parsed flags with config
// fallbacks.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	return g
}
