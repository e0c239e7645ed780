package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/rsleedbx/earlyexit/internal/cli"
	"github.com/rsleedbx/earlyexit/internal/config"
)

const quickStart = `earlyexit - run a command, stop the moment its output tells you enough

Quick start:
  earlyexit run -p "Compiled successfully" -- npm run build
  earlyexit run -e "FATAL" -t 10m -- ./server --dev
  tail -f app.log | earlyexit filter -p "listening on"
  earlyexit check -e "ERROR" build.log

Exit codes: 0 matched, 1 no match, 2 timeout/stuck, 3 launch error,
4 detached, 130 interrupted.

For help:
  earlyexit --help
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format": cfg.Format,
	}

	ctx := kong.Parse(&c,
		kong.Name("earlyexit"),
		kong.Description("Watch a command's output and exit deterministically on match, stall, or timeout"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
	os.Exit(globals.ExitCode)
}
