package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/rsleedbx/earlyexit/internal/domain"
	"github.com/rsleedbx/earlyexit/internal/match"
	"github.com/rsleedbx/earlyexit/internal/watch"
)

var (
	styleGood = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleDim  = lipgloss.NewStyle().Faint(true)
)

// TextWriter renders records for humans: a concise status line per
// session, colored only when writing to a terminal.
type TextWriter struct {
	w     io.Writer
	color bool
}

// NewTextWriter creates a text writer over w, enabling color when w is a
// TTY.
func NewTextWriter(w io.Writer) *TextWriter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &TextWriter{w: w, color: color}
}

func (t *TextWriter) render(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

// WriteEvent prints a one-line match notification.
func (t *TextWriter) WriteEvent(ev domain.MatchEvent) error {
	style := styleWarn
	if ev.Kind == domain.MatchSuccess {
		style = styleGood
	}
	_, err := fmt.Fprintf(t.w, "%s %s:%d %s\n",
		t.render(style, "["+string(ev.Kind)+"]"), ev.Stream, ev.LineNo, ev.Text)
	return err
}

// WriteDecision prints the session's single concise status line.
func (t *TextWriter) WriteDecision(d domain.ExitDecision) error {
	style := styleBad
	switch d.Classification {
	case domain.ClassMatched:
		style = styleGood
	case domain.ClassDetached, domain.ClassNoMatch:
		style = styleWarn
	}
	_, err := fmt.Fprintf(t.w, "%s %s (exit %d)\n",
		t.render(style, string(d.Classification)+":"), d.Reason, d.ExitCode)
	return err
}

// WriteContext prints the captured before/after context around the match.
func (t *TextWriter) WriteContext(r watch.ContextReport) error {
	if r.Match == nil {
		return nil
	}
	for stream, lines := range r.Before {
		for _, l := range lines {
			fmt.Fprintf(t.w, "%s %s\n", t.render(styleDim, string(stream)+"-"), l)
		}
	}
	fmt.Fprintf(t.w, "%s %s\n", t.render(styleWarn, string(r.Match.Stream)+":"), r.Match.Text)
	for _, l := range r.After {
		fmt.Fprintf(t.w, "%s %s\n", t.render(styleDim, "+"), l)
	}
	return nil
}

// WriteScanResult renders the offline scan report as a table plus a match
// location listing.
func (t *TextWriter) WriteScanResult(res *match.ScanResult) error {
	table := tablewriter.NewWriter(t.w)
	table.Header([]string{"Total", "Matched", "Excluded"})
	if err := table.Append([]string{
		strconv.Itoa(res.TotalLines),
		strconv.Itoa(res.MatchedLines),
		strconv.Itoa(res.ExcludedLines),
	}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	locs := lo.Map(res.Locations, func(l match.Location, _ int) string {
		return fmt.Sprintf("%6d  %-10s %s", l.LineNo, l.Kind, l.Text)
	})
	for _, line := range locs {
		fmt.Fprintln(t.w, line)
	}
	return nil
}

// WriteError prints a failure in the standard Error [CODE] form.
func (t *TextWriter) WriteError(code, message string, hint ...string) error {
	_, err := fmt.Fprintf(t.w, "%s %s", t.render(styleBad, "Error ["+code+"]:"), message)
	if err != nil {
		return err
	}
	if len(hint) > 0 && hint[0] != "" {
		fmt.Fprintf(t.w, " (hint: %s)", hint[0])
	}
	fmt.Fprintln(t.w)
	return nil
}

// WriteInfo prints an informational line.
func (t *TextWriter) WriteInfo(message string) error {
	_, err := fmt.Fprintln(t.w, message)
	return err
}
