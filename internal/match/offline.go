package match

import (
	"bufio"
	"io"
	"time"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

// Location records where a pattern matched in an offline scan.
type Location struct {
	LineNo int              `json:"line"`
	Kind   domain.MatchKind `json:"kind"`
	Text   string           `json:"text"`
}

// ScanResult summarizes an offline scan of a static corpus. Given the same
// corpus and configuration the result is identical on every run.
type ScanResult struct {
	Type          string     `json:"type"` // "scan_result"
	SchemaVersion int        `json:"schemaVersion"`
	TotalLines    int        `json:"total_lines"`
	MatchedLines  int        `json:"matched_lines"`
	ExcludedLines int        `json:"excluded_lines"`
	Locations     []Location `json:"locations,omitempty"`
}

// Scan runs the matcher over a corpus with no subprocess involved. It is
// used to validate a pattern before deploying it against a live process.
// maxLocations bounds how many match locations are reported; zero keeps
// counts only.
func Scan(r io.Reader, cfg *domain.ExecutionConfig, maxLocations int) (*ScanResult, error) {
	m := New(cfg.SuccessPattern, cfg.ErrorPattern, cfg.ExcludePattern)
	res := &ScanResult{Type: "scan_result", SchemaVersion: domain.SchemaVersion}

	// A fixed timestamp keeps arbitration (and therefore output) independent
	// of the wall clock.
	epoch := time.Unix(0, 0)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		res.TotalLines++
		ev := m.Observe(domain.StreamStdout, res.TotalLines, sc.Text(), epoch)
		if ev == nil {
			continue
		}
		if ev.Kind == domain.MatchExclude {
			res.ExcludedLines++
			continue
		}
		res.MatchedLines++
		if maxLocations > 0 && len(res.Locations) < maxLocations {
			res.Locations = append(res.Locations, Location{LineNo: ev.LineNo, Kind: ev.Kind, Text: ev.Text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
