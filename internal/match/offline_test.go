package match

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsleedbx/earlyexit/internal/domain"
)

const scanCorpus = `starting up
ERROR: disk full
plodding along
ERROR: ignorable glitch
ERROR: disk full again
all done
`

func scanConfig() *domain.ExecutionConfig {
	return &domain.ExecutionConfig{
		ErrorPattern:   regexp.MustCompile("ERROR"),
		ExcludePattern: regexp.MustCompile("ignorable"),
	}
}

func TestScanCountsAndLocations(t *testing.T) {
	res, err := Scan(strings.NewReader(scanCorpus), scanConfig(), 10)
	require.NoError(t, err)

	assert.Equal(t, 6, res.TotalLines)
	assert.Equal(t, 2, res.MatchedLines)
	assert.Equal(t, 1, res.ExcludedLines)
	require.Len(t, res.Locations, 2)
	assert.Equal(t, 2, res.Locations[0].LineNo)
	assert.Equal(t, 5, res.Locations[1].LineNo)
	assert.Equal(t, domain.MatchError, res.Locations[0].Kind)
}

func TestScanLocationLimit(t *testing.T) {
	res, err := Scan(strings.NewReader(scanCorpus), scanConfig(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.MatchedLines)
	require.Len(t, res.Locations, 1)
	assert.Equal(t, 2, res.Locations[0].LineNo)
}

func TestScanIsDeterministic(t *testing.T) {
	first, err := Scan(strings.NewReader(scanCorpus), scanConfig(), 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Scan(strings.NewReader(scanCorpus), scanConfig(), 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScanEmptyCorpus(t *testing.T) {
	res, err := Scan(strings.NewReader(""), scanConfig(), 10)
	require.NoError(t, err)
	assert.Zero(t, res.TotalLines)
	assert.Zero(t, res.MatchedLines)
	assert.Empty(t, res.Locations)
}
