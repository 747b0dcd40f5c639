package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/toygrep/internal/printer"
	"github.com/harrison/toygrep/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	stats := search.Stats{
		FilesVisited:   3,
		SkippedNonUTF8: 1,
		DirsVisited:    2,
		BytesRead:      120,
		LinesMatched:   4,
		BytesMatched:   40,
		WalkDuration:   3 * time.Millisecond,
	}
	pr := printer.Report{Messages: 7, LinesPrinted: 4, BlocksFlushed: 2, FirstMessage: time.Millisecond}
	return New("needle", []search.Target{search.Path("src"), search.Stdin()}, stats, pr, nil, time.Now().Add(-20*time.Millisecond))
}

func TestNew(t *testing.T) {
	r := sampleReport(t)

	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err, "run id is a uuid")
	assert.Equal(t, []string{"src", search.StdinName}, r.Targets)
	assert.Equal(t, 4, r.Printer.LinesPrinted)
	assert.Empty(t, r.Printer.Error)
	assert.Empty(t, r.Unreachable)
	assert.GreaterOrEqual(t, r.Duration, 20*time.Millisecond)

	other := sampleReport(t)
	assert.NotEqual(t, r.RunID, other.RunID)
}

func TestNewRecordsFailures(t *testing.T) {
	searchErr := &search.UnreachableTargetsError{Targets: []*search.TargetError{
		{Path: "/dev/null", Err: search.ErrNotSearchable},
		{Path: "gone", Err: os.ErrNotExist},
	}}
	pr := printer.Report{Err: errors.New("broken pipe")}

	r := New("x", nil, search.Stats{}, pr, searchErr, time.Now())
	assert.Equal(t, []string{"/dev/null", "gone"}, r.Unreachable)
	assert.Equal(t, "broken pipe", r.Printer.Error)
}

func TestFormat(t *testing.T) {
	r := sampleReport(t)

	var plain bytes.Buffer
	r.Format(&plain, false)
	out := plain.String()

	assert.NotContains(t, out, "\x1b[")
	assert.True(t, strings.HasPrefix(out, "toygrep run "+r.RunID+"\n"))
	assert.Contains(t, out, `pattern:       "needle"`)
	assert.Contains(t, out, "3 searched, 1 binary, 0 unreadable")
	assert.Contains(t, out, "4 lines, 40 bytes")
	assert.Contains(t, out, "4 lines in 2 blocks, first message after 1ms")
	assert.NotContains(t, out, "unreachable")

	var colored bytes.Buffer
	r.Format(&colored, true)
	assert.Contains(t, colored.String(), "\x1b[36;1mtoygrep run ")
}

func TestWriteFileAppendsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stats.yaml")

	first := sampleReport(t)
	second := sampleReport(t)
	require.NoError(t, first.WriteFile(path))
	require.NoError(t, second.WriteFile(path))

	h, err := ReadHistory(path)
	require.NoError(t, err)
	require.Len(t, h.Runs, 2)
	assert.Equal(t, first.RunID, h.Runs[0].RunID)
	assert.Equal(t, second.RunID, h.Runs[1].RunID)
	assert.Equal(t, first.Stats, h.Runs[0].Stats)
	assert.Equal(t, first.Printer, h.Runs[0].Printer)

	_, err = os.Stat(path + ".lock")
	assert.NoError(t, err, "lock file sits next to the stats file")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteFileTrimsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")

	var last string
	for i := 0; i < MaxHistory+5; i++ {
		r := sampleReport(t)
		require.NoError(t, r.WriteFile(path))
		last = r.RunID
	}

	h, err := ReadHistory(path)
	require.NoError(t, err)
	assert.Len(t, h.Runs, MaxHistory)
	assert.Equal(t, last, h.Runs[MaxHistory-1].RunID)
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = sampleReport(t).WriteFile(path)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	h, err := ReadHistory(path)
	require.NoError(t, err)
	assert.Len(t, h.Runs, 8, "no run is lost to a concurrent writer")
}

func TestReadHistory(t *testing.T) {
	dir := t.TempDir()

	h, err := ReadHistory(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, h.Runs)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("runs: {not: [a list"), 0644))
	_, err = ReadHistory(bad)
	assert.ErrorContains(t, err, "failed to parse stats file")
}
