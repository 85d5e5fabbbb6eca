package datawatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func setup(t *testing.T) (string, []Source) {
	t.Helper()
	dir := t.TempDir()
	sources := []Source{
		{Name: "biomarkers", Path: filepath.Join(dir, "biomarkers.json")},
		{Name: "sleep", Path: filepath.Join(dir, "sleep.json")},
	}
	for _, s := range sources {
		writeFile(t, s.Path, "[]")
	}
	return dir, sources
}

func TestTracker_BaselineDoesNotBump(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)
	assert.Equal(t, int64(0), tr.Current())
	assert.Equal(t, int64(0), tr.Current())
}

func TestTracker_BumpsOnModTimeChange(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)

	touch(t, sources[0].Path, time.Now().Add(time.Hour))
	assert.Equal(t, int64(1), tr.Current())
	// Unchanged afterwards.
	assert.Equal(t, int64(1), tr.Current())
}

func TestTracker_MultipleChangesOnePassSingleBump(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)

	later := time.Now().Add(time.Hour)
	touch(t, sources[0].Path, later)
	touch(t, sources[1].Path, later)

	assert.Equal(t, int64(1), tr.Current(), "changes in one pass collapse into a single bump")
}

func TestTracker_Monotonic(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)

	prev := tr.Current()
	for i := 1; i <= 3; i++ {
		touch(t, sources[0].Path, time.Now().Add(time.Duration(i)*time.Hour))
		v := tr.Current()
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestTracker_RemovedSourceCountsAsChange(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)

	require.NoError(t, os.Remove(sources[1].Path))
	assert.True(t, tr.CheckNow())

	// Still gone: no further change.
	assert.False(t, tr.CheckNow())
}

func TestTracker_SourceAppearingLater(t *testing.T) {
	dir := t.TempDir()
	missing := Source{Name: "late", Path: filepath.Join(dir, "late.json")}
	tr := NewTracker([]Source{missing})

	assert.Equal(t, int64(0), tr.Current())

	// First observation establishes a baseline without a bump; the next
	// modification bumps.
	writeFile(t, missing.Path, "{}")
	assert.Equal(t, int64(0), tr.Current())
	touch(t, missing.Path, time.Now().Add(time.Hour))
	assert.Equal(t, int64(1), tr.Current())
}

func TestTracker_WatchPushesBumps(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)
	require.NoError(t, tr.Watch())
	defer tr.Close()

	require.Error(t, tr.Watch(), "second Watch must fail")

	writeFile(t, sources[0].Path, `[{"name":"ferritin"}]`)
	touch(t, sources[0].Path, time.Now().Add(time.Hour))

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.version >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTracker_Sources(t *testing.T) {
	_, sources := setup(t)
	tr := NewTracker(sources)
	got := tr.Sources()
	assert.Equal(t, sources, got)
	got[0].Name = "tampered"
	assert.Equal(t, "biomarkers", tr.Sources()[0].Name)
}
