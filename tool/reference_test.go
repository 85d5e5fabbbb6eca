package tool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeReferenceData(t *testing.T) *ReferenceStore {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		BiomarkerRangesFile: `[
			{"name": "Ferritin", "low": 30, "high": 400, "unit": "ng/mL"},
			{"name": "Vitamin D", "low": 30, "high": 100, "unit": "ng/mL"}
		]`,
		WorkoutPlansFile: `[
			{"goal": "endurance", "sessions_per_week": 4},
			{"goal": "strength", "sessions_per_week": 3}
		]`,
		SupplementsFile: `[
			{"name": "Iron", "dosage": "18mg daily"},
			{"name": "Magnesium", "dosage": "400mg daily"}
		]`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return NewReferenceStore(dir)
}

func TestReferenceStore_BiomarkerRange(t *testing.T) {
	s := writeReferenceData(t)

	out, err := s.BiomarkerRange("ferritin")
	require.NoError(t, err)
	assert.Equal(t, int64(30), gjson.Get(out, "0.low").Int())

	out, err = s.BiomarkerRange("unknown")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestReferenceStore_WorkoutPlan(t *testing.T) {
	s := writeReferenceData(t)

	out, err := s.WorkoutPlan("Endurance")
	require.NoError(t, err)
	assert.Equal(t, int64(4), gjson.Get(out, "sessions_per_week").Int())

	out, err = s.WorkoutPlan("flexibility")
	require.NoError(t, err)
	assert.Equal(t, "null", out)
}

func TestReferenceStore_SupplementInfo(t *testing.T) {
	s := writeReferenceData(t)
	out, err := s.SupplementInfo("iron")
	require.NoError(t, err)
	assert.Equal(t, "18mg daily", gjson.Get(out, "0.dosage").String())
}

func TestReferenceStore_CachesLookups(t *testing.T) {
	s := writeReferenceData(t)

	first, err := s.BiomarkerRange("ferritin")
	require.NoError(t, err)

	// Underlying file changes, but the cached entry keeps serving within the
	// TTL.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, BiomarkerRangesFile), []byte(`[]`), 0o644))

	again, err := s.BiomarkerRange("ferritin")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Past the TTL the fresh content is read.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	stale, err := s.BiomarkerRange("ferritin")
	require.NoError(t, err)
	assert.Equal(t, "[]", stale)
}

func TestReferenceStore_MissingFile(t *testing.T) {
	s := NewReferenceStore(t.TempDir())
	_, err := s.BiomarkerRange("ferritin")
	assert.Error(t, err)
}
