package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeUserData(t *testing.T) *UserDataStore {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		BiomarkersFile: `[
			{"name": "Ferritin", "value": 18, "unit": "ng/mL"},
			{"name": "Vitamin D", "value": 42, "unit": "ng/mL"},
			{"name": "HbA1c", "value": 5.2, "unit": "%"}
		]`,
		ActivityFile: `[
			{"date": "2025-06-01", "type": "run", "minutes": 30},
			{"date": "2025-06-03", "type": "strength", "minutes": 45},
			{"date": "2025-06-10", "type": "run", "minutes": 25}
		]`,
		FoodJournalFile: `[
			{"date": "2025-06-01", "meals": ["oatmeal", "salad"]},
			{"date": "2025-06-02", "meals": ["eggs"]}
		]`,
		SleepFile: `[
			{"date": "2025-06-01", "hours": 6.5, "quality": "fair"}
		]`,
		ProfileFile: `{"age": 34, "weight_kg": 72, "goals": ["endurance"]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return NewUserDataStore(dir)
}

func TestUserDataStore_BiomarkersFilter(t *testing.T) {
	s := writeUserData(t)

	out, err := s.Biomarkers([]string{"ferritin"})
	require.NoError(t, err)
	res := gjson.Parse(out)
	require.Equal(t, int64(1), res.Get("#").Int())
	assert.Equal(t, "Ferritin", res.Get("0.name").String())

	// Case-insensitive partial match.
	out, err = s.Biomarkers([]string{"VITAMIN"})
	require.NoError(t, err)
	assert.Equal(t, "Vitamin D", gjson.Get(out, "0.name").String())

	// Empty filter returns everything.
	out, err = s.Biomarkers(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.Get(out, "#").Int())

	// No match yields an empty array, not an error.
	out, err = s.Biomarkers([]string{"cortisol"})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestUserDataStore_ActivityLogRange(t *testing.T) {
	s := writeUserData(t)

	out, err := s.ActivityLog("2025-06-01", "2025-06-05")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())

	out, err = s.ActivityLog("2025-07-01", "2025-07-31")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestUserDataStore_EntriesByDate(t *testing.T) {
	s := writeUserData(t)

	out, err := s.FoodJournal("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, "eggs", gjson.Get(out, "meals.0").String())

	out, err = s.FoodJournal("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "null", out)

	out, err = s.SleepData("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 6.5, gjson.Get(out, "hours").Float())
}

func TestUserDataStore_Profile(t *testing.T) {
	s := writeUserData(t)
	out, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, int64(34), gjson.Get(out, "age").Int())
}

func TestUserDataStore_MissingFile(t *testing.T) {
	s := NewUserDataStore(t.TempDir())
	_, err := s.Profile()
	assert.Error(t, err)
}

func TestUserDataStore_Sources(t *testing.T) {
	s := writeUserData(t)
	sources := s.Sources()
	require.Len(t, sources, 5)
	assert.Equal(t, "biomarkers", sources[0].Name)
	assert.Equal(t, filepath.Base(sources[0].Path), BiomarkersFile)
}

func TestUserDataTools_CallThroughSchema(t *testing.T) {
	s := writeUserData(t)
	tools := UserDataTools(s)
	byName := map[string]Tool{}
	for _, tl := range tools {
		byName[tl.Name()] = tl
	}
	require.Len(t, byName, 5)

	out, err := byName["get_biomarkers"].Call(context.Background(), map[string]any{
		"names": []any{"ferritin"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Ferritin")

	// Missing required argument is rejected before the handler runs.
	_, err = byName["get_activity_log"].Call(context.Background(), map[string]any{
		"start_date": "2025-06-01",
	})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "invalid_arguments", toolErr.Code)
}
