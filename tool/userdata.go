package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/healthmesh/datawatch"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// User data file names inside the data directory. These are the sources the
// data version tracker watches: a change to any of them invalidates cached
// responses on the next turn.
const (
	BiomarkersFile  = "biomarkers.json"
	ActivityFile    = "activity.json"
	FoodJournalFile = "food_journal.json"
	SleepFile       = "sleep.json"
	ProfileFile     = "profile.json"
)

// UserDataStore reads a user's health data from JSON documents. Results are
// never cached here; user-specific data is always fetched fresh per turn.
type UserDataStore struct {
	dir string
}

// NewUserDataStore constructs a store over the given data directory.
func NewUserDataStore(dir string) *UserDataStore {
	return &UserDataStore{dir: dir}
}

// Sources returns the watched source list for the data version tracker.
func (s *UserDataStore) Sources() []datawatch.Source {
	files := []string{BiomarkersFile, ActivityFile, FoodJournalFile, SleepFile, ProfileFile}
	sources := make([]datawatch.Source, len(files))
	for i, f := range files {
		sources[i] = datawatch.Source{
			Name: strings.TrimSuffix(f, filepath.Ext(f)),
			Path: filepath.Join(s.dir, f),
		}
	}
	return sources
}

func (s *UserDataStore) read(file string) (gjson.Result, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return gjson.ParseBytes(b), nil
}

// Biomarkers returns blood work entries as a JSON array. Names filter by
// case-insensitive partial match; an empty filter returns everything.
func (s *UserDataStore) Biomarkers(names []string) (string, error) {
	doc, err := s.read(BiomarkersFile)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return doc.Raw, nil
	}
	out := "[]"
	doc.ForEach(func(_, entry gjson.Result) bool {
		name := strings.ToLower(entry.Get("name").String())
		for _, want := range names {
			if strings.Contains(name, strings.ToLower(want)) {
				out, _ = sjson.SetRaw(out, "-1", entry.Raw)
				break
			}
		}
		return true
	})
	return out, nil
}

// ActivityLog returns activity entries between two ISO dates, inclusive.
func (s *UserDataStore) ActivityLog(startDate, endDate string) (string, error) {
	doc, err := s.read(ActivityFile)
	if err != nil {
		return "", err
	}
	out := "[]"
	doc.ForEach(func(_, entry gjson.Result) bool {
		date := entry.Get("date").String()
		if startDate <= date && date <= endDate {
			out, _ = sjson.SetRaw(out, "-1", entry.Raw)
		}
		return true
	})
	return out, nil
}

// FoodJournal returns the journal entry for the given ISO date, or "null".
func (s *UserDataStore) FoodJournal(date string) (string, error) {
	return s.entryByDate(FoodJournalFile, date)
}

// SleepData returns the sleep entry for the given ISO date, or "null".
func (s *UserDataStore) SleepData(date string) (string, error) {
	return s.entryByDate(SleepFile, date)
}

// Profile returns the user profile document.
func (s *UserDataStore) Profile() (string, error) {
	doc, err := s.read(ProfileFile)
	if err != nil {
		return "", err
	}
	return doc.Raw, nil
}

func (s *UserDataStore) entryByDate(file, date string) (string, error) {
	doc, err := s.read(file)
	if err != nil {
		return "", err
	}
	out := "null"
	doc.ForEach(func(_, entry gjson.Result) bool {
		if entry.Get("date").String() == date {
			out = entry.Raw
			return false
		}
		return true
	})
	return out, nil
}

// UserDataTools exposes the store as callable tools.
func UserDataTools(store *UserDataStore) []Tool {
	return []Tool{
		NewFunctionTool(
			"get_biomarkers",
			"Retrieves biomarker data (blood work).",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"names": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of biomarker names",
					},
				},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.Biomarkers(stringSliceArg(args, "names"))
			},
		),
		NewFunctionTool(
			"get_activity_log",
			"Retrieves activity logs between two dates.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start_date": map[string]any{"type": "string"},
					"end_date":   map[string]any{"type": "string"},
				},
				"required": []string{"start_date", "end_date"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.ActivityLog(stringArg(args, "start_date"), stringArg(args, "end_date"))
			},
		),
		NewFunctionTool(
			"get_food_journal",
			"Retrieves the food journal for a date.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date": map[string]any{"type": "string"},
				},
				"required": []string{"date"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.FoodJournal(stringArg(args, "date"))
			},
		),
		NewFunctionTool(
			"get_sleep_data",
			"Retrieves sleep data for a date.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date": map[string]any{"type": "string"},
				},
				"required": []string{"date"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.SleepData(stringArg(args, "date"))
			},
		),
		NewFunctionTool(
			"get_user_profile",
			"Retrieves the user profile (age, weight, goals).",
			nil,
			func(_ context.Context, _ map[string]any) (any, error) {
				return store.Profile()
			},
		),
	}
}
