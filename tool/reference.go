package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Reference data file names inside the reference directory.
const (
	BiomarkerRangesFile = "biomarker_ranges.json"
	WorkoutPlansFile    = "workout_plans.json"
	SupplementsFile     = "supplements.json"
)

// refCacheTTL is the lifetime of cached reference lookups. Reference ranges
// and plans are static, so this cache is independent of the response cache
// and of the user data version.
const refCacheTTL = time.Hour

type refEntry struct {
	value     string
	expiresAt time.Time
}

// ReferenceStore reads static reference data (biomarker ranges, workout
// plans, supplement info) with a small TTL cache per lookup key.
type ReferenceStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]refEntry
	now   func() time.Time
}

// NewReferenceStore constructs a store over the given reference directory.
func NewReferenceStore(dir string) *ReferenceStore {
	return &ReferenceStore{dir: dir, cache: make(map[string]refEntry), now: time.Now}
}

func (s *ReferenceStore) cached(key string, load func() (string, error)) (string, error) {
	s.mu.Lock()
	if e, ok := s.cache[key]; ok && s.now().Before(e.expiresAt) {
		s.mu.Unlock()
		return e.value, nil
	}
	s.mu.Unlock()

	value, err := load()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[key] = refEntry{value: value, expiresAt: s.now().Add(refCacheTTL)}
	s.mu.Unlock()
	return value, nil
}

func (s *ReferenceStore) read(file string) (gjson.Result, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return gjson.ParseBytes(b), nil
}

// BiomarkerRange returns the reference range entries matching the biomarker
// name (case-insensitive partial match) as a JSON array.
func (s *ReferenceStore) BiomarkerRange(name string) (string, error) {
	return s.cached("range:"+strings.ToLower(name), func() (string, error) {
		doc, err := s.read(BiomarkerRangesFile)
		if err != nil {
			return "", err
		}
		out := "[]"
		doc.ForEach(func(_, entry gjson.Result) bool {
			if strings.Contains(strings.ToLower(entry.Get("name").String()), strings.ToLower(name)) {
				out, _ = sjson.SetRaw(out, "-1", entry.Raw)
			}
			return true
		})
		return out, nil
	})
}

// WorkoutPlan returns the workout plan for a goal, or "null".
func (s *ReferenceStore) WorkoutPlan(goal string) (string, error) {
	return s.cached("plan:"+strings.ToLower(goal), func() (string, error) {
		doc, err := s.read(WorkoutPlansFile)
		if err != nil {
			return "", err
		}
		out := "null"
		doc.ForEach(func(_, entry gjson.Result) bool {
			if strings.EqualFold(entry.Get("goal").String(), goal) {
				out = entry.Raw
				return false
			}
			return true
		})
		return out, nil
	})
}

// SupplementInfo returns supplement entries matching the name as a JSON
// array.
func (s *ReferenceStore) SupplementInfo(name string) (string, error) {
	return s.cached("supplement:"+strings.ToLower(name), func() (string, error) {
		doc, err := s.read(SupplementsFile)
		if err != nil {
			return "", err
		}
		out := "[]"
		doc.ForEach(func(_, entry gjson.Result) bool {
			if strings.Contains(strings.ToLower(entry.Get("name").String()), strings.ToLower(name)) {
				out, _ = sjson.SetRaw(out, "-1", entry.Raw)
			}
			return true
		})
		return out, nil
	})
}

// ReferenceTools exposes the store as callable tools.
func ReferenceTools(store *ReferenceStore) []Tool {
	return []Tool{
		NewFunctionTool(
			"get_biomarker_ranges",
			"Retrieves reference ranges for a biomarker.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"biomarker_name": map[string]any{"type": "string"},
				},
				"required": []string{"biomarker_name"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.BiomarkerRange(stringArg(args, "biomarker_name"))
			},
		),
		NewFunctionTool(
			"get_workout_plan",
			"Retrieves the workout plan for a goal.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"goal": map[string]any{"type": "string"},
				},
				"required": []string{"goal"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.WorkoutPlan(stringArg(args, "goal"))
			},
		),
		NewFunctionTool(
			"get_supplement_info",
			"Retrieves supplement information.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
				},
				"required": []string{"name"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				return store.SupplementInfo(stringArg(args, "name"))
			},
		),
	}
}
