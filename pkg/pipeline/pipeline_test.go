package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/extract"
	"github.com/matzehuels/baselineplan/pkg/feature"
	"github.com/matzehuels/baselineplan/pkg/observability"
)

const dataset = `{
	"__meta": {"version": "5.6.0"},
	"api": {
		"fetch": {"__compat": {"support": {"chrome": {"version_added": "42"}, "firefox": {"version_added": "39"}, "safari": {"version_added": "10.1"}, "edge": {"version_added": "14"}}}}
	},
	"css": {
		"properties": {
			"grid": {"__compat": {"support": {"chrome": {"version_added": "57"}, "firefox": {"version_added": "52"}, "safari": {"version_added": "10.1"}}}},
			"masonry": {"__compat": {"support": {"firefox": {"version_added": "77"}}}},
			"broken": {"__compat": {"description": "no support"}}
		}
	}
}`

func fixedClock() time.Time {
	return time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func ids(records []feature.Record) string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return strings.Join(out, ",")
}

// memCache is an in-memory cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestValidateSort(t *testing.T) {
	tests := []struct {
		sort    string
		wantErr bool
	}{
		{"priority", false},
		{"date", false},
		{"Date", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateSort(tt.sort)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSort(%q) error = %v, wantErr %v", tt.sort, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Dataset: "data.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.MaxFeatures != DefaultMaxFeatures {
		t.Errorf("MaxFeatures = %d, want %d", opts.MaxFeatures, DefaultMaxFeatures)
	}
	if opts.Sort != SortPriority {
		t.Errorf("Sort = %q, want %q", opts.Sort, SortPriority)
	}
	if len(opts.Priorities) != 4 || len(opts.Classifier.Weights) != 4 {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Logger == nil || opts.Now == nil || opts.Stdin == nil {
		t.Error("runtime defaults not applied")
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing dataset", Options{}, errors.ErrCodeInvalidInput},
		{"bad path", Options{Dataset: "a\x00b"}, errors.ErrCodeInvalidPath},
		{"bad sort", Options{Dataset: "d.json", Sort: "name"}, errors.ErrCodeInvalidInput},
		{"bad priorities", Options{Dataset: "d.json", Priorities: extract.Priorities{{Name: "__x"}}}, errors.ErrCodeInvalidConfig},
		{"nan weight", Options{Dataset: "d.json", Classifier: classify.Config{Weights: map[string]float64{"chrome": math.NaN()}}}, errors.ErrCodeInvalidConfig},
		{"infinite weight", Options{Dataset: "d.json", Classifier: classify.Config{Weights: map[string]float64{"chrome": math.Inf(1)}}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func keyOpts(t *testing.T, o *Options) cache.ExtractKeyOpts {
	t.Helper()
	k, err := o.ExtractKeyOpts()
	if err != nil {
		t.Fatalf("ExtractKeyOpts error: %v", err)
	}
	return k
}

func TestExtractKeyOpts(t *testing.T) {
	base := Options{Dataset: "d.json", Now: fixedClock}
	_ = base.ValidateAndSetDefaults()
	k := keyOpts(t, &base)

	if k.Date != "2026-10-19" {
		t.Errorf("Date = %s, want 2026-10-19", k.Date)
	}
	if k.Priorities[0] != "css:properties,selectors" || k.Priorities[3] != "api:" {
		t.Errorf("Priorities = %v", k.Priorities)
	}

	other := Options{Dataset: "d.json", Now: fixedClock, Classifier: classify.Config{Weights: map[string]float64{"chrome": 100}}}
	_ = other.ValidateAndSetDefaults()
	if keyOpts(t, &other).ClassifierHash == k.ClassifierHash {
		t.Error("different weights should change the classifier hash")
	}

	explicit := Options{Dataset: "d.json", Now: fixedClock, Classifier: classify.DefaultConfig()}
	_ = explicit.ValidateAndSetDefaults()
	if keyOpts(t, &explicit).ClassifierHash != k.ClassifierHash {
		t.Error("explicit default tables should hash like implicit defaults")
	}
}

func TestLoad(t *testing.T) {
	ds, err := Load(context.Background(), Options{Dataset: writeDataset(t, dataset)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if ds.Root.Len() != 2 {
		t.Errorf("categories = %d, want 2", ds.Root.Len())
	}
	if ds.Hash != cache.Hash([]byte(dataset)) {
		t.Error("Hash should be the SHA-256 of the raw bytes")
	}
	if ds.Size != len(dataset) {
		t.Errorf("Size = %d, want %d", ds.Size, len(dataset))
	}
}

func TestLoadStdin(t *testing.T) {
	ds, err := Load(context.Background(), Options{Dataset: "-", Stdin: strings.NewReader(dataset)})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, ok := ds.Root.Child("css"); !ok {
		t.Error("css category missing")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.json"), errors.ErrCodeFileNotFound},
		{"not json", writeDataset(t, "not json"), errors.ErrCodeInvalidFormat},
		{"array root", writeDataset(t, "[1, 2]"), errors.ErrCodeInvalidFormat},
		{"empty object", writeDataset(t, "{}"), errors.ErrCodeInvalidInput},
		{"metadata only", writeDataset(t, `{"__meta": {}}`), errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), Options{Dataset: tt.path})
			if !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, Options{Dataset: writeDataset(t, dataset)}); err != context.Canceled {
		t.Errorf("Load error = %v, want context.Canceled", err)
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	res, err := r.Execute(context.Background(), Options{Dataset: writeDataset(t, dataset), Now: fixedClock})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if got, want := ids(res.Records), "css-properties-grid,css-properties-masonry,api-fetch"; got != want {
		t.Errorf("Records = %s, want %s", got, want)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.CacheHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Stats.Skipped)
	}
	if res.Stats.NodeCount != 8 {
		t.Errorf("NodeCount = %d, want 8", res.Stats.NodeCount)
	}

	grid := res.Records[0]
	if grid.CurrentUsage != 90 || grid.BaselineStatus != classify.StatusNewly || grid.AdoptionDate.String() != "2027-04-19" {
		t.Errorf("grid = %d/%s/%s", grid.CurrentUsage, grid.BaselineStatus, grid.AdoptionDate)
	}
}

func TestExecuteCache(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	path := writeDataset(t, dataset)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Dataset: path, Now: fixedClock})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	second, err := r.Execute(ctx, Options{Dataset: path, Now: fixedClock})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit the cache")
	}
	if ids(second.Records) != ids(first.Records) {
		t.Errorf("cached records = %s, want %s", ids(second.Records), ids(first.Records))
	}
	if second.Stats.Skipped != first.Stats.Skipped {
		t.Errorf("cached stats = %+v, want %+v", second.Stats, first.Stats)
	}
	if first.RunID == second.RunID {
		t.Error("each run should get its own RunID")
	}

	refreshed, err := r.Execute(ctx, Options{Dataset: path, Now: fixedClock, Refresh: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	tomorrow := func() time.Time { return fixedClock().Add(24 * time.Hour) }
	next, err := r.Execute(ctx, Options{Dataset: path, Now: tomorrow})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if next.CacheHit {
		t.Error("a new day should miss the cache")
	}
	if next.Records[0].AdoptionDate.String() != "2027-04-20" {
		t.Errorf("AdoptionDate = %s, want 2027-04-20", next.Records[0].AdoptionDate)
	}
}

func TestExecuteIgnoresCorruptCache(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{Dataset: writeDataset(t, dataset), Now: fixedClock}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	for k := range c.data {
		c.data[k] = []byte("garbage")
	}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if res.CacheHit || len(res.Records) != 3 {
		t.Errorf("corrupt entry: hit %v, %d records; want miss, 3", res.CacheHit, len(res.Records))
	}
}

func TestExecuteEmptyResult(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	path := writeDataset(t, `{"svg": {"elements": {"a": {"__compat": {"support": {}}}}}}`)

	res, err := r.Execute(context.Background(), Options{Dataset: path, Now: fixedClock})
	if !errors.Is(err, errors.ErrCodeEmptyResult) {
		t.Fatalf("Execute error = %v, want %s", err, errors.ErrCodeEmptyResult)
	}
	if res == nil || len(res.Records) != 0 {
		t.Errorf("Execute should return an empty result with the error, got %+v", res)
	}
	if c.sets != 0 {
		t.Error("empty results should not be cached")
	}
}

func TestExecuteFilterAndSort(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	path := writeDataset(t, dataset)

	res, err := r.Execute(context.Background(), Options{Dataset: path, Now: fixedClock, Sort: SortDate})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got, want := ids(res.Records), "api-fetch,css-properties-grid,css-properties-masonry"; got != want {
		t.Errorf("date order = %s, want %s", got, want)
	}

	res, err = r.Execute(context.Background(), Options{
		Dataset: path,
		Now:     fixedClock,
		Filter:  feature.Filter{Statuses: []classify.Status{classify.StatusLimited}},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := ids(res.Records); got != "css-properties-masonry" {
		t.Errorf("filtered = %s, want css-properties-masonry", got)
	}
	if res.Stats.Extracted != 3 {
		t.Errorf("Extracted = %d, want 3", res.Stats.Extracted)
	}
}

func TestExecuteMaxFeatures(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Dataset: writeDataset(t, dataset), Now: fixedClock, MaxFeatures: 1})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if ids(res.Records) != "css-properties-grid" || !res.Stats.Truncated {
		t.Errorf("Records = %s, truncated %v", ids(res.Records), res.Stats.Truncated)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadStart(context.Context, string) { h.add("load") }
func (h *recordingHooks) OnExtractComplete(_ context.Context, s observability.ExtractSummary, _ time.Duration, _ error) {
	h.add("extract")
}
func (h *recordingHooks) OnCacheHit(context.Context, string)      { h.add("hit") }
func (h *recordingHooks) OnCacheMiss(context.Context, string)     { h.add("miss") }
func (h *recordingHooks) OnCacheSet(context.Context, string, int) { h.add("set") }

func TestExecuteHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	r := NewRunner(newMemCache(), nil, nil)
	opts := Options{Dataset: writeDataset(t, dataset), Now: fixedClock}
	for i := 0; i < 2; i++ {
		if _, err := r.Execute(context.Background(), opts); err != nil {
			t.Fatalf("Execute error: %v", err)
		}
	}

	want := "load,miss,extract,set,load,hit,extract"
	if got := strings.Join(hooks.events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestRunnerWithFileCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	r := NewRunner(fc, cache.NewScopedKeyer(nil, "test:"), nil)
	defer r.Close()

	opts := Options{Dataset: writeDataset(t, dataset), Now: fixedClock}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !res.CacheHit {
		t.Error("second run should hit the file cache")
	}
}
