package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/extract"
	bpio "github.com/matzehuels/baselineplan/pkg/io"
	"github.com/matzehuels/baselineplan/pkg/observability"
)

// keyTypeExtract labels extraction entries in cache hooks.
const keyTypeExtract = "extract"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → extract pipeline with caching.
//
// When the dataset yields no records, Execute returns the Result together
// with an EMPTY_RESULT error so callers can still report the stats.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID)

	// Stage 1: Load
	loadStart := time.Now()
	ds, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.DatasetHash = ds.Hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = ds.Root.Count()

	logger.Info("loaded dataset",
		"categories", ds.Root.Len(),
		"nodes", result.Stats.NodeCount,
		"bytes", ds.Size,
		"duration", result.Stats.LoadTime)

	// Stage 2: Extract
	extractStart := time.Now()
	res, hit, err := r.ExtractWithCacheInfo(ctx, ds, opts)
	if err != nil && !errors.Is(err, errors.ErrCodeEmptyResult) {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Stats.ExtractTime = time.Since(extractStart)
	result.CacheHit = hit
	result.Stats.Extracted = len(res.Records)
	result.Stats.Visited = res.Stats.Visited
	result.Stats.Skipped = res.Stats.Skipped
	result.Stats.Malformed = res.Stats.Malformed
	result.Stats.Truncated = res.Stats.CapReached
	result.Records = opts.Postprocess(res.Records)

	logger.Info("extracted features",
		"records", result.Stats.Extracted,
		"skipped", result.Stats.Skipped,
		"malformed", result.Stats.Malformed,
		"truncated", result.Stats.Truncated,
		"cached", hit,
		"duration", result.Stats.ExtractTime)
	if result.Stats.Skipped > 0 {
		logger.Warn("some features had unusable support data", "count", result.Stats.Skipped)
	}

	if err != nil {
		return result, err
	}
	return result, nil
}

// Load reads the dataset and emits load hooks.
func (r *Runner) Load(ctx context.Context, opts Options) (*Dataset, error) {
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Dataset)

	start := time.Now()
	ds, err := Load(ctx, opts)
	nodes := 0
	if ds != nil {
		nodes = ds.Root.Count()
	}
	hooks.OnLoadComplete(ctx, opts.Dataset, nodes, time.Since(start), err)
	return ds, err
}

// cachedExtract is the cache representation of an extraction result.
type cachedExtract struct {
	Records json.RawMessage `json:"records"`
	Stats   extract.Stats   `json:"stats"`
}

// ExtractWithCacheInfo extracts records with caching and returns cache hit info.
//
// Empty results are returned with their EMPTY_RESULT error and are not cached.
func (r *Runner) ExtractWithCacheInfo(ctx context.Context, ds *Dataset, opts Options) (*extract.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExtract(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	keyOpts, err := opts.ExtractKeyOpts()
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.ExtractKey(ds.Hash, keyOpts)

	hooks := observability.Pipeline()
	hooks.OnExtractStart(ctx, opts.MaxFeatures)
	start := time.Now()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if res, ok := r.readCached(ctx, cacheKey); ok {
			observability.Cache().OnCacheHit(ctx, keyTypeExtract)
			hooks.OnExtractComplete(ctx, summarize(res, true), time.Since(start), nil)
			return res, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeExtract)
	}

	res, err := extract.New(opts.TraverserOptions()).Run(ds.Root)
	hooks.OnExtractComplete(ctx, summarize(res, false), time.Since(start), err)
	if err != nil {
		return res, false, err
	}

	if data, err := encodeCached(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLExtract); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeExtract, len(data))
		}
	}

	return res, false, nil
}

// Extract is a convenience wrapper that calls ExtractWithCacheInfo and discards the cache hit info.
func (r *Runner) Extract(ctx context.Context, ds *Dataset, opts Options) (*extract.Result, error) {
	res, _, err := r.ExtractWithCacheInfo(ctx, ds, opts)
	return res, err
}

func (r *Runner) readCached(ctx context.Context, key string) (*extract.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}

	var entry cachedExtract
	if err := json.Unmarshal(data, &entry); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		return nil, false
	}
	records, err := bpio.ReadJSON(bytes.NewReader(entry.Records))
	if err != nil || len(records) == 0 {
		r.Logger.Debug("discarding invalid cache entry", "error", err)
		return nil, false
	}
	return &extract.Result{Records: records, Stats: entry.Stats}, true
}

func encodeCached(res *extract.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := bpio.WriteJSON(res.Records, &buf); err != nil {
		return nil, err
	}
	return json.Marshal(cachedExtract{Records: buf.Bytes(), Stats: res.Stats})
}

func summarize(res *extract.Result, hit bool) observability.ExtractSummary {
	if res == nil {
		return observability.ExtractSummary{CacheHit: hit}
	}
	return observability.ExtractSummary{
		Records:   len(res.Records),
		Visited:   res.Stats.Visited,
		Skipped:   res.Stats.Skipped,
		Malformed: res.Stats.Malformed,
		Truncated: res.Stats.CapReached,
		CacheHit:  hit,
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
