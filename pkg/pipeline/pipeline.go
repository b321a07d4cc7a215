// Package pipeline provides the extraction pipeline for baselineplan.
//
// The pipeline has two stages:
//
//  1. Load: Read a compat dataset from a file or stdin and decode it
//  2. Extract: Walk the dataset in priority order and build feature records
//
// Extraction results are cached. The cache key covers the dataset content,
// the feature cap, the priorities, the classifier tables and the run date, so
// a hit always yields the records a fresh run would produce.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dataset:     "data.json",
//	    MaxFeatures: 100,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range result.Records {
//	    fmt.Println(r.ID, r.BaselineStatus, r.AdoptionDate)
//	}
//
// Run individual stages:
//
//	ds, err := runner.Load(ctx, opts)
//	res, hit, err := runner.ExtractWithCacheInfo(ctx, ds, opts)
package pipeline

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/extract"
	"github.com/matzehuels/baselineplan/pkg/feature"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultMaxFeatures is the default cap on extracted records.
const DefaultMaxFeatures = extract.DefaultMaxFeatures

// Sort orders for the record list.
const (
	SortPriority = "priority" // Extraction order
	SortDate     = "date"     // Adoption date, earliest first
)

// ValidSorts is the set of supported sort orders.
var ValidSorts = map[string]bool{
	SortPriority: true,
	SortDate:     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the extraction pipeline.
type Options struct {
	// Load options
	Dataset string    `json:"dataset"` // Path to the dataset, "-" for stdin
	Stdin   io.Reader `json:"-"`       // Source for "-" (default: os.Stdin)

	// Extract options
	MaxFeatures int                `json:"max_features,omitempty"`
	Priorities  extract.Priorities `json:"priorities,omitempty"`
	Classifier  classify.Config    `json:"-"`
	Refresh     bool               `json:"refresh,omitempty"` // Skip the cache lookup

	// Output options
	Sort   string         `json:"sort,omitempty"`
	Filter feature.Filter `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger      `json:"-"`
	Now    func() time.Time `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and metrics.
	RunID string

	// DatasetHash is the content hash of the dataset.
	DatasetHash string

	// Records are the extracted features after filtering and sorting.
	Records []feature.Record

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the records came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int // Nodes in the dataset
	Extracted   int // Records before filtering
	Visited     int
	Skipped     int
	Malformed   int
	Truncated   bool // The feature cap was reached
	LoadTime    time.Duration
	ExtractTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateSort checks that a sort order is valid.
func ValidateSort(sort string) error {
	if !ValidSorts[sort] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid sort: %q (must be one of: priority, date)", sort)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForExtract(); err != nil {
		return err
	}
	if o.Sort == "" {
		o.Sort = SortPriority
	}
	if err := ValidateSort(o.Sort); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the dataset path.
func (o *Options) ValidateForLoad() error {
	if o.Dataset == "" {
		return errors.New(errors.ErrCodeInvalidInput, "dataset is required")
	}
	if err := errors.ValidateDatasetPath(o.Dataset); err != nil {
		return err
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	o.setRuntimeDefaults()
	return nil
}

// ValidateForExtract applies extraction defaults and validates priorities.
func (o *Options) ValidateForExtract() error {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = DefaultMaxFeatures
	}
	if o.Priorities == nil {
		o.Priorities = extract.DefaultPriorities()
	}
	if err := o.Priorities.Validate(); err != nil {
		return err
	}

	// Materialize the tables so the cache key sees what the classifier uses.
	def := classify.DefaultConfig()
	if len(o.Classifier.Weights) == 0 {
		o.Classifier.Weights = def.Weights
	}
	for browser, w := range o.Classifier.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "weight for %s is not a finite number: %v", browser, w)
		}
	}
	if o.Classifier.Labels == nil {
		o.Classifier.Labels = def.Labels
	}
	if o.Classifier.ImpactRules == nil {
		o.Classifier.ImpactRules = def.ImpactRules
	}
	o.setRuntimeDefaults()
	return nil
}

func (o *Options) setRuntimeDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// ExtractKeyOpts returns cache key options for extraction.
func (o *Options) ExtractKeyOpts() (cache.ExtractKeyOpts, error) {
	prio := make([]string, len(o.Priorities))
	for i, c := range o.Priorities {
		prio[i] = c.Name + ":" + strings.Join(c.Subcategories, ",")
	}
	classifierHash, err := cache.HashJSON(o.Classifier)
	if err != nil {
		return cache.ExtractKeyOpts{}, fmt.Errorf("hash classifier tables: %w", err)
	}
	return cache.ExtractKeyOpts{
		MaxFeatures:    o.MaxFeatures,
		Priorities:     prio,
		ClassifierHash: classifierHash,
		Date:           classify.DateOf(o.Now()).String(),
	}, nil
}

// TraverserOptions returns the extract options for a run. Per-node failures
// are logged at debug level.
func (o *Options) TraverserOptions() extract.Options {
	logger := o.Logger
	return extract.Options{
		MaxFeatures: o.MaxFeatures,
		Priorities:  o.Priorities,
		Classifier:  classify.New(o.Classifier),
		Now:         o.Now,
		Logger: func(format string, args ...any) {
			logger.Debugf(format, args...)
		},
	}
}

// Postprocess applies the filter and sort order to records.
func (o *Options) Postprocess(records []feature.Record) []feature.Record {
	out := o.Filter.Apply(records)
	if o.Sort == SortDate {
		out = feature.SortByAdoptionDate(out)
	}
	return out
}
