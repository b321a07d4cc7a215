package extract

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/compat"
	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/feature"
)

// DefaultMaxFeatures is the default cap on the number of extracted records.
const DefaultMaxFeatures = 100

// Options configures a Traverser.
type Options struct {
	MaxFeatures int                  // Maximum records to collect (default: 100)
	Priorities  Priorities           // Visiting order (default: DefaultPriorities)
	Classifier  *classify.Classifier // Metric tables (default: classify.Default)
	Now         func() time.Time     // Clock for adoption dates (default: time.Now)
	Logger      func(string, ...any) // Per-node failure callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultMaxFeatures
	}
	if opts.Priorities == nil {
		opts.Priorities = DefaultPriorities()
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Stats describes a completed walk.
type Stats struct {
	Visited    int  // Nodes visited, malformed ones included
	Skipped    int  // Nodes with compat info that produced no record
	Malformed  int  // Nodes that were not JSON objects
	CapReached bool // The walk stopped at MaxFeatures
}

// Result is the outcome of a walk.
type Result struct {
	Records []feature.Record
	Stats   Stats
}

// Traverser walks datasets. A Traverser holds no per-walk state; each Run
// owns its accumulator.
type Traverser struct {
	opts    Options
	builder *feature.Builder
}

// New creates a Traverser.
func New(opts Options) *Traverser {
	opts = opts.WithDefaults()
	return &Traverser{
		opts:    opts,
		builder: feature.NewBuilder(opts.Classifier, opts.Now),
	}
}

// Run walks dataset in priority order and returns at most MaxFeatures
// records.
//
// An empty or nil dataset yields an empty result. A non-empty dataset that
// yields no records fails with EMPTY_RESULT; the Result is still returned so
// callers can report its stats. Node-level failures skip the node; any other
// failure aborts the walk and is returned without a Result.
func (t *Traverser) Run(dataset *compat.Node) (*Result, error) {
	w := &walk{
		max:     t.opts.MaxFeatures,
		prio:    t.opts.Priorities,
		builder: t.builder,
		logf:    t.opts.Logger,
	}
	if dataset.Len() == 0 {
		return &Result{}, nil
	}

	for _, root := range t.opts.Priorities.Roots(dataset) {
		if w.visit(root.Node, root.Path) {
			break
		}
	}

	if w.err != nil {
		return nil, w.err
	}

	res := &Result{Records: w.records, Stats: w.stats}
	if len(res.Records) == 0 {
		return res, errors.New(errors.ErrCodeEmptyResult,
			"no features extracted from %d top-level categories", dataset.Len())
	}
	return res, nil
}

// walk is the state of a single Run.
type walk struct {
	max     int
	prio    Priorities
	builder *feature.Builder
	logf    func(string, ...any)

	records []feature.Record
	stats   Stats
	err     error
}

// visit processes n and its subtree. It returns true once the walk must stop,
// either because the cap is reached or because a failure was not confined to
// n.
func (w *walk) visit(n *compat.Node, path []string) bool {
	w.stats.Visited++
	if err := w.record(n, path); err != nil {
		switch {
		case errors.Is(err, errors.ErrCodeMalformedNode):
			// Malformed nodes are childless leaves.
			w.stats.Malformed++
			return false
		case errors.IsNodeLevel(err):
			w.stats.Skipped++
			w.logf("skipping feature %s: %v", strings.Join(path, "."), err)
		default:
			w.err = err
			return true
		}
	}

	if len(w.records) >= w.max {
		w.stats.CapReached = true
		return true
	}

	for _, c := range w.children(n, path[0]) {
		if w.visit(c.Node, append(path[:len(path):len(path)], c.Key)) {
			return true
		}
	}
	return false
}

// record builds the record for n if it carries compat data.
func (w *walk) record(n *compat.Node, path []string) error {
	if n == nil || n.Malformed {
		return errors.New(errors.ErrCodeMalformedNode, "%s is not an object", strings.Join(path, "."))
	}
	if n.Compat == nil {
		return nil
	}
	rec, err := w.builder.Build(strings.Join(path, "."), n.Compat, path[len(path)-1])
	if err != nil {
		return err
	}
	w.records = append(w.records, rec)
	return nil
}

// children returns n's children with the priority subcategories of the
// top-level category first. The partition is stable, so document order is
// kept within each group.
func (w *walk) children(n *compat.Node, top string) []compat.Child {
	kids := slices.Clone(n.Children)
	slices.SortStableFunc(kids, func(a, b compat.Child) int {
		pa, pb := w.prio.IsPriority(top, a.Key), w.prio.IsPriority(top, b.Key)
		switch {
		case pa && !pb:
			return -1
		case !pa && pb:
			return 1
		}
		return 0
	})
	return kids
}
