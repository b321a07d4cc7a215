package classify

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/baselineplan/pkg/compat"
)

// Status is the baseline status tier of a feature.
type Status string

// Baseline status tiers, lowest first.
const (
	StatusLimited Status = "limited"
	StatusNewly   Status = "newly"
	StatusWidely  Status = "widely"
)

// Rank orders statuses: limited < newly < widely. Unknown statuses rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusLimited:
		return 0
	case StatusNewly:
		return 1
	case StatusWidely:
		return 2
	}
	return -1
}

// Impact is the estimated impact tier of a feature.
type Impact string

// Impact tiers.
const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Usage thresholds for the baseline tiers (inclusive lower bounds).
const (
	WidelyThreshold = 95
	NewlyThreshold  = 75
)

// Months added to today's date per tier.
const (
	newlyDelayMonths   = 6
	limitedDelayMonths = 12
)

// ImpactRule maps path substrings to an impact tier.
type ImpactRule struct {
	Impact     Impact   `toml:"impact" yaml:"impact"`
	Substrings []string `toml:"substrings" yaml:"substrings"`
}

// Config holds the lookup tables of a Classifier. Zero-valued fields select
// the built-in defaults.
type Config struct {
	Weights     map[string]float64 // browser -> market share in percent
	Labels      map[string]string  // "seg0.seg1" or "seg0" -> display label
	ImpactRules []ImpactRule       // checked in order, first match wins
}

// DefaultWeights returns the built-in market-share weights.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		compat.Chrome:  45,
		compat.Firefox: 20,
		compat.Safari:  25,
		compat.Edge:    10,
	}
}

// DefaultLabels returns the built-in category label table.
func DefaultLabels() map[string]string {
	return map[string]string{
		"css.properties":       "CSS Properties",
		"javascript.builtins":  "JavaScript",
		"api":                  "Web APIs",
		"html.elements":        "HTML",
		"javascript.operators": "JS Operators",
		"css.selectors":        "CSS Selectors",
		"http":                 "HTTP",
	}
}

// DefaultImpactRules returns the built-in impact rules.
func DefaultImpactRules() []ImpactRule {
	return []ImpactRule{
		{Impact: ImpactHigh, Substrings: []string{"javascript.builtins", "css.properties", "html.elements"}},
		{Impact: ImpactMedium, Substrings: []string{"api", "javascript.operators"}},
	}
}

// DefaultConfig returns a Config populated with the built-in tables.
func DefaultConfig() Config {
	return Config{
		Weights:     DefaultWeights(),
		Labels:      DefaultLabels(),
		ImpactRules: DefaultImpactRules(),
	}
}

// Classifier computes feature metrics. It is immutable and safe for
// concurrent use.
type Classifier struct {
	weights  map[string]float64
	browsers []string
	labels   map[string]string
	rules    []ImpactRule
}

// New creates a Classifier from cfg. The tables are copied, so later changes
// to cfg do not affect the Classifier.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if len(cfg.Weights) == 0 {
		cfg.Weights = def.Weights
	}
	if cfg.Labels == nil {
		cfg.Labels = def.Labels
	}
	if cfg.ImpactRules == nil {
		cfg.ImpactRules = def.ImpactRules
	}

	rules := make([]ImpactRule, len(cfg.ImpactRules))
	for i, r := range cfg.ImpactRules {
		subs := make([]string, len(r.Substrings))
		for j, s := range r.Substrings {
			subs[j] = strings.ToLower(s)
		}
		rules[i] = ImpactRule{Impact: r.Impact, Substrings: subs}
	}

	weights := maps.Clone(cfg.Weights)
	return &Classifier{
		weights:  weights,
		browsers: slices.Sorted(maps.Keys(weights)),
		labels:   maps.Clone(cfg.Labels),
		rules:    rules,
	}
}

// Default returns a Classifier using the built-in tables.
func Default() *Classifier {
	return New(DefaultConfig())
}

// Browsers returns the tracked browsers in lexical order.
func (c *Classifier) Browsers() []string {
	return slices.Clone(c.browsers)
}

// Weight returns the market-share weight of browser, or 0 if untracked.
func (c *Classifier) Weight(browser string) float64 {
	return c.weights[browser]
}

// CurrentUsage returns the estimated share of users, in percent, whose browser
// supports a feature. A browser counts only when its version_added is a
// concrete version; booleans, null and missing entries never count.
func (c *Classifier) CurrentUsage(support map[string]compat.Support) int {
	var total float64
	for _, b := range c.browsers {
		s, ok := support[b]
		if ok && s.VersionAdded.Concrete() {
			total += c.weights[b]
		}
	}
	return min(100, max(0, int(math.Round(total))))
}

// BaselineStatus maps a usage percentage to its baseline tier.
func BaselineStatus(usage int) Status {
	switch {
	case usage >= WidelyThreshold:
		return StatusWidely
	case usage >= NewlyThreshold:
		return StatusNewly
	default:
		return StatusLimited
	}
}

// AdoptionDate estimates when a feature with the given usage can be adopted,
// relative to today. Only the calendar date of today (in UTC) is used.
func AdoptionDate(usage int, today time.Time) Date {
	d := DateOf(today)
	switch BaselineStatus(usage) {
	case StatusWidely:
		return d
	case StatusNewly:
		return d.AddMonths(newlyDelayMonths)
	default:
		return d.AddMonths(limitedDelayMonths)
	}
}

// Impact classifies a dataset path by the configured substring rules.
func (c *Classifier) Impact(path string) Impact {
	lower := strings.ToLower(path)
	for _, r := range c.rules {
		for _, s := range r.Substrings {
			if strings.Contains(lower, s) {
				return r.Impact
			}
		}
	}
	return ImpactLow
}

// CategoryLabel returns the display label for a dataset path.
func (c *Classifier) CategoryLabel(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) > 1 {
		if label, ok := c.labels[parts[0]+"."+parts[1]]; ok {
			return label
		}
	}
	if label, ok := c.labels[parts[0]]; ok {
		return label
	}
	return strings.ToUpper(parts[0])
}
