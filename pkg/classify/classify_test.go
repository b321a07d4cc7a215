package classify

import (
	"testing"
	"time"

	"github.com/matzehuels/baselineplan/pkg/compat"
)

var today = time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

func support(versions map[string]compat.Version) map[string]compat.Support {
	m := make(map[string]compat.Support, len(versions))
	for b, v := range versions {
		m[b] = compat.Support{VersionAdded: v}
	}
	return m
}

func TestCurrentUsage(t *testing.T) {
	c := Default()
	tests := []struct {
		name    string
		support map[string]compat.Support
		want    int
	}{
		{
			name: "mixed support",
			support: support(map[string]compat.Version{
				compat.Chrome:  compat.TextVersion("90"),
				compat.Firefox: compat.BoolVersion(false),
				compat.Safari:  compat.NullVersion(),
				compat.Edge:    compat.TextVersion("90"),
			}),
			want: 55,
		},
		{
			name: "all concrete",
			support: support(map[string]compat.Version{
				compat.Chrome:  compat.TextVersion("1"),
				compat.Firefox: compat.TextVersion("1"),
				compat.Safari:  compat.TextVersion("1"),
				compat.Edge:    compat.TextVersion("12"),
			}),
			want: 100,
		},
		{
			name: "boolean true does not count",
			support: support(map[string]compat.Version{
				compat.Chrome:  compat.BoolVersion(true),
				compat.Firefox: compat.BoolVersion(true),
				compat.Safari:  compat.BoolVersion(true),
				compat.Edge:    compat.BoolVersion(true),
			}),
			want: 0,
		},
		{
			name: "numeric zero does not count",
			support: support(map[string]compat.Version{
				compat.Chrome:  compat.NumberVersion("0"),
				compat.Firefox: compat.NumberVersion("52"),
			}),
			want: 20,
		},
		{
			name: "empty string does not count",
			support: support(map[string]compat.Version{
				compat.Chrome: compat.TextVersion(""),
				compat.Safari: compat.TextVersion("14"),
			}),
			want: 25,
		},
		{
			name: "untracked browsers ignored",
			support: support(map[string]compat.Version{
				"opera":        compat.TextVersion("50"),
				"safari_ios":   compat.TextVersion("10"),
				compat.Firefox: compat.TextVersion("3.5"),
			}),
			want: 20,
		},
		{
			name: "array-form statement",
			support: map[string]compat.Support{
				compat.Chrome: {History: []compat.Support{{VersionAdded: compat.TextVersion("57")}}},
			},
			want: 0,
		},
		{name: "nil map", support: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.CurrentUsage(tt.support); got != tt.want {
				t.Errorf("CurrentUsage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentUsageRoundsAndClamps(t *testing.T) {
	all := support(map[string]compat.Version{
		"a": compat.TextVersion("1"),
		"b": compat.TextVersion("1"),
	})

	rounding := New(Config{Weights: map[string]float64{"a": 33.25, "b": 33.25}})
	if got := rounding.CurrentUsage(all); got != 67 {
		t.Errorf("CurrentUsage() = %d, want 67", got)
	}

	over := New(Config{Weights: map[string]float64{"a": 80, "b": 80}})
	if got := over.CurrentUsage(all); got != 100 {
		t.Errorf("CurrentUsage() = %d, want clamp to 100", got)
	}
}

func TestBaselineStatus(t *testing.T) {
	tests := []struct {
		usage int
		want  Status
	}{
		{0, StatusLimited},
		{55, StatusLimited},
		{74, StatusLimited},
		{75, StatusNewly},
		{94, StatusNewly},
		{95, StatusWidely},
		{100, StatusWidely},
	}

	for _, tt := range tests {
		if got := BaselineStatus(tt.usage); got != tt.want {
			t.Errorf("BaselineStatus(%d) = %s, want %s", tt.usage, got, tt.want)
		}
	}
}

func TestBaselineStatusMonotonic(t *testing.T) {
	prev := BaselineStatus(0).Rank()
	for u := 1; u <= 100; u++ {
		r := BaselineStatus(u).Rank()
		if r < prev {
			t.Fatalf("BaselineStatus regressed at usage %d", u)
		}
		prev = r
	}
}

func TestAdoptionDate(t *testing.T) {
	tests := []struct {
		name  string
		usage int
		today time.Time
		want  string
	}{
		{"widely is today", 100, today, "2026-10-19"},
		{"newly is six months", 80, today, "2027-04-19"},
		{"limited is twelve months", 55, today, "2027-10-19"},
		{"month overflow rolls over", 80, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), "2027-03-03"},
		{"leap year overflow", 80, time.Date(2027, time.August, 31, 0, 0, 0, 0, time.UTC), "2028-03-02"},
		{"time zone normalized to UTC", 100, time.Date(2026, time.October, 20, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), "2026-10-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdoptionDate(tt.usage, tt.today).String(); got != tt.want {
				t.Errorf("AdoptionDate(%d) = %s, want %s", tt.usage, got, tt.want)
			}
		})
	}
}

func TestImpact(t *testing.T) {
	c := Default()
	tests := []struct {
		path string
		want Impact
	}{
		{"javascript.builtins.Array.flat", ImpactHigh},
		{"css.properties.grid", ImpactHigh},
		{"HTML.Elements.dialog", ImpactHigh},
		{"api.Window.fetch", ImpactMedium},
		{"javascript.operators.optional_chaining", ImpactMedium},
		{"css.selectors.has", ImpactLow},
		{"http.headers.Accept", ImpactLow},
		// "api" matches anywhere in the path, not only as a segment.
		{"css.types.text-capitalize", ImpactMedium},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := c.Impact(tt.path); got != tt.want {
				t.Errorf("Impact(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	c := Default()
	tests := []struct {
		path string
		want string
	}{
		{"css.properties.grid", "CSS Properties"},
		{"css.selectors.hover", "CSS Selectors"},
		{"api.Window", "Web APIs"},
		{"api", "Web APIs"},
		{"http.headers.Accept", "HTTP"},
		{"javascript.builtins.Map", "JavaScript"},
		{"javascript.statements.for", "JAVASCRIPT"},
		{"foo.bar.baz", "FOO"},
		{"svg", "SVG"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := c.CategoryLabel(tt.path); got != tt.want {
				t.Errorf("CategoryLabel(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNewCopiesTables(t *testing.T) {
	labels := map[string]string{"foo": "Foo"}
	c := New(Config{Labels: labels})
	labels["foo"] = "Changed"

	if got := c.CategoryLabel("foo.bar"); got != "Foo" {
		t.Errorf("CategoryLabel() = %q, want %q", got, "Foo")
	}
	if got := c.Weight(compat.Chrome); got != 45 {
		t.Errorf("Weight(chrome) = %v, want default 45", got)
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-10-19")
	if err != nil {
		t.Fatalf("ParseDate() error: %v", err)
	}
	if d != DateOf(today) {
		t.Errorf("ParseDate() = %v, want %v", d, DateOf(today))
	}
	if !d.Before(d.AddMonths(1)) {
		t.Error("Before() should be true for a later date")
	}

	data, err := d.MarshalJSON()
	if err != nil || string(data) != `"2026-10-19"` {
		t.Errorf("MarshalJSON() = %s, %v", data, err)
	}
	var back Date
	if err := back.UnmarshalJSON(data); err != nil || back != d {
		t.Errorf("UnmarshalJSON() = %v, %v", back, err)
	}
	if err := back.UnmarshalJSON([]byte(`"19/10/2026"`)); err == nil {
		t.Error("UnmarshalJSON() should reject non-ISO dates")
	}
}
