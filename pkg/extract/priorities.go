package extract

import (
	"slices"

	"github.com/matzehuels/baselineplan/pkg/compat"
	"github.com/matzehuels/baselineplan/pkg/errors"
)

// Category is a top-level dataset category and its priority subcategories.
type Category struct {
	Name          string   `toml:"name" yaml:"name" json:"name"`
	Subcategories []string `toml:"subcategories" yaml:"subcategories" json:"subcategories,omitempty"`
}

// Priorities lists the categories to visit, in visiting order.
type Priorities []Category

// DefaultPriorities returns the built-in visiting order.
func DefaultPriorities() Priorities {
	return Priorities{
		{Name: "css", Subcategories: []string{"properties", "selectors"}},
		{Name: "javascript", Subcategories: []string{"builtins"}},
		{Name: "html", Subcategories: []string{"elements"}},
		{Name: "api"},
	}
}

// Clone returns a deep copy of p.
func (p Priorities) Clone() Priorities {
	out := make(Priorities, len(p))
	for i, c := range p {
		out[i] = Category{Name: c.Name, Subcategories: slices.Clone(c.Subcategories)}
	}
	return out
}

// IsPriority reports whether key is a priority subcategory of the top-level
// category named top.
func (p Priorities) IsPriority(top, key string) bool {
	for _, c := range p {
		if c.Name == top {
			return slices.Contains(c.Subcategories, key)
		}
	}
	return false
}

// Validate checks category and subcategory names and rejects duplicates.
func (p Priorities) Validate() error {
	seen := make(map[string]bool, len(p))
	for _, c := range p {
		if err := errors.ValidateSegment("category", c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate category %q", c.Name)
		}
		seen[c.Name] = true

		subs := make(map[string]bool, len(c.Subcategories))
		for _, s := range c.Subcategories {
			if err := errors.ValidateSegment("subcategory", s); err != nil {
				return err
			}
			if subs[s] {
				return errors.New(errors.ErrCodeInvalidConfig, "duplicate subcategory %q in %q", s, c.Name)
			}
			subs[s] = true
		}
	}
	return nil
}

// Root is a subtree selected for walking, with the path of its root.
type Root struct {
	Path []string
	Node *compat.Node
}

// Roots resolves the priorities against the dataset and returns the subtrees
// to walk, in order. Categories and subcategories absent from the dataset are
// skipped.
func (p Priorities) Roots(dataset *compat.Node) []Root {
	var roots []Root
	for _, c := range p {
		cat, ok := dataset.Child(c.Name)
		if !ok {
			continue
		}
		if len(c.Subcategories) == 0 {
			roots = append(roots, Root{Path: []string{c.Name}, Node: cat})
			continue
		}
		for _, s := range c.Subcategories {
			if sub, ok := cat.Child(s); ok {
				roots = append(roots, Root{Path: []string{c.Name, s}, Node: sub})
			}
		}
	}
	return roots
}
