package feature

import (
	"slices"
	"sort"

	"github.com/matzehuels/baselineplan/pkg/classify"
)

// SortByAdoptionDate returns a copy of records ordered by adoption date,
// earliest first. Records with the same date keep their relative order.
func SortByAdoptionDate(records []Record) []Record {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AdoptionDate.Before(out[j].AdoptionDate)
	})
	return out
}

// Plan splits records into features usable now and features to adopt later.
type Plan struct {
	Current     []Record // widely available
	Recommended []Record // newly or limited availability
}

// Split partitions records by baseline status, preserving order.
func Split(records []Record) Plan {
	var p Plan
	for _, r := range records {
		if r.BaselineStatus == classify.StatusWidely {
			p.Current = append(p.Current, r)
		} else {
			p.Recommended = append(p.Recommended, r)
		}
	}
	return p
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	Statuses   []classify.Status
	Categories []string
	MinUsage   int
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.BaselineStatus) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
		return false
	}
	return r.CurrentUsage >= f.MinUsage
}

// Apply returns the records that pass the filter, preserving order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
