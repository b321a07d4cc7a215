// Package feature assembles normalized feature records from dataset nodes.
//
// A [Record] is built once per qualifying node by a [Builder] and never
// mutated afterwards. Records carry the computed metrics from package
// classify plus the raw support data for downstream consumers.
package feature

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/compat"
	"github.com/matzehuels/baselineplan/pkg/errors"
)

// Record is a normalized web platform feature.
type Record struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Category       string                    `json:"category"`
	BaselineStatus classify.Status           `json:"baselineStatus"`
	AdoptionDate   classify.Date             `json:"adoptionDate"`
	CurrentUsage   int                       `json:"currentUsage"`
	Impact         classify.Impact           `json:"impact"`
	Description    string                    `json:"description"`
	SourcePath     string                    `json:"sourcePath"`
	BrowserSupport map[string]compat.Support `json:"browserSupport"`
}

// IDFromPath derives a record ID from a dot-separated dataset path.
func IDFromPath(path string) string {
	return strings.ReplaceAll(path, ".", "-")
}

// FallbackDescription is used when the dataset has no description.
func FallbackDescription(name string) string {
	return name + " - Web Platform Feature"
}

// Builder builds records using a Classifier and a clock.
type Builder struct {
	classifier *classify.Classifier
	now        func() time.Time
}

// NewBuilder creates a Builder. A nil classifier selects classify.Default and
// a nil clock selects time.Now.
func NewBuilder(c *classify.Classifier, now func() time.Time) *Builder {
	if c == nil {
		c = classify.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{classifier: c, now: now}
}

// Build assembles the record for the node at path. It fails with
// MISSING_SUPPORT_DATA when info or its support map is nil, and with
// CLASSIFICATION_FAILURE when metric computation panics.
func (b *Builder) Build(path string, info *compat.Info, name string) (rec Record, err error) {
	if info == nil || info.Support == nil {
		return Record{}, errors.New(errors.ErrCodeMissingSupportData, "no support data for %s", path)
	}

	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			err = errors.Wrap(errors.ErrCodeClassificationFailure, fmt.Errorf("%v", r), "classify %s", path)
		}
	}()

	support := b.trackedSupport(info.Support)
	usage := b.classifier.CurrentUsage(support)

	description := info.Description
	if description == "" {
		description = FallbackDescription(name)
	}

	return Record{
		ID:             IDFromPath(path),
		Name:           name,
		Category:       b.classifier.CategoryLabel(path),
		BaselineStatus: classify.BaselineStatus(usage),
		AdoptionDate:   classify.AdoptionDate(usage, b.now()),
		CurrentUsage:   usage,
		Impact:         b.classifier.Impact(path),
		Description:    description,
		SourcePath:     path,
		BrowserSupport: support,
	}, nil
}

// trackedSupport returns the statements of the tracked browsers. Browsers
// missing from the dataset get a null version_added.
func (b *Builder) trackedSupport(all map[string]compat.Support) map[string]compat.Support {
	browsers := b.classifier.Browsers()
	out := make(map[string]compat.Support, len(browsers))
	for _, name := range browsers {
		s, ok := all[name]
		if !ok {
			s = compat.Support{VersionAdded: compat.NullVersion()}
		}
		out[name] = s
	}
	return out
}
