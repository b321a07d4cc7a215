package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/baselineplan/pkg/feature"
)

// ReadJSON decodes a JSON record list from r.
//
// ReadJSON returns an error if the JSON is malformed, a record has an empty
// or duplicate ID, an unknown baseline status, a usage outside 0..100 or no
// adoption date.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]feature.Record, error) {
	var records []feature.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("record %s: duplicate id", rec.ID)
		}
		seen[rec.ID] = true
		if rec.BaselineStatus.Rank() < 0 {
			return nil, fmt.Errorf("record %s: unknown baseline status %q", rec.ID, rec.BaselineStatus)
		}
		if rec.CurrentUsage < 0 || rec.CurrentUsage > 100 {
			return nil, fmt.Errorf("record %s: usage %d out of range", rec.ID, rec.CurrentUsage)
		}
		if rec.AdoptionDate.IsZero() {
			return nil, fmt.Errorf("record %s: missing adoption date", rec.ID)
		}
	}
	if records == nil {
		records = []feature.Record{}
	}
	return records, nil
}

// ImportJSON reads a JSON record list from the file at path.
func ImportJSON(path string) ([]feature.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
