package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/baselineplan/pkg/feature"
)

// WriteJSON encodes records as an indented JSON array and writes it to w.
// A nil slice is written as an empty array.
func WriteJSON(records []feature.Record, w io.Writer) error {
	if records == nil {
		records = []feature.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes records to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(records []feature.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
