package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDatasetPath validates the path of a local dataset file.
// "-" is accepted and means standard input.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateDatasetPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "dataset path cannot be empty")
	}
	if path == "-" {
		return nil
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// segmentRegex matches a single dataset path segment (category, subcategory
// or browser name). BCD keys are identifiers, sometimes with dashes or
// underscores (e.g. "grid-template-areas", "worker_support").
var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateSegment validates a single path segment used in configuration,
// such as a category or subcategory name.
func ValidateSegment(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "%s name cannot be empty", kind)
	}
	if strings.HasPrefix(name, "__") {
		return New(ErrCodeInvalidConfig, "%s name %q uses the reserved metadata prefix", kind, name)
	}
	if !segmentRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid %s name: %q", kind, name)
	}
	return nil
}

// ValidateLabelKey validates a category label table key: one segment, or two
// segments joined by a dot.
func ValidateLabelKey(key string) error {
	parts := strings.Split(key, ".")
	if len(parts) > 2 {
		return New(ErrCodeInvalidConfig, "label key %q has more than two segments", key)
	}
	for _, p := range parts {
		if err := ValidateSegment("label key", p); err != nil {
			return err
		}
	}
	return nil
}
