package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateValues checks the attribute column that drives a cartogram.
//
// Every value must be a finite, non-negative number and the column must sum
// to a positive total; otherwise the area/value ratio is undefined. The
// index of the first offending value is included in the message.
func ValidateValues(values []float64) error {
	if len(values) == 0 {
		return New(ErrCodeInvalidInput, "no features to transform")
	}

	total := 0.0
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			return New(ErrCodeInvalidAttribute, "feature %d: attribute value is NULL or NaN", i)
		case math.IsInf(v, 0):
			return New(ErrCodeInvalidAttribute, "feature %d: attribute value is infinite", i)
		case v < 0:
			return New(ErrCodeInvalidAttribute, "feature %d: attribute value %g is negative", i, v)
		}
		total += v
	}

	if total <= 0 {
		return New(ErrCodeInvalidAttribute, "attribute values sum to zero")
	}
	return nil
}

// ValidateAttributeName validates the name of the cartogram attribute column.
func ValidateAttributeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidAttribute, "attribute name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidAttribute, "attribute name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidAttribute, "attribute name contains invalid control characters")
		}
	}

	return nil
}

// ValidateIterationBounds checks the caller-supplied convergence bounds.
// Zero is accepted for both: zero iterations performs no pass and a zero
// error threshold demands an exact fit.
func ValidateIterationBounds(maxIterations int, maxAverageError float64) error {
	if maxIterations < 0 {
		return New(ErrCodeInvalidInput, "max iterations must not be negative, got %d", maxIterations)
	}
	if math.IsNaN(maxAverageError) || maxAverageError < 0 {
		return New(ErrCodeInvalidInput, "max average error must be a non-negative number, got %g", maxAverageError)
	}
	return nil
}

// ValidatePath validates an input or output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
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
