package errors

import (
	"math"
	"testing"
)

func TestValidateValues(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		wantCode Code
	}{
		{"valid", []float64{1, 2, 3}, ""},
		{"zero allowed", []float64{0, 5}, ""},

		{"empty", nil, ErrCodeInvalidInput},
		{"nan", []float64{1, math.NaN()}, ErrCodeInvalidAttribute},
		{"inf", []float64{math.Inf(1)}, ErrCodeInvalidAttribute},
		{"negative", []float64{3, -1}, ErrCodeInvalidAttribute},
		{"all zero", []float64{0, 0}, ErrCodeInvalidAttribute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValues(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateValues(%v) code = %q, want %q (err: %v)", tt.input, got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateAttributeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "population", false},
		{"valid with space", "pop 2020", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"control char", "pop\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttributeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAttributeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIterationBounds(t *testing.T) {
	tests := []struct {
		name     string
		maxIter  int
		maxError float64
		wantErr  bool
	}{
		{"defaults", 10, 0.1, false},
		{"zero iterations", 0, 0.1, false},
		{"zero error", 1, 0, false},
		{"negative iterations", -1, 0.1, true},
		{"negative error", 10, -0.5, true},
		{"nan error", 10, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIterationBounds(tt.maxIter, tt.maxError)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIterationBounds(%d, %g) error = %v, wantErr %v", tt.maxIter, tt.maxError, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "data/counties.geojson", false},
		{"absolute", "/tmp/out.svg", false},

		{"empty", "", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"too long", string(make([]byte, 5000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
