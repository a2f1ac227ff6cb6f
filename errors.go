package paircorr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration reports inconsistent or missing binning parameters and
	// merges between results that do not share a configuration.
	ErrConfiguration = errors.New("paircorr: configuration error")

	// ErrValue reports an argument the computation cannot use: an unknown
	// estimator, a metric the coordinates or kind do not support, or a field
	// without the values a kind needs.
	ErrValue = errors.New("paircorr: invalid value")
)

// FieldError names one invalid Config field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string { return e.Field + ": " + e.Reason }

// ConfigError lists every Config field that failed validation.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "paircorr: invalid configuration: " + strings.Join(parts, "; ")
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func (e *ConfigError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (e *ConfigError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// MismatchError is returned by Correlation.Add when the two results were
// built from different coordinate systems or metrics. The raw sums have
// already been merged when it is returned.
type MismatchError struct {
	Coords [2]Coords
	Metric [2]MetricName
}

func (e *MismatchError) Error() string {
	var parts []string
	if e.Coords[0] != e.Coords[1] {
		parts = append(parts, fmt.Sprintf("coordinate systems %s and %s", e.Coords[0], e.Coords[1]))
	}
	if e.Metric[0] != e.Metric[1] {
		parts = append(parts, fmt.Sprintf("metrics %s and %s", e.Metric[0], e.Metric[1]))
	}
	return "paircorr: merged results with different " + strings.Join(parts, " and ")
}

func (e *MismatchError) Unwrap() error { return ErrConfiguration }
