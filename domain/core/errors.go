package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Run-fatal errors, raised before any record is processed
	ErrMalformedCriterion = errors.New("malformed criterion")
	ErrConfiguration      = errors.New("criterion names unknown metric")

	// Per-record resolution errors, contained within the record's verdict
	ErrMissingAnnotation   = errors.New("required annotation missing")
	ErrCardinalityMismatch = errors.New("allele value count mismatch")
	ErrMalformedValue      = errors.New("annotation value not numeric")
)

// NewMalformedCriterionError identifies the offending metric and its raw expression.
func NewMalformedCriterionError(metric, raw string) error {
	return fmt.Errorf("%w: %s = %q", ErrMalformedCriterion, metric, raw)
}

// NewConfigurationError reports a criterion whose metric is absent from the record schema.
func NewConfigurationError(metric string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, metric)
}

// Error checking helpers
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrMalformedCriterion) || errors.Is(err, ErrConfiguration)
}

func IsResolutionError(err error) bool {
	return errors.Is(err, ErrMissingAnnotation) ||
		errors.Is(err, ErrCardinalityMismatch) ||
		errors.Is(err, ErrMalformedValue)
}
