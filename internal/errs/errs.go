// Package errs holds the sentinel errors shared by the calibration engine.
// Packages wrap them with context via fmt.Errorf("...: %w", ...); callers test
// with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidInput is returned when an input is rejected before any
	// simulation runs: non-positive durations or step counts, non-finite
	// fields, mismatched vector dimensions, unknown strategy names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFit is returned when the least-squares curve fit has no unique
	// solution.
	ErrFit = errors.New("curve fit failed")
)
