package sculpt

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrDimensionMismatch matches any DimensionMismatchError and tiling failures.
	// Use errors.Is(err, ErrDimensionMismatch) to check for it.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrSolverFailure matches any SolverError.
	ErrSolverFailure = errors.New("assignment solver failure")

	// ErrQualityRejected is returned by callers that enforce the acceptance threshold.
	ErrQualityRejected = errors.New("quality score below acceptance threshold")
)

// DimensionMismatchError reports two images, blocks or maps that disagree in size.
type DimensionMismatchError struct {
	What string
	Want image.Point
	Got  image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch: want %dx%d, got %dx%d",
		e.What, e.Want.X, e.Want.Y, e.Got.X, e.Got.Y)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

func checkSameSize(what string, want, got image.Rectangle) error {
	if want.Dx() != got.Dx() || want.Dy() != got.Dy() {
		return &DimensionMismatchError{What: what, Want: want.Size(), Got: got.Size()}
	}
	return nil
}

// SolverError means the assignment solver could not produce a perfect matching.
// For a square matrix with finite entries this is an invariant violation.
type SolverError struct {
	Reason string
}

func (e *SolverError) Error() string {
	return "assignment solver failure: " + e.Reason
}

func (e *SolverError) Is(target error) bool {
	return target == ErrSolverFailure
}

// BlockError names the tile whose processing failed.
type BlockError struct {
	Scale string
	Block Block
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s-scale block at (%d,%d) size %d: %v", e.Scale, e.Block.X, e.Block.Y, e.Block.Size, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// ParamError represents an invalid engine parameter.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}
