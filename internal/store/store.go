// Package store persists transformation results: a JSON record, the output
// and difference images, and a JSONL stage trace per job.
package store

import "image"

// Store defines the interface for result persistence operations.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if a record doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRecord atomically saves the record for a job, overwriting any
	// previous one.
	SaveRecord(jobID string, record *Record) error

	// LoadRecord retrieves the record for a job.
	LoadRecord(jobID string) (*Record, error)

	// ListRecords returns metadata for all stored records.
	ListRecords() ([]RecordInfo, error)

	// DeleteRecord removes the record and every artifact of the job.
	DeleteRecord(jobID string) error

	// SaveImage stores a PNG artifact (e.g. "result.png") for the job.
	SaveImage(jobID, name string, img image.Image) error

	// ImagePath returns where a named artifact of the job is stored.
	ImagePath(jobID, name string) string

	// OpenTrace opens the job's stage trace for appending.
	OpenTrace(jobID string) (*TraceWriter, error)

	// ReadTrace returns the job's recorded stage entries.
	ReadTrace(jobID string) ([]TraceEntry, error)
}

// Artifact names written by the job worker.
const (
	ResultImage = "result.png"
	DiffImage   = "diff.png"
)

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "record not found: " + e.JobID
	}
	return "record not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
