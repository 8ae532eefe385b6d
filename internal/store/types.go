package store

import (
	"time"

	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

// JobConfig holds the inputs of a transformation job.
// It lives here to avoid import cycles with the server package.
type JobConfig struct {
	SourcePath string        `json:"sourcePath"`
	TargetPath string        `json:"targetPath"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Params     sculpt.Params `json:"params"`
}

// Record is the persisted outcome of one transformation.
type Record struct {
	JobID     string         `json:"jobId"`
	Config    JobConfig      `json:"config"`
	Verdict   sculpt.Verdict `json:"verdict"`
	Elapsed   float64        `json:"elapsedSeconds"`
	Timestamp time.Time      `json:"timestamp"`
}

// RecordInfo is the listing view of a Record.
type RecordInfo struct {
	JobID      string    `json:"jobId"`
	Score      float64   `json:"score"`
	Passed     bool      `json:"passed"`
	Emitted    bool      `json:"emitted"`
	Timestamp  time.Time `json:"timestamp"`
	SourcePath string    `json:"sourcePath"`
	TargetPath string    `json:"targetPath"`
}

// NewRecord creates a record stamped with the current time.
func NewRecord(jobID string, config JobConfig, verdict sculpt.Verdict, elapsed time.Duration) *Record {
	return &Record{
		JobID:     jobID,
		Config:    config,
		Verdict:   verdict,
		Elapsed:   elapsed.Seconds(),
		Timestamp: time.Now(),
	}
}

// ToInfo converts a full Record to its listing metadata.
func (r *Record) ToInfo() RecordInfo {
	return RecordInfo{
		JobID:      r.JobID,
		Score:      r.Verdict.Score,
		Passed:     r.Verdict.Passed,
		Emitted:    r.Verdict.Emit,
		Timestamp:  r.Timestamp,
		SourcePath: r.Config.SourcePath,
		TargetPath: r.Config.TargetPath,
	}
}

// Validate checks if the record has valid data.
func (r *Record) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Verdict.Score < -1 || r.Verdict.Score > 1 {
		return &ValidationError{Field: "Verdict.Score", Reason: "must be within [-1, 1]"}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Config.SourcePath == "" {
		return &ValidationError{Field: "Config.SourcePath", Reason: "cannot be empty"}
	}
	if r.Config.TargetPath == "" {
		return &ValidationError{Field: "Config.TargetPath", Reason: "cannot be empty"}
	}
	if r.Config.Width <= 0 || r.Config.Height <= 0 {
		return &ValidationError{Field: "Config.Width", Reason: "dimensions must be positive"}
	}
	if err := r.Config.Params.Validate(); err != nil {
		return &ValidationError{Field: "Config.Params", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
