package store

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwbudde/pixelsculpt/internal/imageio"
)

// FSStore implements Store on the filesystem. Each job lives in
// <baseDir>/jobs/<jobID>/ with record.json, PNG artifacts and trace.jsonl.
//
// Writes use temp file + rename, so concurrent callers never observe a
// partially written file.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FSStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "jobs", jobID)
}

func (fs *FSStore) recordPath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), "record.json")
}

// SaveRecord atomically saves the record for the given job.
func (fs *FSStore) SaveRecord(jobID string, record *Record) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	if err := fs.writeAtomic(jobID, "record.json", data); err != nil {
		return err
	}

	slog.Debug("Record saved", "job_id", jobID, "path", fs.recordPath(jobID))
	return nil
}

// LoadRecord retrieves the record for the given job.
func (fs *FSStore) LoadRecord(jobID string) (*Record, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}

	data, err := os.ReadFile(fs.recordPath(jobID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return &record, nil
}

// ListRecords returns metadata for all stored records, newest first.
// Directories without a readable record are skipped.
func (fs *FSStore) ListRecords() ([]RecordInfo, error) {
	jobsDir := filepath.Join(fs.baseDir, "jobs")

	entries, err := os.ReadDir(jobsDir)
	if os.IsNotExist(err) {
		return []RecordInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	infos := []RecordInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		record, err := fs.LoadRecord(entry.Name())
		if err != nil {
			if _, ok := err.(*NotFoundError); !ok {
				slog.Warn("Failed to load record for listing", "job_id", entry.Name(), "error", err)
			}
			continue
		}
		infos = append(infos, record.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}

// DeleteRecord removes the job directory and all artifacts.
func (fs *FSStore) DeleteRecord(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}

	jobDir := fs.jobDir(jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}

	slog.Debug("Record deleted", "job_id", jobID, "path", jobDir)
	return nil
}

// SaveImage atomically writes img as PNG under the job directory.
func (fs *FSStore) SaveImage(jobID, name string, img image.Image) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	data, err := imageio.PNGBytes(img)
	if err != nil {
		return err
	}
	return fs.writeAtomic(jobID, name, data)
}

// ImagePath returns the path of a named artifact.
func (fs *FSStore) ImagePath(jobID, name string) string {
	return filepath.Join(fs.jobDir(jobID), name)
}

// OpenTrace opens the job's trace.jsonl for appending.
func (fs *FSStore) OpenTrace(jobID string) (*TraceWriter, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}
	return NewTraceWriter(fs.baseDir, jobID)
}

// ReadTrace returns the job's stage entries.
func (fs *FSStore) ReadTrace(jobID string) ([]TraceEntry, error) {
	return ReadTrace(fs.baseDir, jobID)
}

func (fs *FSStore) writeAtomic(jobID, name string, data []byte) error {
	jobDir := fs.jobDir(jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	finalPath := filepath.Join(jobDir, name)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}
