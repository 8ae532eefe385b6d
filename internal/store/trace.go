package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TraceEntry records one completed pipeline stage of a job.
type TraceEntry struct {
	Stage     string    `json:"stage"`
	ElapsedMS float64   `json:"elapsedMs"`
	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter appends stage entries to <baseDir>/jobs/<jobID>/trace.jsonl.
// It is not safe for concurrent use; the job worker owns it.
type TraceWriter struct {
	file    *os.File
	encoder *json.Encoder
	writer  *bufio.Writer
	path    string
}

// NewTraceWriter opens (or creates) the trace file for appending.
func NewTraceWriter(baseDir, jobID string) (*TraceWriter, error) {
	path := tracePath(baseDir, jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	writer := bufio.NewWriter(file)
	return &TraceWriter{
		file:    file,
		encoder: json.NewEncoder(writer),
		writer:  writer,
		path:    path,
	}, nil
}

// Write appends one entry as a JSON line.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	if err := tw.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return nil
}

// Close flushes buffered entries and closes the file.
func (tw *TraceWriter) Close() error {
	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	return tw.file.Close()
}

// Path returns the trace file path.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// ReadTrace loads every entry of a job's trace. A missing trace yields
// NotFoundError.
func ReadTrace(baseDir, jobID string) ([]TraceEntry, error) {
	file, err := os.Open(tracePath(baseDir, jobID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	var entries []TraceEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry TraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode trace entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return entries, nil
}

func tracePath(baseDir, jobID string) string {
	return filepath.Join(baseDir, "jobs", jobID, "trace.jsonl")
}
