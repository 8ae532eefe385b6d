package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/pixelsculpt/internal/sculpt"
	"github.com/cwbudde/pixelsculpt/internal/store"
)

func jobIDs(infos []store.RecordInfo) map[string]bool {
	ids := make(map[string]bool)
	for _, info := range infos {
		ids[info.JobID] = true
	}
	return ids
}

func TestSelectRecordsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RecordInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10), Passed: true},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5), Passed: true},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1), Passed: true},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30), Passed: true},
	}

	toDelete := selectRecordsForDeletion(infos, 0, 7, false)

	ids := jobIDs(toDelete)
	if len(toDelete) != 2 || !ids["job1"] || !ids["job4"] {
		t.Errorf("Expected job1 and job4 to be selected, got %v", ids)
	}
}

func TestSelectRecordsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RecordInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10), Passed: true},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5), Passed: true},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1), Passed: true},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30), Passed: true},
	}

	toDelete := selectRecordsForDeletion(infos, 2, 0, false)

	ids := jobIDs(toDelete)
	if len(toDelete) != 2 || !ids["job1"] || !ids["job4"] {
		t.Errorf("Expected the two oldest (job1, job4), got %v", ids)
	}
}

func TestSelectRecordsForDeletion_Failed(t *testing.T) {
	now := time.Now()
	infos := []store.RecordInfo{
		{JobID: "good", Timestamp: now, Passed: true},
		{JobID: "bad", Timestamp: now, Passed: false},
	}

	toDelete := selectRecordsForDeletion(infos, 0, 0, true)
	if len(toDelete) != 1 || toDelete[0].JobID != "bad" {
		t.Errorf("Expected only the failed record, got %v", jobIDs(toDelete))
	}
}

func TestSelectRecordsForDeletion_CombinedNoDuplicates(t *testing.T) {
	now := time.Now()
	infos := []store.RecordInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5), Passed: true},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1), Passed: true},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30), Passed: true},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2), Passed: true},
	}

	// job1 matches all three rules, job4 matches age and count.
	toDelete := selectRecordsForDeletion(infos, 3, 7, true)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 records without duplicates, got %d", len(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	content := []byte("Hello, World!")
	if err := os.WriteFile(filepath.Join(tmpDir, "test.txt"), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		if result := formatBytes(tt.bytes); result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("Expected abc, got %s", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("Expected truncated ID, got %s", got)
	}
}

func TestPrintResults(t *testing.T) {
	resultStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printResults(&buf, resultStore, nil)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("Expected empty message, got %q", buf.String())
	}

	cfg := store.JobConfig{SourcePath: "s.png", TargetPath: "t.png", Width: 16, Height: 8, Params: sculpt.DefaultParams()}
	record := store.NewRecord("test-job-id", cfg, sculpt.Verdict{Score: 0.75, Threshold: 0.7, Passed: true, Emit: true}, time.Second)
	if err := resultStore.SaveRecord("test-job-id", record); err != nil {
		t.Fatal(err)
	}
	infos, err := resultStore.ListRecords()
	if err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	printResults(&buf, resultStore, infos)
	out := buf.String()
	if !strings.Contains(out, "test-job-id") || !strings.Contains(out, "0.7500") {
		t.Errorf("Expected record row in output, got %q", out)
	}
	if !strings.Contains(out, "Total results: 1") {
		t.Errorf("Expected total line, got %q", out)
	}
}

func TestCleanResults_NoFlags(t *testing.T) {
	origKeep, origOlder, origFailed := keepLast, olderThanDays, failedOnly
	keepLast, olderThanDays, failedOnly = 0, 0, false
	defer func() { keepLast, olderThanDays, failedOnly = origKeep, origOlder, origFailed }()

	if err := runCleanResults(nil, nil); err == nil {
		t.Error("Expected error when no retention flag is given")
	}
}

func TestCleanResults_Force(t *testing.T) {
	tmpDir := t.TempDir()
	resultStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := store.JobConfig{SourcePath: "s.png", TargetPath: "t.png", Width: 16, Height: 8, Params: sculpt.DefaultParams()}
	for _, id := range []string{"pass", "fail"} {
		v := sculpt.Verdict{Score: 0.9, Threshold: 0.7, Passed: id == "pass", Emit: true}
		if err := resultStore.SaveRecord(id, store.NewRecord(id, cfg, v, time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	origDir, origFailed, origForce := resultsDataDir, failedOnly, forceClean
	resultsDataDir, failedOnly, forceClean = tmpDir, true, true
	defer func() { resultsDataDir, failedOnly, forceClean = origDir, origFailed, origForce }()

	if err := runCleanResults(nil, nil); err != nil {
		t.Fatalf("runCleanResults failed: %v", err)
	}

	infos, _ := resultStore.ListRecords()
	if len(infos) != 1 || infos[0].JobID != "pass" {
		t.Errorf("Expected only the passing record to remain, got %v", jobIDs(infos))
	}
}
