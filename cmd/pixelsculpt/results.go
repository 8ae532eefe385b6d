package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelsculpt/internal/store"
)

var (
	resultsDataDir string
	keepLast       int
	olderThanDays  int
	failedOnly     bool
	forceClean     bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage persisted job results",
	Long:  `List and clean the records and images the job server persisted.`,
}

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored results",
	RunE:  runListResults,
}

var cleanResultsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old or failed results",
	Long: `Delete stored results based on a retention policy: keep the newest N,
delete those older than N days, or delete those that failed the quality gate.`,
	RunE: runCleanResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(cleanResultsCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "", "Result directory (default from config)")

	cleanResultsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N results (0 = keep all)")
	cleanResultsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete results older than N days (0 = no age limit)")
	cleanResultsCmd.Flags().BoolVar(&failedOnly, "failed", false, "Delete results that failed the quality gate")
	cleanResultsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openResultStore() (*store.FSStore, error) {
	dir := resultsDataDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dir = cfg.Server.DataDir
	}
	fs, err := store.NewFSStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return fs, nil
}

func runListResults(cmd *cobra.Command, args []string) error {
	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	infos, err := resultStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	printResults(cmd.OutOrStdout(), resultStore, infos)
	return nil
}

func printResults(out io.Writer, resultStore *store.FSStore, infos []store.RecordInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTIMESTAMP\tSSIM\tPASSED\tSIZE")
	fmt.Fprintln(w, "------\t---------\t----\t------\t----")

	for _, info := range infos {
		sizeStr := "unknown"
		if size, err := getDirSize(filepath.Dir(resultStore.ImagePath(info.JobID, store.ResultImage))); err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%.4f\t%v\t%s\n",
			shortID(info.JobID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Score,
			info.Passed,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal results: %d\n", len(infos))
}

func runCleanResults(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 && !failedOnly {
		return fmt.Errorf("must specify --keep-last, --older-than or --failed")
	}

	resultStore, err := openResultStore()
	if err != nil {
		return err
	}

	infos, err := resultStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	toDelete := selectRecordsForDeletion(infos, keepLast, olderThanDays, failedOnly)
	if len(toDelete) == 0 {
		fmt.Println("No results match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d result(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (ssim %.4f, %s)\n",
			shortID(info.JobID),
			info.Score,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := resultStore.DeleteRecord(info.JobID); err != nil {
			slog.Error("Failed to delete result", "job_id", info.JobID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted result", "job_id", info.JobID)
		deleted++
	}

	fmt.Printf("\nDeleted %d result(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRecordsForDeletion applies the retention policy. A record selected by
// more than one rule is returned once.
func selectRecordsForDeletion(infos []store.RecordInfo, keepLast, olderThanDays int, failed bool) []store.RecordInfo {
	selected := make(map[string]bool)
	var toDelete []store.RecordInfo
	add := func(info store.RecordInfo) {
		if !selected[info.JobID] {
			selected[info.JobID] = true
			toDelete = append(toDelete, info)
		}
	}

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				add(info)
			}
		}
	}

	if failed {
		for _, info := range infos {
			if !info.Passed {
				add(info)
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RecordInfo, len(infos))
		copy(sorted, infos)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		})
		for _, info := range sorted[keepLast:] {
			add(info)
		}
	}

	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
