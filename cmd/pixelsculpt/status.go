package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

// jobStatus mirrors the fields of the server's status response.
type jobStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Stage  string `json:"stage"`
	Config struct {
		SourcePath string `json:"sourcePath"`
		TargetPath string `json:"targetPath"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
	} `json:"config"`
	Verdict *struct {
		Score     float64 `json:"score"`
		Threshold float64 `json:"threshold"`
		Passed    bool    `json:"passed"`
		Emit      bool    `json:"emit"`
	} `json:"verdict"`
	Elapsed float64 `json:"elapsed"`
	Error   string  `json:"error"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(cmd.OutOrStdout(), fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(cmd.OutOrStdout(), fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func fetchJSON(url string, v interface{}) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(w io.Writer, url string) error {
	var jobs []jobStatus
	if _, err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(w, "Job ID: %s\n", job.ID)
		fmt.Fprintf(w, "  State: %s\n", job.State)
		fmt.Fprintf(w, "  Source: %s\n", job.Config.SourcePath)
		fmt.Fprintf(w, "  Target: %s\n", job.Config.TargetPath)
		if job.Verdict != nil {
			fmt.Fprintf(w, "  SSIM: %.4f\n", job.Verdict.Score)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func getJobStatus(w io.Writer, url, jobID string) error {
	var status jobStatus
	code, err := fetchJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Job: %s\n", status.ID)
	fmt.Fprintf(w, "State: %s\n", status.State)
	if status.Stage != "" && status.State == "running" {
		fmt.Fprintf(w, "Last stage: %s\n", status.Stage)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Source: %s\n", status.Config.SourcePath)
	fmt.Fprintf(w, "  Target: %s\n", status.Config.TargetPath)
	fmt.Fprintf(w, "  Size: %dx%d\n", status.Config.Width, status.Config.Height)
	fmt.Fprintln(w)

	if v := status.Verdict; v != nil {
		fmt.Fprintln(w, "Quality:")
		fmt.Fprintf(w, "  SSIM: %.4f (threshold %.2f)\n", v.Score, v.Threshold)
		fmt.Fprintf(w, "  Passed: %v, emitted: %v\n", v.Passed, v.Emit)
	}

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(w, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if status.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", status.Error)
	}
	return nil
}
