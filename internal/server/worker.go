package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/cwbudde/pixelsculpt/internal/imageio"
	"github.com/cwbudde/pixelsculpt/internal/sculpt"
	"github.com/cwbudde/pixelsculpt/internal/store"
)

// runJob executes a transformation job. Stage events are broadcast as the
// pipeline advances. If resultStore is not nil, the record, the output and
// difference images, and the stage trace are persisted.
func runJob(ctx context.Context, jm *JobManager, resultStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateRunning, Timestamp: time.Now()})

	cfg := job.Config
	slog.Info("Starting job", "job_id", jobID, "source", cfg.SourcePath, "target", cfg.TargetPath)

	// Both images decode concurrently.
	source := imageio.LoadAsync(cfg.SourcePath, cfg.Width, cfg.Height)
	target := imageio.LoadAsync(cfg.TargetPath, cfg.Width, cfg.Height)

	src, err := source.Wait(ctx)
	if err != nil {
		return finishWithError(ctx, jm, jobID, fmt.Errorf("failed to load source: %w", err))
	}
	tgt, err := target.Wait(ctx)
	if err != nil {
		return finishWithError(ctx, jm, jobID, fmt.Errorf("failed to load target: %w", err))
	}

	var trace *store.TraceWriter
	if resultStore != nil {
		trace, err = resultStore.OpenTrace(jobID)
		if err != nil {
			slog.Warn("Failed to open trace, continuing without", "job_id", jobID, "error", err)
		}
	}

	observer := func(stage sculpt.Stage, elapsed time.Duration) {
		ms := float64(elapsed) / float64(time.Millisecond)
		if err := jm.UpdateJob(jobID, func(j *Job) { j.Stage = stage }); err != nil {
			slog.Debug("Failed to record stage", "job_id", jobID, "stage", stage, "error", err)
		}
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:     jobID,
			State:     StateRunning,
			Stage:     stage,
			ElapsedMS: ms,
			Timestamp: time.Now(),
		})
		if trace != nil {
			if err := trace.Write(store.TraceEntry{Stage: string(stage), ElapsedMS: ms, Timestamp: time.Now()}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
	}

	engine, err := sculpt.NewEngine(cfg.Params, sculpt.WithObserver(observer))
	if err != nil {
		closeTrace(trace, jobID)
		return finishWithError(ctx, jm, jobID, fmt.Errorf("invalid parameters: %w", err))
	}

	result, err := engine.Transform(src, tgt)
	closeTrace(trace, jobID)
	if err != nil {
		return finishWithError(ctx, jm, jobID, err)
	}

	if ctx.Err() != nil {
		markJobCancelled(jm, jobID)
		return ctx.Err()
	}

	diff := imageio.DiffImage(tgt, result.Image)
	verdict := result.Verdict
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Verdict = &verdict
		j.EndTime = &endTime
		j.output = result.Image
		j.diff = diff
	})
	if err != nil {
		return err
	}

	if resultStore != nil {
		if err := persistResult(resultStore, jobID, cfg, result, diff); err != nil {
			slog.Error("Failed to persist result", "job_id", jobID, "error", err)
		}
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", result.Elapsed,
		"score", verdict.Score,
		"passed", verdict.Passed,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		ElapsedMS: float64(result.Elapsed) / float64(time.Millisecond),
		Score:     &verdict.Score,
		Timestamp: time.Now(),
	})
	return nil
}

// persistResult saves the record and the image artifacts of a finished job.
// Images are written first so a listed record always has its artifacts.
func persistResult(resultStore store.Store, jobID string, cfg JobConfig, result *sculpt.Result, diff *image.NRGBA) error {
	if err := resultStore.SaveImage(jobID, store.ResultImage, result.Image); err != nil {
		return fmt.Errorf("failed to save %s: %w", store.ResultImage, err)
	}
	if err := resultStore.SaveImage(jobID, store.DiffImage, diff); err != nil {
		return fmt.Errorf("failed to save %s: %w", store.DiffImage, err)
	}

	record := store.NewRecord(jobID, cfg, result.Verdict, result.Elapsed)
	if err := record.Validate(); err != nil {
		return err
	}
	return resultStore.SaveRecord(jobID, record)
}

func closeTrace(trace *store.TraceWriter, jobID string) {
	if trace == nil {
		return
	}
	if err := trace.Close(); err != nil {
		slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
	}
}

// finishWithError marks the job cancelled when ctx is done, failed otherwise.
func finishWithError(ctx context.Context, jm *JobManager, jobID string, err error) error {
	if ctx.Err() != nil {
		markJobCancelled(jm, jobID)
		return ctx.Err()
	}
	markJobFailed(jm, jobID, err)
	return err
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateFailed, Timestamp: endTime})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateCancelled, Timestamp: endTime})
	slog.Info("Job cancelled", "job_id", jobID)
}
