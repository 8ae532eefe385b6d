// Package sculpt rearranges a source image's own pixels so that its local
// structure approximates a target image.
//
// The pipeline is: per-channel histogram matching, block-wise optimal
// assignment at full and half resolution with a weighted blend, optional
// smoothing and contrast refinement, and an SSIM quality gate. Transform is a
// pure function of (source, target, params); it keeps no state between calls.
package sculpt

import (
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Stage names a step of the pipeline for observers.
type Stage string

const (
	StageHistogram Stage = "histogram"
	StageComposite Stage = "composite"
	StageRefine    Stage = "refine"
	StageQuality   Stage = "quality"
)

// Stages lists the pipeline steps in execution order.
func Stages() []Stage {
	return []Stage{StageHistogram, StageComposite, StageRefine, StageQuality}
}

// StageObserver is notified after each completed stage.
type StageObserver func(stage Stage, elapsed time.Duration)

// Result is the output of one transformation.
type Result struct {
	Image   *image.NRGBA
	Verdict Verdict
	Elapsed time.Duration
}

// Score returns the SSIM of the output against the target.
func (r *Result) Score() float64 {
	return r.Verdict.Score
}

// Engine runs the pipeline with a fixed parameter set.
// It is safe for concurrent use.
type Engine struct {
	params   Params
	observer StageObserver
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a stage observer.
func WithObserver(fn StageObserver) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// NewEngine validates p and returns an engine.
func NewEngine(p Params, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: p}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns the engine's parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Transform is shorthand for NewEngine(p) followed by Transform.
func Transform(source, target image.Image, p Params) (*Result, error) {
	e, err := NewEngine(p)
	if err != nil {
		return nil, err
	}
	return e.Transform(source, target)
}

// Transform restructures source toward target. Both images must have the
// same dimensions, multiples of the block size. A low quality score is
// reported in the verdict, not as an error.
func (e *Engine) Transform(source, target image.Image) (*Result, error) {
	start := time.Now()
	p := e.params

	src, tgt := toRGB(source), toRGB(target)
	if err := checkSameSize("target image", src.Bounds(), tgt.Bounds()); err != nil {
		return nil, err
	}

	stageStart := time.Now()
	matched, err := MatchHistogram(src, tgt)
	if err != nil {
		return nil, fmt.Errorf("failed to match histograms: %w", err)
	}
	e.stageDone(StageHistogram, stageStart)

	stageStart = time.Now()
	out, err := Composite(matched, tgt, p)
	if err != nil {
		return nil, fmt.Errorf("failed to composite: %w", err)
	}
	e.stageDone(StageComposite, stageStart)

	if p.Refine {
		stageStart = time.Now()
		out = Refine(out, p.SmoothSigma, p.ContrastFactor)
		e.stageDone(StageRefine, stageStart)
	}

	stageStart = time.Now()
	verdict, err := p.Gate().Evaluate(out, tgt)
	if err != nil {
		return nil, fmt.Errorf("failed to score output: %w", err)
	}
	e.stageDone(StageQuality, stageStart)

	elapsed := time.Since(start)
	if verdict.Passed {
		slog.Info("Transform complete", "ssim", verdict.Score, "threshold", verdict.Threshold, "elapsed", elapsed)
	} else {
		slog.Warn("SSIM below threshold", "ssim", verdict.Score, "threshold", verdict.Threshold, "emit", verdict.Emit, "elapsed", elapsed)
	}

	return &Result{Image: out, Verdict: verdict, Elapsed: elapsed}, nil
}

func (e *Engine) stageDone(stage Stage, start time.Time) {
	elapsed := time.Since(start)
	slog.Debug("Stage complete", "stage", stage, "elapsed", elapsed)
	if e.observer != nil {
		e.observer(stage, elapsed)
	}
}
