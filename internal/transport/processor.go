package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/pixelsculpt/internal/imageio"
	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

// Processor turns one inbound message into one outbound message.
// The target image is loaded once and shared by every message.
type Processor struct {
	engine *sculpt.Engine
	target *imageio.Future
	width  int
	height int
}

// NewProcessor creates a processor that resizes sources to width x height
// and transforms them toward the (possibly still loading) target.
func NewProcessor(engine *sculpt.Engine, target *imageio.Future, width, height int) *Processor {
	return &Processor{
		engine: engine,
		target: target,
		width:  width,
		height: height,
	}
}

// Handle decodes the source image in payload, waits for the target, runs the
// pipeline and encodes the result. When the quality gate withholds the
// result, the returned error wraps sculpt.ErrQualityRejected and the result
// is still returned for inspection.
func (p *Processor) Handle(ctx context.Context, payload []byte) ([]byte, *sculpt.Result, error) {
	source, err := imageio.DecodeBytes(DecodePayload(payload), p.width, p.height)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode source: %w", err)
	}
	slog.Debug("Source image received", "bytes", len(payload), "width", p.width, "height", p.height)

	if !p.target.Ready() {
		slog.Info("Waiting for target image")
	}
	target, err := p.target.Wait(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("target image unavailable: %w", err)
	}

	result, err := p.engine.Transform(source, target)
	if err != nil {
		return nil, nil, err
	}

	if !result.Verdict.Emit {
		return nil, result, fmt.Errorf("score %.4f below %.2f: %w",
			result.Verdict.Score, result.Verdict.Threshold, sculpt.ErrQualityRejected)
	}

	out, err := EncodeResult(result.Image)
	if err != nil {
		return nil, result, err
	}
	return out, result, nil
}
