package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelsculpt/internal/config"
	"github.com/cwbudde/pixelsculpt/internal/imageio"
	"github.com/cwbudde/pixelsculpt/internal/sculpt"
)

var (
	sourcePath  string
	targetPath  string
	outPath     string
	diffPath    string
	imageWidth  int
	imageHeight int
	blockSize   int
	enforce     bool
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a source image toward a target",
	Long: `Loads both images at the working resolution, runs the pipeline and
writes the result. With --enforce, a result below the SSIM threshold is not
written and the command fails.`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "Source image path (required)")
	transformCmd.Flags().StringVarP(&targetPath, "target", "t", "", "Target image path (required)")
	transformCmd.Flags().StringVarP(&outPath, "out", "o", "transformed_image.png", "Output image path")
	transformCmd.Flags().StringVar(&diffPath, "diff", "", "Optional difference image path")
	transformCmd.Flags().IntVar(&imageWidth, "width", 0, "Working width (0 = config)")
	transformCmd.Flags().IntVar(&imageHeight, "height", 0, "Working height (0 = config)")
	transformCmd.Flags().IntVar(&blockSize, "block-size", 0, "Block size (0 = config)")
	transformCmd.Flags().BoolVar(&enforce, "enforce", false, "Withhold results below the quality threshold")
	transformCmd.MarkFlagRequired("source")
	transformCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(transformCmd)
}

// transformOptions is the resolved input of one transform run.
type transformOptions struct {
	SourcePath string
	TargetPath string
	OutPath    string
	DiffPath   string
	Width      int
	Height     int
	Params     sculpt.Params
}

func runTransform(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := transformOptions{
		SourcePath: sourcePath,
		TargetPath: targetPath,
		OutPath:    outPath,
		DiffPath:   diffPath,
		Width:      cfg.Image.Width,
		Height:     cfg.Image.Height,
		Params:     cfg.Engine,
	}
	if imageWidth > 0 {
		opts.Width = imageWidth
	}
	if imageHeight > 0 {
		opts.Height = imageHeight
	}
	if blockSize > 0 {
		opts.Params.BlockSize = blockSize
	}
	if enforce {
		opts.Params.EnforceThreshold = true
	}

	result, err := transformFiles(cmd.Context(), opts)
	if result != nil {
		v := result.Verdict
		fmt.Printf("SSIM: %.4f (threshold %.2f, passed: %v)\n", v.Score, v.Threshold, v.Passed)
		fmt.Printf("Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	fmt.Printf("Output written to %s\n", opts.OutPath)
	return nil
}

// transformFiles loads, transforms and writes. A withheld result is returned
// together with an error wrapping sculpt.ErrQualityRejected.
func transformFiles(ctx context.Context, opts transformOptions) (*sculpt.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if err := config.ValidateDimensions(opts.Width, opts.Height, opts.Params); err != nil {
		return nil, err
	}

	source := imageio.LoadAsync(opts.SourcePath, opts.Width, opts.Height)
	target := imageio.LoadAsync(opts.TargetPath, opts.Width, opts.Height)
	src, err := source.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	tgt, err := target.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load target: %w", err)
	}

	result, err := sculpt.Transform(src, tgt, opts.Params)
	if err != nil {
		return nil, err
	}

	if !result.Verdict.Emit {
		return result, fmt.Errorf("result not written: %w", sculpt.ErrQualityRejected)
	}

	if err := imageio.Save(result.Image, opts.OutPath); err != nil {
		return result, err
	}
	if opts.DiffPath != "" {
		if err := imageio.Save(imageio.DiffImage(tgt, result.Image), opts.DiffPath); err != nil {
			return result, err
		}
	}

	slog.Info("Transform written", "out", opts.OutPath, "ssim", result.Score())
	return result, nil
}
