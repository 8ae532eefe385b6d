package sculpt

import (
	"bytes"
	"errors"
	"testing"
)

func TestTiles(t *testing.T) {
	blocks, err := Tiles(24, 16, 8)
	if err != nil {
		t.Fatalf("Tiles failed: %v", err)
	}
	if len(blocks) != 6 {
		t.Fatalf("Expected 6 blocks, got %d", len(blocks))
	}
	if blocks[0] != (Block{X: 0, Y: 0, Size: 8}) || blocks[5] != (Block{X: 16, Y: 8, Size: 8}) {
		t.Errorf("Unexpected tiling order: %v", blocks)
	}

	if _, err := Tiles(20, 16, 8); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for 20x16, got %v", err)
	}
	if _, err := Tiles(16, 16, 0); err == nil {
		t.Error("Expected error for zero block size")
	}
}

func TestForEachBlockReportsFailingTile(t *testing.T) {
	blocks, err := Tiles(16, 16, 8)
	if err != nil {
		t.Fatal(err)
	}
	failing := Block{X: 8, Y: 8, Size: 8}

	err = forEachBlock(blocks, 2, func(blk Block) error {
		if blk == failing {
			return &BlockError{Scale: scaleFull, Block: blk, Err: &SolverError{Reason: "no augmenting path"}}
		}
		return nil
	})

	var be *BlockError
	if !errors.As(err, &be) {
		t.Fatalf("Expected *BlockError, got %T (%v)", err, err)
	}
	if be.Block != failing {
		t.Errorf("Expected failing block %v, got %v", failing, be.Block)
	}
	if be.Scale != scaleFull {
		t.Errorf("Expected scale %s, got %s", scaleFull, be.Scale)
	}
	if !errors.Is(err, ErrSolverFailure) {
		t.Errorf("Expected ErrSolverFailure through Unwrap, got %v", err)
	}
}

func TestBlendIdempotentOnEqualInputs(t *testing.T) {
	img := randomImage(16, 8, 51)

	out, err := Blend(img, img, 0.7, 0.3)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("Blending an image with itself should reproduce it exactly")
	}
}

func TestBlendWeights(t *testing.T) {
	a := solidImage(2, 2, colorZero)
	b := solidImage(2, 2, colorZero)
	a.Pix[0], b.Pix[0] = 100, 200

	out, err := Blend(a, b, 0.7, 0.3)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	if out.Pix[0] != 130 {
		t.Errorf("Expected 0.7*100+0.3*200 = 130, got %d", out.Pix[0])
	}

	if _, err := Blend(a, randomImage(4, 2, 1), 0.5, 0.5); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFullScalePassPreservesBlockContents(t *testing.T) {
	src, tgt := randomImage(32, 16, 61), gradientImage(32, 16)
	p := DefaultParams()
	p.MultiScale = false
	p.Workers = 3

	out, err := Composite(src, tgt, p)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	blocks, _ := Tiles(32, 16, p.BlockSize)
	for _, blk := range blocks {
		assertSameBlockContents(t, out, src, blk)
	}
}

func TestCompositeRejectsUntileableHalfScale(t *testing.T) {
	// 24x16 tiles at full scale but 12x8 does not tile with 8x8 blocks.
	src, tgt := randomImage(24, 16, 1), randomImage(24, 16, 2)

	_, err := Composite(src, tgt, DefaultParams())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCompositeKeepsDimensions(t *testing.T) {
	src, tgt := randomImage(32, 16, 71), gradientImage(32, 16)

	out, err := Composite(src, tgt, DefaultParams())
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("Expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
}

func TestRefineSkipsNeutralSettings(t *testing.T) {
	img := randomImage(8, 8, 81)

	out := Refine(img, 0, 1)
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("Refine with sigma 0 and factor 1 should not change the image")
	}
}

func TestAdjustContrastAroundMean(t *testing.T) {
	img := solidImage(2, 1, colorZero)
	img.Pix[0], img.Pix[1], img.Pix[2] = 100, 100, 100
	img.Pix[4], img.Pix[5], img.Pix[6] = 200, 200, 200

	flat := AdjustContrast(img, 0)
	if flat.Pix[0] != 150 || flat.Pix[4] != 150 {
		t.Errorf("Factor 0 should collapse to the mean 150, got %d and %d", flat.Pix[0], flat.Pix[4])
	}

	boosted := AdjustContrast(img, 1.2)
	if boosted.Pix[0] != 90 || boosted.Pix[4] != 210 {
		t.Errorf("Factor 1.2 should stretch to 90 and 210, got %d and %d", boosted.Pix[0], boosted.Pix[4])
	}
}
