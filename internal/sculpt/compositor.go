package sculpt

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	scaleFull = "full"
	scaleHalf = "half"
)

// Composite runs the block transport at full and (optionally) half
// resolution and blends the two results. Both images must already share
// dimensions that are multiples of the block size (twice the block size
// when the half-scale pass is enabled).
func Composite(matched, target *image.NRGBA, p Params) (*image.NRGBA, error) {
	if err := checkSameSize("composite target", matched.Bounds(), target.Bounds()); err != nil {
		return nil, err
	}
	if !p.MultiScale {
		return transportPass(matched, target, p, scaleFull)
	}

	w, h := matched.Bounds().Dx(), matched.Bounds().Dy()
	if _, err := Tiles(w/2, h/2, p.BlockSize); err != nil {
		return nil, err
	}

	var full, half *image.NRGBA
	var g errgroup.Group
	g.Go(func() error {
		var err error
		full, err = transportPass(matched, target, p, scaleFull)
		return err
	})
	g.Go(func() error {
		srcHalf := imaging.Resize(matched, w/2, h/2, imaging.Lanczos)
		tgtHalf := imaging.Resize(target, w/2, h/2, imaging.Lanczos)
		res, err := transportPass(srcHalf, tgtHalf, p, scaleHalf)
		if err != nil {
			return err
		}
		half = imaging.Resize(res, w, h, imaging.Lanczos)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Blend(full, half, p.FullWeight, p.HalfWeight)
}

// transportPass rearranges every block of src toward the matching block of tgt.
func transportPass(src, tgt *image.NRGBA, p Params, scale string) (*image.NRGBA, error) {
	src, tgt = originNRGBA(src), originNRGBA(tgt)
	if err := checkSameSize(scale+"-scale target", src.Bounds(), tgt.Bounds()); err != nil {
		return nil, err
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	blocks, err := Tiles(w, h, p.BlockSize)
	if err != nil {
		return nil, err
	}

	srcFeat := FeatureMapOf(src)
	tgtFeat := FeatureMapOf(tgt)
	weights := p.CostWeights()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	err = forEachBlock(blocks, p.workers(), func(blk Block) error {
		cost, err := BuildCostMatrix(src, tgt, srcFeat, tgtFeat, blk, blk, weights)
		if err != nil {
			return &BlockError{Scale: scale, Block: blk, Err: err}
		}
		a, err := Assign(cost)
		if err != nil {
			return &BlockError{Scale: scale, Block: blk, Err: err}
		}
		if err := RearrangeBlock(out, src, blk, blk, a); err != nil {
			return &BlockError{Scale: scale, Block: blk, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Transport pass complete", "scale", scale, "width", w, "height", h, "blocks", len(blocks))
	return out, nil
}

// Blend computes wa·a + wb·b per channel, rounded and clamped to 8 bits.
// The result is opaque.
func Blend(a, b *image.NRGBA, wa, wb float64) (*image.NRGBA, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if err := checkSameSize("blend input", ab, bb); err != nil {
		return nil, err
	}

	w, h := ab.Dx(), ab.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ai := a.PixOffset(ab.Min.X+x, ab.Min.Y+y)
			bi := b.PixOffset(bb.Min.X+x, bb.Min.Y+y)
			oi := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				out.Pix[oi+c] = clampByte(wa*float64(a.Pix[ai+c]) + wb*float64(b.Pix[bi+c]))
			}
			out.Pix[oi+3] = 255
		}
	}
	return out, nil
}

// originNRGBA returns img itself when it already starts at (0,0), otherwise
// an origin-based copy.
func originNRGBA(img *image.NRGBA) *image.NRGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}

// toRGB converts any image to an opaque origin-based NRGBA copy.
func toRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}
