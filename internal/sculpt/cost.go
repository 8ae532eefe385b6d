package sculpt

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CostWeights trades pixel displacement and structure disagreement against
// color fidelity.
type CostWeights struct {
	Spatial float64
	Feature float64
}

// BuildCostMatrix builds the (L²×L²) cost matrix for one pair of blocks.
// Row i is the target slot (ty, tx) = (i/L, i%L), column j the source
// position (sy, sx) = (j/L, j%L):
//
//	cost = ‖src[sy,sx] − tgt[ty,tx]‖ + Spatial·‖(sy,sx) − (ty,tx)‖ + Feature·|fs[sy,sx] − ft[ty,tx]|
func BuildCostMatrix(src, tgt *image.NRGBA, srcFeat, tgtFeat *FeatureMap, sb, tb Block, w CostWeights) (*mat.Dense, error) {
	if sb.Size != tb.Size {
		return nil, &DimensionMismatchError{
			What: "target block",
			Want: image.Pt(sb.Size, sb.Size),
			Got:  image.Pt(tb.Size, tb.Size),
		}
	}
	if err := checkSameSize("source feature map", src.Bounds(), srcFeat.Bounds()); err != nil {
		return nil, err
	}
	if err := checkSameSize("target feature map", tgt.Bounds(), tgtFeat.Bounds()); err != nil {
		return nil, err
	}
	if !sb.Rect().In(srcFeat.Bounds()) || !tb.Rect().In(tgtFeat.Bounds()) {
		return nil, fmt.Errorf("%w: block outside image bounds", ErrDimensionMismatch)
	}

	size := sb.Size
	n := size * size
	srcPix := blockPixels(src, srcFeat, sb)
	tgtPix := blockPixels(tgt, tgtFeat, tb)

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		ty, tx := i/size, i%size
		t := tgtPix[i]
		row := data[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			sy, sx := j/size, j%size
			s := srcPix[j]

			dr, dg, db := s.r-t.r, s.g-t.g, s.b-t.b
			colorCost := math.Sqrt(dr*dr + dg*dg + db*db)

			dy, dx := float64(sy-ty), float64(sx-tx)
			spatialCost := math.Sqrt(dy*dy + dx*dx)

			featureCost := math.Abs(s.feat - t.feat)

			row[j] = colorCost + w.Spatial*spatialCost + w.Feature*featureCost
		}
	}
	return mat.NewDense(n, n, data), nil
}

type blockPixel struct {
	r, g, b float64
	feat    float64
}

// blockPixels extracts a block's pixels and features in row-major slot order.
// Feature maps are origin-based; the image may not be.
func blockPixels(img *image.NRGBA, feat *FeatureMap, blk Block) []blockPixel {
	origin := img.Bounds().Min
	out := make([]blockPixel, 0, blk.Area())
	for y := blk.Y; y < blk.Y+blk.Size; y++ {
		for x := blk.X; x < blk.X+blk.Size; x++ {
			i := img.PixOffset(origin.X+x, origin.Y+y)
			out = append(out, blockPixel{
				r:    float64(img.Pix[i+0]),
				g:    float64(img.Pix[i+1]),
				b:    float64(img.Pix[i+2]),
				feat: feat.At(x, y),
			})
		}
	}
	return out
}
