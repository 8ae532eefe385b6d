package sculpt

import (
	"image"
	"math"
	"sort"
)

// MatchHistogram reshapes each channel of source so its value distribution
// follows the same channel of target. R, G and B are matched independently;
// only the marginals are guaranteed to match.
func MatchHistogram(source, target *image.NRGBA) (*image.NRGBA, error) {
	sb, tb := source.Bounds(), target.Bounds()
	if err := checkSameSize("histogram target", sb, tb); err != nil {
		return nil, err
	}

	w, h := sb.Dx(), sb.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for c := 0; c < 3; c++ {
		srcValues, srcCDF := channelCDF(source, c)
		tgtValues, tgtCDF := channelCDF(target, c)

		// Every source intensity is one of srcValues, so a table covers the channel.
		var lut [256]uint8
		for k, v := range srcValues {
			lut[int(v)] = clampByte(interp(srcCDF[k], tgtCDF, tgtValues))
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				si := source.PixOffset(sb.Min.X+x, sb.Min.Y+y)
				di := out.PixOffset(x, y)
				out.Pix[di+c] = lut[source.Pix[si+c]]
			}
		}
	}

	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out, nil
}

// channelCDF returns the sorted unique intensities of channel c and their
// cumulative frequencies normalized to [0, 1].
func channelCDF(img *image.NRGBA, c int) (values, cdf []float64) {
	b := img.Bounds()
	var counts [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[img.Pix[img.PixOffset(x, y)+c]]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	cum := 0
	for v, n := range counts {
		if n == 0 {
			continue
		}
		cum += n
		values = append(values, float64(v))
		cdf = append(cdf, float64(cum)/total)
	}
	return values, cdf
}

// interp evaluates the piecewise-linear function through (xp[i], fp[i]) at x.
// xp must be increasing. Values outside the knots clamp to the end values.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if n == 0 {
		return 0
	}
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}

	i := sort.SearchFloat64s(xp, x)
	if xp[i] == x {
		return fp[i]
	}
	t := (x - xp[i-1]) / (xp[i] - xp[i-1])
	return fp[i-1] + t*(fp[i]-fp[i-1])
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
