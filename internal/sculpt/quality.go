package sculpt

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"
)

// SSIMWindow is the side of the SSIM window; images must be at least this
// large in both dimensions to be scored.
const SSIMWindow = 7

// SSIM constants (Wang et al.), 7x7 uniform window over 8-bit luma.
const (
	ssimWindow = SSIMWindow
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimRange  = 255.0
	ssimC1     = (ssimK1 * ssimRange) * (ssimK1 * ssimRange)
	ssimC2     = (ssimK2 * ssimRange) * (ssimK2 * ssimRange)
)

// Luma converts img to 8-bit ITU-R 601 luma, row-major.
func Luma(img *image.NRGBA) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r, g, bl := uint32(img.Pix[i+0]), uint32(img.Pix[i+1]), uint32(img.Pix[i+2])
			out[y*w+x] = float64((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
		}
	}
	return out
}

// SSIM returns the mean structural similarity of the luma planes of a and b
// over every 7x7 window that lies fully inside the image. Window statistics
// use sample (unbiased) variances. The result is deterministic.
func SSIM(a, b *image.NRGBA) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if err := checkSameSize("ssim input", ab, bb); err != nil {
		return 0, err
	}
	w, h := ab.Dx(), ab.Dy()
	if w < ssimWindow || h < ssimWindow {
		return 0, fmt.Errorf("image %dx%d is smaller than the %dx%d SSIM window", w, h, ssimWindow, ssimWindow)
	}

	la, lb := Luma(a), Luma(b)
	xs := make([]float64, ssimWindow*ssimWindow)
	ys := make([]float64, ssimWindow*ssimWindow)

	var sum float64
	count := 0
	for y0 := 0; y0+ssimWindow <= h; y0++ {
		for x0 := 0; x0+ssimWindow <= w; x0++ {
			k := 0
			for y := y0; y < y0+ssimWindow; y++ {
				row := y * w
				for x := x0; x < x0+ssimWindow; x++ {
					xs[k] = la[row+x]
					ys[k] = lb[row+x]
					k++
				}
			}

			mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)
			vx, vy := stat.Variance(xs, nil), stat.Variance(ys, nil)
			cxy := stat.Covariance(xs, ys, nil)

			num := (2*mx*my + ssimC1) * (2*cxy + ssimC2)
			den := (mx*mx + my*my + ssimC1) * (vx + vy + ssimC2)
			sum += num / den
			count++
		}
	}
	return sum / float64(count), nil
}
