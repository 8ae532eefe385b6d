package sculpt

import (
	"image"
	"math"
)

// FeatureMap holds one gradient magnitude per pixel, row-major.
type FeatureMap struct {
	Width  int
	Height int
	Data   []float64
}

// At returns the feature value at (x, y).
func (f *FeatureMap) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Bounds returns the map's extent as an origin-based rectangle.
func (f *FeatureMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// FeatureMapOf computes the gradient-magnitude map of img.
//
// Intensity is the unweighted mean of R, G and B. Interior gradients use
// central differences, border pixels use one-sided differences.
func FeatureMapOf(img *image.NRGBA) *FeatureMap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			gray[y*w+x] = (float64(img.Pix[i+0]) + float64(img.Pix[i+1]) + float64(img.Pix[i+2])) / 3
		}
	}

	fm := &FeatureMap{Width: w, Height: h, Data: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := axisDiff(gray, y*w, x, w, 1)
			gy := axisDiff(gray, x, y, h, w)
			fm.Data[y*w+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return fm
}

// axisDiff is the finite difference at position pos along a line of n samples
// starting at base with the given stride.
func axisDiff(v []float64, base, pos, n, stride int) float64 {
	switch {
	case n < 2:
		return 0
	case pos == 0:
		return v[base+stride] - v[base]
	case pos == n-1:
		return v[base+(n-1)*stride] - v[base+(n-2)*stride]
	default:
		return (v[base+(pos+1)*stride] - v[base+(pos-1)*stride]) / 2
	}
}
