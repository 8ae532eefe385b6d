package sculpt

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Refine applies the best-effort finishing filters: a per-channel Gaussian
// blur with the given sigma followed by a contrast boost around the mean
// luminance. sigma <= 0 skips the blur, factor == 1 skips the contrast step.
func Refine(img *image.NRGBA, sigma, factor float64) *image.NRGBA {
	out := img
	if sigma > 0 {
		out = imaging.Blur(out, sigma)
	}
	if factor != 1 {
		out = AdjustContrast(out, factor)
	}
	return out
}

// AdjustContrast scales every channel's distance from the image's mean gray
// level by factor. factor 0 yields a flat gray image, 1 the input.
func AdjustContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := math.Floor(meanLuma(img) + 0.5)
	stretch := func(v uint8) uint8 {
		return clampByte(mean + factor*(float64(v)-mean))
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

func meanLuma(img *image.NRGBA) float64 {
	l := Luma(img)
	if len(l) == 0 {
		return 0
	}
	var sum float64
	for _, v := range l {
		sum += v
	}
	return sum / float64(len(l))
}
