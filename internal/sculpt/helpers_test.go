package sculpt

import (
	"image"
	"image/color"
	"math/rand"
	"sort"
	"testing"
)

var colorZero = color.NRGBA{0, 0, 0, 255}

// solidImage returns a w x h image filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// randomImage returns an opaque image with reproducible random pixels.
func randomImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

// gradientImage returns a smooth diagonal gradient, useful as a structured target.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / (w - 1)),
				G: uint8(y * 255 / (h - 1)),
				B: uint8((x + y) * 255 / (w + h - 2)),
				A: 255,
			})
		}
	}
	return img
}

// blockColors returns the sorted RGB triples of one block.
func blockColors(img *image.NRGBA, blk Block) [][3]uint8 {
	var out [][3]uint8
	for y := blk.Y; y < blk.Y+blk.Size; y++ {
		for x := blk.X; x < blk.X+blk.Size; x++ {
			i := img.PixOffset(x, y)
			out = append(out, [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		pa, pb := out[a], out[b]
		if pa[0] != pb[0] {
			return pa[0] < pb[0]
		}
		if pa[1] != pb[1] {
			return pa[1] < pb[1]
		}
		return pa[2] < pb[2]
	})
	return out
}

func uniqueColors(img *image.NRGBA) int {
	seen := make(map[[3]uint8]bool)
	for i := 0; i < len(img.Pix); i += 4 {
		seen[[3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}] = true
	}
	return len(seen)
}

func assertSameBlockContents(t *testing.T, got, want *image.NRGBA, blk Block) {
	t.Helper()
	g, w := blockColors(got, blk), blockColors(want, blk)
	for i := range w {
		if g[i] != w[i] {
			t.Fatalf("Block (%d,%d): pixel multiset differs at sorted index %d: got %v, want %v", blk.X, blk.Y, i, g[i], w[i])
		}
	}
}
