// Package imageio acquires images for the engine: decoding, resizing to the
// working resolution, PNG encoding and asynchronous loading.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// Load opens and decodes an image file and resizes it to width x height.
func Load(path string, width, height int) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return Fit(img, width, height), nil
}

// Decode reads an encoded image (PNG, JPEG, GIF, BMP or TIFF) and resizes it
// to width x height.
func Decode(r io.Reader, width, height int) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return Fit(img, width, height), nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte, width, height int) (*image.NRGBA, error) {
	return Decode(bytes.NewReader(data), width, height)
}

// Fit converts img to opaque RGB and resamples it to exactly width x height
// with a Lanczos filter. The aspect ratio is not preserved.
func Fit(img image.Image, width, height int) *image.NRGBA {
	var out *image.NRGBA
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		out = imaging.Clone(img)
	} else {
		out = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// PNGBytes encodes img as PNG into memory.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// DiffImage creates a false-color difference image: black = no difference,
// red = large difference. Both images must have the same size.
func DiffImage(a, b *image.NRGBA) *image.NRGBA {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := min(ab.Dx(), bb.Dx()), min(ab.Dy(), bb.Dy())
	diff := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := a.NRGBAAt(ab.Min.X+x, ab.Min.Y+y)
			q := b.NRGBAAt(bb.Min.X+x, bb.Min.Y+y)

			dr := float64(p.R) - float64(q.R)
			dg := float64(p.G) - float64(q.G)
			db := float64(p.B) - float64(q.B)

			// Max magnitude is 255·√3 ≈ 441.7
			mag := math.Sqrt(dr*dr + dg*dg + db*db)
			v := uint8(math.Min(255, math.Round(mag*255/441.673)))

			diff.SetNRGBA(x, y, color.NRGBA{v, 0, 0, 255})
		}
	}
	return diff
}
