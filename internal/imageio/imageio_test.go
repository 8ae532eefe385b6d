package imageio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTestImage writes a w x h PNG with a horizontal ramp.
func createTestImage(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 255 / w), 100, 50, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestLoadResizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	createTestImage(t, path, 50, 30)

	img, err := Load(path, 128, 64)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 128, 64) {
		t.Errorf("Expected 128x64 origin-based bounds, got %v", img.Bounds())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png"), 8, 8); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFitForcesOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.NRGBA{10, 20, 30, 0})

	out := Fit(src, 4, 4)
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 255 {
			t.Fatalf("Expected alpha 255, got %d", out.Pix[i])
		}
	}
	if c := out.NRGBAAt(1, 1); c.R != 10 || c.G != 20 || c.B != 30 {
		t.Errorf("Color channels should be kept, got %v", c)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}

	data, err := PNGBytes(src)
	if err != nil {
		t.Fatalf("PNGBytes failed: %v", err)
	}
	out, err := DecodeBytes(data, 16, 8)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Error("PNG round trip at the same size should be lossless")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image"), 8, 8); err == nil {
		t.Error("Expected decode error")
	}
}

func TestDiffImage(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	b := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	a.Set(0, 0, color.NRGBA{255, 255, 255, 255})
	b.Set(0, 0, color.NRGBA{0, 0, 0, 255})

	diff := DiffImage(a, b)
	if got := diff.NRGBAAt(0, 0); got.R != 255 || got.G != 0 {
		t.Errorf("Expected full red for maximal difference, got %v", got)
	}
	if got := diff.NRGBAAt(1, 0); got.R != 0 {
		t.Errorf("Expected black for equal pixels, got %v", got)
	}
}

func TestLoadAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.png")
	createTestImage(t, path, 16, 16)

	f := LoadAsync(path, 16, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	img, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !f.Ready() {
		t.Error("Future should be ready after Wait returns")
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("Expected 16x8, got %v", img.Bounds())
	}
}

func TestFutureWaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := Go(func() (*image.NRGBA, error) {
		<-release
		return nil, nil
	})
	if f.Ready() {
		t.Fatal("Future should not be ready before the load returns")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestResolvedFuture(t *testing.T) {
	want := errors.New("boom")
	f := Resolved(nil, want)
	if !f.Ready() {
		t.Fatal("Resolved future should be ready")
	}
	if _, err := f.Wait(context.Background()); !errors.Is(err, want) {
		t.Errorf("Expected stored error, got %v", err)
	}
}
