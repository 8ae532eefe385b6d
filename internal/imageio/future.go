package imageio

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// Future is the pending result of an asynchronous image load.
// It is resolved exactly once; Wait may be called any number of times.
type Future struct {
	done chan struct{}
	img  *image.NRGBA
	err  error
}

// LoadAsync starts loading path in the background and returns immediately.
func LoadAsync(path string, width, height int) *Future {
	return Go(func() (*image.NRGBA, error) {
		start := time.Now()
		img, err := Load(path, width, height)
		if err != nil {
			slog.Error("Image load failed", "path", path, "error", err)
			return nil, err
		}
		slog.Info("Image loaded", "path", path, "width", width, "height", height, "elapsed", time.Since(start))
		return img, nil
	})
}

// Go runs load on its own goroutine and returns its future.
func Go(load func() (*image.NRGBA, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.img, f.err = load()
	}()
	return f
}

// Resolved returns an already completed future.
func Resolved(img *image.NRGBA, err error) *Future {
	f := &Future{done: make(chan struct{}), img: img, err: err}
	close(f.done)
	return f
}

// Wait blocks until the load finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) (*image.NRGBA, error) {
	select {
	case <-f.done:
		return f.img, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether the load has finished (successfully or not).
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
