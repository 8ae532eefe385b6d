package sculpt

import (
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

// Block is a square view into an image or feature map.
// It never owns pixel data.
type Block struct {
	X, Y int // Origin in image coordinates
	Size int // Side length
}

// Rect returns the image rectangle covered by the block.
func (b Block) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Size, b.Y+b.Size)
}

// Area returns the number of pixels in the block.
func (b Block) Area() int {
	return b.Size * b.Size
}

// Tiles enumerates the non-overlapping blocks covering a width x height grid in
// row-major order. Both dimensions must be exact multiples of size.
func Tiles(width, height, size int) ([]Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", size)
	}
	if width <= 0 || height <= 0 || width%size != 0 || height%size != 0 {
		return nil, fmt.Errorf("%w: %dx%d is not a multiple of block size %d", ErrDimensionMismatch, width, height, size)
	}

	blocks := make([]Block, 0, (width/size)*(height/size))
	for y := 0; y < height; y += size {
		for x := 0; x < width; x += size {
			blocks = append(blocks, Block{X: x, Y: y, Size: size})
		}
	}
	return blocks, nil
}

// forEachBlock runs fn for every block on at most workers goroutines.
// fn must only write to its own block's region. The first error is returned
// after all started work has finished.
func forEachBlock(blocks []Block, workers int, fn func(Block) error) error {
	var g errgroup.Group
	g.SetLimit(workers)
	for _, blk := range blocks {
		blk := blk
		g.Go(func() error {
			return fn(blk)
		})
	}
	return g.Wait()
}
