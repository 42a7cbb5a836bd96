package chunk

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Downsample derives a chunk at res from the full-resolution chunk src.
//
// The result depends only on the bytes of src, so re-deriving a level always
// yields identical pixels. Requesting Full returns a private copy.
func Downsample(src *Chunk, res Resolution) (*Chunk, error) {
	if src.res != Full {
		return nil, fmt.Errorf("downsample from %s: %w", src.res, ErrResolutionMismatch)
	}
	if res == Full {
		return src.Clone()
	}
	dst, err := src.pool.Get(res)
	if err != nil {
		return nil, err
	}
	draw.BiLinear.Scale(dst.img, dst.img.Bounds(), src.img, src.img.Bounds(), draw.Src, nil)
	return dst, nil
}
