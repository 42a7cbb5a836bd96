package chunk

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// Chunk is a reference-counted square tile of premultiplied RGBA pixels.
//
// A chunk starts with one reference. Every additional owner calls Retain and
// every owner calls Release exactly once; the pixel buffer returns to its pool
// when the last reference is released. Pixels may only be written while the
// caller holds the sole reference (see MakeUniqueIfShared).
type Chunk struct {
	res  Resolution
	img  *image.RGBA
	refs atomic.Int32
	pool *Pool
}

// Resolution returns the pyramid level of the chunk.
func (c *Chunk) Resolution() Resolution {
	return c.res
}

// Image returns the chunk pixels. The image origin is (0,0).
func (c *Chunk) Image() *image.RGBA {
	return c.img
}

// PixelSize returns the side length of the chunk in pixels.
func (c *Chunk) PixelSize() int {
	return c.res.PixelSize()
}

// Retain adds a reference and returns the chunk for chaining.
func (c *Chunk) Retain() *Chunk {
	if c.refs.Add(1) <= 1 {
		panic("chunk: retain of released chunk")
	}
	return c
}

// Release drops a reference. The last release recycles the pixel buffer.
func (c *Chunk) Release() {
	n := c.refs.Add(-1)
	switch {
	case n == 0:
		c.pool.put(c)
	case n < 0:
		panic("chunk: release of released chunk")
	}
}

// RefCount returns the current number of references.
func (c *Chunk) RefCount() int {
	return int(c.refs.Load())
}

// Shared reports whether more than one owner references the chunk.
func (c *Chunk) Shared() bool {
	return c.refs.Load() > 1
}

// Hash returns the xxh3 hash of the chunk pixels.
func (c *Chunk) Hash() uint64 {
	return xxh3.Hash(c.img.Pix)
}

// Equal reports whether two chunks hold identical pixels at the same resolution.
func (c *Chunk) Equal(other *Chunk) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil || c.res != other.res {
		return false
	}
	if c.Hash() != other.Hash() {
		return false
	}
	return string(c.img.Pix) == string(other.img.Pix)
}

// IsEmpty reports whether every pixel is fully transparent.
func (c *Chunk) IsEmpty() bool {
	pix := c.img.Pix
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			return false
		}
	}
	return true
}

// Clear makes every pixel transparent. The caller must hold the only reference.
func (c *Chunk) Clear() {
	clear(c.img.Pix)
}

// CopyFrom overwrites the pixels of c with those of src.
func (c *Chunk) CopyFrom(src *Chunk) error {
	if src.res != c.res {
		return fmt.Errorf("copy %s chunk into %s chunk: %w", src.res, c.res, ErrResolutionMismatch)
	}
	copy(c.img.Pix, src.img.Pix)
	return nil
}

// Clone returns a private copy of c allocated from the same pool.
func (c *Chunk) Clone() (*Chunk, error) {
	dst, err := c.pool.Get(c.res)
	if err != nil {
		return nil, err
	}
	copy(dst.img.Pix, c.img.Pix)
	return dst, nil
}

// MakeUniqueIfShared returns a chunk the caller may write to.
//
// If c has a single owner it is returned unchanged. Otherwise a private copy is
// allocated, the caller's reference to c is released, and the copy is returned.
// On allocation failure c is returned untouched together with the error.
func MakeUniqueIfShared(c *Chunk) (*Chunk, error) {
	if !c.Shared() {
		return c, nil
	}
	dst, err := c.Clone()
	if err != nil {
		return c, err
	}
	c.Release()
	return dst, nil
}
