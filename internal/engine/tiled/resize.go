package tiled

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
)

// Resize changes the canvas size.
//
// Chunks entirely outside the new canvas are released. Chunks straddling the
// new edge keep their overlapping pixels byte-for-byte and have the pixels
// beyond the edge cleared. The overlay must be empty.
func (img *Image) Resize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("resize to %v: %w", size, ErrInvalidSize)
	}
	if img.HasUncommitted() {
		return ErrUncommittedChanges
	}
	canvas := image.Rectangle{Max: size}
	img.ensureUniqueTable()
	img.tbl.mu.Lock()
	defer img.tbl.mu.Unlock()
	full := img.tbl.levels[chunk.Full]
	for coord, c := range full {
		bounds := chunk.Bounds(coord)
		if !bounds.Overlaps(canvas) {
			c.Release()
			delete(full, coord)
			img.tbl.levels.dropDerived(coord)
			continue
		}
		if bounds.In(canvas) {
			continue
		}
		u, err := chunk.MakeUniqueIfShared(c)
		if err != nil {
			return fmt.Errorf("resize chunk %v: %w", coord, err)
		}
		full[coord] = u
		clearOutside(u.Image(), canvas.Sub(bounds.Min))
		img.tbl.levels.dropDerived(coord)
	}
	img.size = size
	return nil
}

// clearOutside makes every pixel of dst outside keep transparent.
func clearOutside(dst *image.RGBA, keep image.Rectangle) {
	b := dst.Bounds()
	keep = keep.Intersect(b)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, keep.Min.Y),
		image.Rect(b.Min.X, keep.Max.Y, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, keep.Min.Y, keep.Min.X, keep.Max.Y),
		image.Rect(keep.Max.X, keep.Min.Y, b.Max.X, keep.Max.Y),
	} {
		if !r.Empty() {
			draw.Draw(dst, r, image.Transparent, image.Point{}, draw.Src)
		}
	}
}

// RestoreChunksFrom replaces the committed chunks at coords with those of src,
// which is normally a Clone taken before a change. Coordinates where src has
// no chunk lose their chunk. The overlay must be empty. It returns coords.
func (img *Image) RestoreChunksFrom(src *Image, coords chunk.Set) (chunk.Set, error) {
	if img.HasUncommitted() {
		return nil, ErrUncommittedChanges
	}
	if len(coords) == 0 {
		return coords, nil
	}
	img.ensureUniqueTable()
	img.tbl.mu.Lock()
	defer img.tbl.mu.Unlock()
	full := img.tbl.levels[chunk.Full]
	for coord := range coords {
		if old := full[coord]; old != nil {
			old.Release()
			delete(full, coord)
		}
		img.tbl.levels.dropDerived(coord)
		if c := src.tbl.levels[chunk.Full][coord]; c != nil {
			full[coord] = c.Retain()
		}
	}
	return coords, nil
}

// ExportChunks returns a copy of the raw committed full-resolution pixels per
// chunk coordinate.
func (img *Image) ExportChunks() map[image.Point][]byte {
	out := make(map[image.Point][]byte, len(img.tbl.levels[chunk.Full]))
	for coord, c := range img.tbl.levels[chunk.Full] {
		out[coord] = append([]byte(nil), c.Image().Pix...)
	}
	return out
}

// ImportChunk stores raw full-resolution pixels as the committed chunk at coord.
// The chunk must overlap the canvas.
func (img *Image) ImportChunk(coord image.Point, pix []byte) error {
	if !chunk.Bounds(coord).Overlaps(img.CanvasBounds()) {
		return fmt.Errorf("chunk %v: %w", coord, ErrChunkOutsideCanvas)
	}
	if len(pix) != chunk.Size*chunk.Size*4 {
		return fmt.Errorf("chunk %v has %d bytes: %w", coord, len(pix), ErrInvalidChunkData)
	}
	c, err := img.pool.Get(chunk.Full)
	if err != nil {
		return err
	}
	copy(c.Image().Pix, pix)
	img.ensureUniqueTable()
	img.tbl.mu.Lock()
	defer img.tbl.mu.Unlock()
	if old := img.tbl.levels[chunk.Full][coord]; old != nil {
		old.Release()
	}
	img.tbl.levels[chunk.Full][coord] = c
	img.tbl.levels.dropDerived(coord)
	return nil
}
