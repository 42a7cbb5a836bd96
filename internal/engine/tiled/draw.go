package tiled

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
)

// SetClip restricts subsequent draws to the committed alpha of mask, which
// must have the same size as img and outlive the clip. Chunks where the mask
// has no committed chunk are fully masked out.
func (img *Image) SetClip(mask *Image) {
	img.clip = mask
}

// ClearClip removes the raster clip.
func (img *Image) ClearClip() {
	img.clip = nil
}

// Clip returns the active raster clip, or nil.
func (img *Image) Clip() *Image {
	return img.clip
}

// Draw rasterizes op into the overlay and returns the chunks it touched.
//
// Only chunks overlapping both op.Bounds() and the canvas are visited. When a
// chunk cannot be allocated the chunks drawn so far stay valid in the overlay
// and are returned together with the error.
func (img *Image) Draw(op Operation) (chunk.Set, error) {
	touched := make(chunk.Set)
	if img.disposed {
		return touched, ErrDisposed
	}
	area := op.Bounds().Intersect(img.CanvasBounds())
	if area.Empty() {
		return touched, nil
	}
	for _, coord := range chunk.CoordsIn(area) {
		var mask *chunk.Chunk
		if img.clip != nil {
			mask = img.clip.tbl.levels[chunk.Full][coord]
			if mask == nil {
				continue
			}
		}
		c, err := img.latestForWrite(coord)
		if err != nil {
			return touched, fmt.Errorf("draw chunk %v: %w", coord, err)
		}
		if err := img.drawOnChunk(c, coord, op, mask); err != nil {
			return touched, fmt.Errorf("draw chunk %v: %w", coord, err)
		}
		img.overlay.dropDerived(coord)
		touched.Add(coord)
	}
	return touched, nil
}

// latestForWrite returns a private overlay chunk for coord, seeding it from
// the committed chunk when one exists.
func (img *Image) latestForWrite(coord image.Point) (*chunk.Chunk, error) {
	c, ok := img.overlay[chunk.Full][coord]
	if !ok {
		if committed := img.tbl.levels[chunk.Full][coord]; committed != nil {
			c = committed.Retain()
		} else {
			fresh, err := img.pool.Get(chunk.Full)
			if err != nil {
				return nil, err
			}
			c = fresh
		}
		img.overlay[chunk.Full][coord] = c
	}
	u, err := chunk.MakeUniqueIfShared(c)
	if err != nil {
		return nil, err
	}
	img.overlay[chunk.Full][coord] = u
	return u, nil
}

// drawOnChunk applies op to c. Pixels outside the canvas or outside the mask
// keep their previous value.
func (img *Image) drawOnChunk(c *chunk.Chunk, coord image.Point, op Operation, mask *chunk.Chunk) error {
	bounds := chunk.Bounds(coord)
	visible := bounds.Intersect(img.CanvasBounds())
	if mask == nil && visible == bounds {
		op.DrawOnChunk(c.Image(), bounds.Min)
		return nil
	}

	scratch, err := c.Clone()
	if err != nil {
		return err
	}
	defer scratch.Release()
	op.DrawOnChunk(scratch.Image(), bounds.Min)

	local := visible.Sub(bounds.Min)
	dst, src := c.Image(), scratch.Image()
	if mask == nil {
		draw.Draw(dst, local, src, local.Min, draw.Src)
		return nil
	}
	m := mask.Image()
	for y := local.Min.Y; y < local.Max.Y; y++ {
		for x := local.Min.X; x < local.Max.X; x++ {
			i := dst.PixOffset(x, y)
			a := uint32(m.Pix[m.PixOffset(x, y)+3])
			if a == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				dst.Pix[i+k] = lerp(dst.Pix[i+k], src.Pix[i+k], a)
			}
		}
	}
	return nil
}

// lerp blends from a towards b by t/255.
func lerp(a, b uint8, t uint32) uint8 {
	if t >= 255 {
		return b
	}
	return uint8((uint32(a)*(255-t) + uint32(b)*t + 127) / 255)
}

// Commit folds the overlay into committed storage and returns the affected chunks.
func (img *Image) Commit() chunk.Set {
	affected := img.FindAffectedChunks()
	if len(affected) == 0 {
		return affected
	}
	img.ensureUniqueTable()
	img.tbl.mu.Lock()
	for coord, c := range img.overlay[chunk.Full] {
		if old := img.tbl.levels[chunk.Full][coord]; old != nil {
			old.Release()
		}
		img.tbl.levels[chunk.Full][coord] = c
		img.tbl.levels.dropDerived(coord)
		delete(img.overlay[chunk.Full], coord)
	}
	img.tbl.mu.Unlock()
	img.overlay.releaseAll()
	return affected
}

// Rollback discards the overlay and returns the chunks it covered.
func (img *Image) Rollback() chunk.Set {
	affected := img.FindAffectedChunks()
	img.overlay.releaseAll()
	return affected
}
