package tiled

import (
	"context"
	"image"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
)

// GetCommittedChunk returns the committed chunk at coord and resolution res,
// or nil if no chunk exists there.
//
// Lower levels are derived from the full-resolution chunk on first request and
// cached. If two holders of the same table race to derive a level, the first
// published chunk wins and the other is released. The returned chunk is
// borrowed: it stays valid until the image is next mutated unless the caller
// retains it.
func (img *Image) GetCommittedChunk(coord image.Point, res chunk.Resolution) (*chunk.Chunk, error) {
	if !res.Valid() {
		return nil, chunk.ErrInvalidResolution
	}
	t := img.tbl
	full := t.levels[chunk.Full][coord]
	if res == chunk.Full || full == nil {
		return full, nil
	}

	t.mu.Lock()
	cached, ok := t.levels[res][coord]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	derived, err := chunk.Downsample(full, res)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.levels[res][coord]; ok {
		derived.Release()
		return existing, nil
	}
	t.levels[res][coord] = derived
	return derived, nil
}

// GetLatestChunk returns the chunk at coord including uncommitted changes.
// Chunks without uncommitted changes come from committed storage.
func (img *Image) GetLatestChunk(coord image.Point, res chunk.Resolution) (*chunk.Chunk, error) {
	if !res.Valid() {
		return nil, chunk.ErrInvalidResolution
	}
	full, ok := img.overlay[chunk.Full][coord]
	if !ok {
		return img.GetCommittedChunk(coord, res)
	}
	if res == chunk.Full {
		return full, nil
	}
	if cached, ok := img.overlay[res][coord]; ok {
		return cached, nil
	}
	derived, err := chunk.Downsample(full, res)
	if err != nil {
		return nil, err
	}
	img.overlay[res][coord] = derived
	return derived, nil
}

// DerivePyramid populates the cache of level res for every committed chunk.
//
// It is meant to run on a Clone in a background goroutine. Cancellation is
// checked between chunks; a chunk is either fully derived and published or
// not published at all.
func (img *Image) DerivePyramid(ctx context.Context, res chunk.Resolution) (int, error) {
	if res == chunk.Full {
		return 0, nil
	}
	coords := make([]image.Point, 0, len(img.tbl.levels[chunk.Full]))
	for coord := range img.tbl.levels[chunk.Full] {
		coords = append(coords, coord)
	}
	derived := 0
	for _, coord := range coords {
		if err := ctx.Err(); err != nil {
			return derived, err
		}
		if _, err := img.GetCommittedChunk(coord, res); err != nil {
			return derived, err
		}
		derived++
	}
	return derived, nil
}

// CachedLevelCount returns how many chunks are cached at res.
func (img *Image) CachedLevelCount(res chunk.Resolution) int {
	img.tbl.mu.Lock()
	defer img.tbl.mu.Unlock()
	return len(img.tbl.levels[res])
}
