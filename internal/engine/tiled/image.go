package tiled

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
)

// levels holds one chunk map per pyramid level.
type levels [chunk.LevelCount]map[image.Point]*chunk.Chunk

func newLevels() levels {
	var l levels
	for i := range l {
		l[i] = make(map[image.Point]*chunk.Chunk)
	}
	return l
}

// releaseAll drops every chunk reference held by l.
func (l *levels) releaseAll() {
	for i := range l {
		for coord, c := range l[i] {
			c.Release()
			delete(l[i], coord)
		}
	}
}

// dropDerived releases the cached lower levels of coord.
func (l *levels) dropDerived(coord image.Point) {
	for i := 1; i < len(l); i++ {
		if c, ok := l[i][coord]; ok {
			c.Release()
			delete(l[i], coord)
		}
	}
}

// table is the committed chunk storage. Clones share a table until one of
// them writes.
//
// Level 0 is only written while the table has a single owner, so it may be
// read without locking. Derived levels can be populated by any holder of a
// clone and are guarded by mu.
type table struct {
	refs   atomic.Int32
	mu     sync.Mutex
	levels levels
}

func newTable() *table {
	t := &table{levels: newLevels()}
	t.refs.Store(1)
	return t
}

func (t *table) release() {
	if t.refs.Add(-1) == 0 {
		t.mu.Lock()
		t.levels.releaseAll()
		t.mu.Unlock()
	}
}

// Image is a sparse chunk-tiled raster image.
type Image struct {
	size     image.Point
	pool     *chunk.Pool
	tbl      *table
	overlay  levels
	clip     *Image
	disposed bool
}

// New creates an empty image of the given size backed by chunk.DefaultPool.
func New(size image.Point) *Image {
	return NewWithPool(size, chunk.DefaultPool)
}

// NewWithPool creates an empty image allocating chunks from pool.
func NewWithPool(size image.Point, pool *chunk.Pool) *Image {
	if pool == nil {
		pool = chunk.DefaultPool
	}
	return &Image{
		size:    size,
		pool:    pool,
		tbl:     newTable(),
		overlay: newLevels(),
	}
}

// Size returns the logical canvas size in pixels.
func (img *Image) Size() image.Point {
	return img.size
}

// CanvasBounds returns the pixel rectangle of the canvas.
func (img *Image) CanvasBounds() image.Rectangle {
	return image.Rectangle{Max: img.size}
}

// Pool returns the chunk pool backing the image.
func (img *Image) Pool() *chunk.Pool {
	return img.pool
}

// Clone returns a copy of the committed state in O(1).
//
// The clone shares the committed chunk table with img; whichever side writes
// first takes a private copy of the table, and each written chunk is copied
// individually. The overlay and the raster clip are not cloned.
func (img *Image) Clone() *Image {
	img.tbl.refs.Add(1)
	return &Image{
		size:    img.size,
		pool:    img.pool,
		tbl:     img.tbl,
		overlay: newLevels(),
	}
}

// ensureUniqueTable gives img a private committed table before a write.
func (img *Image) ensureUniqueTable() {
	old := img.tbl
	if old.refs.Load() == 1 {
		return
	}
	nt := newTable()
	old.mu.Lock()
	for i := range old.levels {
		for coord, c := range old.levels[i] {
			nt.levels[i][coord] = c.Retain()
		}
	}
	old.mu.Unlock()
	old.release()
	img.tbl = nt
}

// SharesStorageWith reports whether img and other currently share committed storage.
func (img *Image) SharesStorageWith(other *Image) bool {
	return img.tbl == other.tbl
}

// Dispose releases every chunk held by the image. Further use is invalid.
func (img *Image) Dispose() {
	if img.disposed {
		return
	}
	img.disposed = true
	img.overlay.releaseAll()
	img.tbl.release()
	img.tbl = newTable()
	img.clip = nil
}

// Disposed reports whether Dispose was called.
func (img *Image) Disposed() bool {
	return img.disposed
}

// CommittedCoords returns the coordinates of every committed chunk.
func (img *Image) CommittedCoords() chunk.Set {
	s := make(chunk.Set, len(img.tbl.levels[chunk.Full]))
	for coord := range img.tbl.levels[chunk.Full] {
		s.Add(coord)
	}
	return s
}

// FindAffectedChunks returns the coordinates holding uncommitted changes.
func (img *Image) FindAffectedChunks() chunk.Set {
	s := make(chunk.Set, len(img.overlay[chunk.Full]))
	for coord := range img.overlay[chunk.Full] {
		s.Add(coord)
	}
	return s
}

// FindAllChunks returns committed and uncommitted chunk coordinates.
func (img *Image) FindAllChunks() chunk.Set {
	return img.CommittedCoords().Union(img.FindAffectedChunks())
}

// HasUncommitted reports whether the overlay holds any chunk.
func (img *Image) HasUncommitted() bool {
	return len(img.overlay[chunk.Full]) > 0
}

// ChunkCount returns the number of committed full-resolution chunks.
func (img *Image) ChunkCount() int {
	return len(img.tbl.levels[chunk.Full])
}

// CommittedPixel returns the committed full-resolution pixel at p.
// Pixels without a chunk read as transparent.
func (img *Image) CommittedPixel(p image.Point) color.RGBA {
	c := img.tbl.levels[chunk.Full][chunk.CoordOf(p)]
	if c == nil {
		return color.RGBA{}
	}
	local := p.Sub(chunk.Bounds(chunk.CoordOf(p)).Min)
	return c.Image().RGBAAt(local.X, local.Y)
}

// LatestPixel returns the pixel at p including uncommitted changes.
func (img *Image) LatestPixel(p image.Point) color.RGBA {
	coord := chunk.CoordOf(p)
	if c, ok := img.overlay[chunk.Full][coord]; ok {
		local := p.Sub(chunk.Bounds(coord).Min)
		return c.Image().RGBAAt(local.X, local.Y)
	}
	return img.CommittedPixel(p)
}

// IsCommittedEmpty reports whether every committed pixel is transparent.
func (img *Image) IsCommittedEmpty() bool {
	for _, c := range img.tbl.levels[chunk.Full] {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// CommittedEqual reports whether a and b have the same size and committed
// pixels. A missing chunk equals a transparent one.
func CommittedEqual(a, b *Image) bool {
	if a.size != b.size {
		return false
	}
	if a.tbl == b.tbl {
		return true
	}
	coords := a.CommittedCoords().Union(b.CommittedCoords())
	for coord := range coords {
		ca := a.tbl.levels[chunk.Full][coord]
		cb := b.tbl.levels[chunk.Full][coord]
		switch {
		case ca == nil && cb == nil:
		case ca == nil:
			if !cb.IsEmpty() {
				return false
			}
		case cb == nil:
			if !ca.IsEmpty() {
				return false
			}
		default:
			if !ca.Equal(cb) {
				return false
			}
		}
	}
	return true
}

// TightBounds returns the smallest rectangle containing every committed
// non-transparent pixel, and false if there is none.
func (img *Image) TightBounds() (image.Rectangle, bool) {
	var r image.Rectangle
	found := false
	for coord, c := range img.tbl.levels[chunk.Full] {
		origin := chunk.Bounds(coord).Min
		pix := c.Image()
		for y := 0; y < chunk.Size; y++ {
			for x := 0; x < chunk.Size; x++ {
				if pix.Pix[pix.PixOffset(x, y)+3] == 0 {
					continue
				}
				pr := image.Rect(x, y, x+1, y+1).Add(origin)
				if !found {
					r, found = pr, true
				} else {
					r = r.Union(pr)
				}
			}
		}
	}
	return r, found
}
