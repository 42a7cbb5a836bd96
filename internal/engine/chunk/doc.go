// Package chunk provides the fixed-size pixel tiles that back every raster image
// in the document engine.
//
// A Chunk is a square RGBA tile at one resolution level. Chunks are the unit of
// storage, of copy-on-write sharing and of dirtiness. Key concepts:
//
// # Resolutions
//
// Every chunk covers the same document area (Size x Size full-resolution pixels)
// but may be stored at Full, Half, Quarter or Eighth resolution. Lower levels are
// always derived from the full-resolution chunk with Downsample.
//
// # Reference counting
//
// Chunks carry an explicit reference count. Cloning an image retains its chunks
// instead of copying them; writers call MakeUniqueIfShared before touching pixels:
//
//	c, err := chunk.MakeUniqueIfShared(pool, c)
//	if err != nil {
//	    return err
//	}
//	c.Image().Set(0, 0, color.RGBA{255, 0, 0, 255})
//
// # Coordinates
//
// Chunk coordinates are image.Point values in chunk units. CoordOf, Bounds and
// CoordsIn convert between pixel space and chunk space; Set collects coordinates
// for dirty reporting.
package chunk
