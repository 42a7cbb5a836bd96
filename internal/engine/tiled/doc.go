// Package tiled implements the sparse, chunk-tiled raster image used by every
// drawable in a document.
//
// An Image maps chunk coordinates to reference-counted chunks. It keeps two
// views of its pixels:
//
//   - committed chunks, stored in a table that clones share copy-on-write
//   - an in-progress overlay holding uncommitted draws, folded in by Commit or
//     discarded by Rollback
//
// Lower resolution levels are derived lazily from full-resolution chunks and
// cached in the committed table. Derivation may run on a background goroutine
// against a Clone; publication of a derived chunk is first-writer-wins.
//
// Drawing goes through Operation values (rectangles, ellipses, paths, bitmap
// pastes, clears). Draw reports the chunk coordinates it touched so callers can
// build dirty-chunk change information:
//
//	touched, err := img.Draw(tiled.RectangleOperation{
//	    Rect: image.Rect(0, 0, 16, 16),
//	    Fill: color.RGBA{255, 0, 0, 255},
//	})
//	committed := img.Commit()
//
// An Image is owned by one goroutine. Only Clone handles may be passed to
// other goroutines, and only for reading.
package tiled
