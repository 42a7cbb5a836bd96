// Package render consumes change infos and document state to produce pixels.
//
// A Gatherer folds the change info batches published by the tracker into
// sets of chunks that need redrawing: the composed main image, per-member
// previews and mask previews. A Compositor renders composed chunks at any
// pyramid level, and a Previewer warms lower pyramid levels in the
// background on copy-on-write clones.
package render
