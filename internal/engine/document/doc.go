// Package document holds the member tree of a raster document.
//
// A Document is an arena: every Layer and Folder lives in a flat table keyed
// by ID. Parent links and child lists are IDs, never pointers, so the whole
// structure can be copied and restored without chasing references.
//
// # Layers and Folders
//
// The root is a Folder created with the document. Folders keep an ordered
// list of child IDs, bottom-most first. Layers own a tiled.Image holding
// their pixels and may own a second tiled.Image used as a mask.
//
// # Writers
//
// Mutating methods (InsertMember, RemoveMember, MoveMember, the setters) are
// meant to be called from changes only. Consumers that render or inspect a
// document should hold it through the Reader interface.
//
// # Snapshots
//
// Snapshot converts the document into a snapshot.Document value holding the
// tree and raw chunk pixels. FromSnapshot rebuilds a document from it.
package document
