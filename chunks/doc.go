// Package chunks implements a sparse voxel index over a 4-dimensional
// unsigned 32-bit lattice.
//
// # Overview
//
// The index maps every point (x, y, z, w) to a 31-bit block id. Storage is a
// 16-ary radix tree: each level consumes one bit of every coordinate, most
// significant bit first, and those four bits select one of the 16 links of a
// chunk. A link either points at a child chunk or holds a leaf block id that
// covers the whole subregion below it.
//
//	ix := chunks.New()
//	if err := ix.Set(0, 0, 0, 0, 5); err != nil {
//	    return err
//	}
//	id := ix.Get(0, 0, 0, 0) // 5
//	id = ix.Get(1, 0, 0, 0)  // 0, never written
//
// # Arena
//
// Chunks live in a single growable slice and reference each other by index
// (the chunk id), never by pointer. Freed ids go to an ordered free pool and
// are reused smallest first. After every Set, trailing free ids are trimmed
// from the arena so its length tracks the live working set.
//
// # Collapsing
//
// A chunk whose 16 links are identical is redundant: Set replaces it with a
// single leaf link in its parent and frees it. The root is never collapsed.
// As a result the tree is always maximally collapsed, and writing a region
// back to its previous value returns the arena to its previous size.
//
// # Link Encoding
//
// Links are packed into 32 bits with the most significant bit as the leaf
// tag, which is also the layout uploaded to devices. Use Link.Kind,
// Link.Block and Link.Child to decode.
//
// # Thread Safety
//
// Index is not thread-safe. Wrap it with NewLocked to share it between
// goroutines: Get runs under a read lock, Set under the write lock.
//
// # Related Packages
//
//   - github.com/joshuapare/hyperchunks/chunks/dirty: Tracks chunks modified by Set
//   - github.com/joshuapare/hyperchunks/chunks/verify: Invariant checks
//   - github.com/joshuapare/hyperchunks/chunks/snapshot: Binary snapshot codec
package chunks
