package chunks

import (
	"github.com/google/btree"
	"github.com/sirupsen/logrus"
)

const (
	// freePoolDegree is the B-tree degree of the free pool.
	freePoolDegree = 16

	// minShrinkCap is the arena capacity below which trims never reallocate.
	minShrinkCap = 64
)

// DirtyTracker receives the ids of chunks whose links changed.
//
// Implementations typically feed a partial re-upload of the arena.
type DirtyTracker interface {
	// Add marks chunk id as modified.
	Add(id uint32)

	// Truncate drops every tracked id >= n after the arena shrank to n chunks.
	Truncate(n uint32)
}

func newFreePool() *btree.BTreeG[uint32] {
	return btree.NewOrderedG[uint32](freePoolDegree)
}

// allocate returns a chunk id whose links all read block 0.
// The smallest free id is reused first; otherwise the arena grows by one.
func (ix *Index) allocate() (uint32, error) {
	if id, ok := ix.free.DeleteMin(); ok {
		ix.chunks[id] = emptyChunk()
		ix.markDirty(id)
		return id, nil
	}

	n := uint32(len(ix.chunks))
	if n >= ix.maxChunks {
		log.WithFields(logrus.Fields{
			"arena": n,
			"max":   ix.maxChunks,
		}).Warn("chunk arena exhausted")
		return 0, ErrCapacityExceeded
	}
	ix.chunks = append(ix.chunks, emptyChunk())
	ix.markDirty(n)
	return n, nil
}

// deallocate returns id to the free pool. The arena shrinks later, in trim.
func (ix *Index) deallocate(id uint32) {
	ix.free.ReplaceOrInsert(id)
}

// trim removes trailing free chunks from the arena.
func (ix *Index) trim() {
	before := len(ix.chunks)
	for len(ix.chunks) > 1 {
		last, ok := ix.free.Max()
		if !ok || last != uint32(len(ix.chunks)-1) {
			break
		}
		ix.free.DeleteMax()
		ix.chunks = ix.chunks[:last]
	}
	if len(ix.chunks) == before {
		return
	}

	if c := cap(ix.chunks); c > minShrinkCap && len(ix.chunks) < c/4 {
		shrunk := make([]Chunk, len(ix.chunks), c/2)
		copy(shrunk, ix.chunks)
		ix.chunks = shrunk
	}
	if ix.dt != nil {
		ix.dt.Truncate(uint32(len(ix.chunks)))
	}
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"from": before,
			"to":   len(ix.chunks),
		}).Debug("trimmed chunk arena")
	}
}

func (ix *Index) markDirty(id uint32) {
	if ix.dt != nil {
		ix.dt.Add(id)
	}
}
