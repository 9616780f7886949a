package chunks

import (
	"fmt"

	"github.com/google/btree"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "chunks")

// Index is a sparse 4D voxel index backed by an arena of chunks.
//
// The zero value is not usable; create indexes with New or FromParts.
type Index struct {
	chunks []Chunk
	free   *btree.BTreeG[uint32]
	root   uint32

	maxChunks uint32
	dt        DirtyTracker
}

// Option configures an Index.
type Option func(*Index)

// WithMaxChunks caps the arena length below the 2^31 id space.
func WithMaxChunks(n uint32) Option {
	return func(ix *Index) {
		if n >= 1 && n < MaxChunks {
			ix.maxChunks = n
		}
	}
}

// WithDirtyTracker reports every chunk modified by Set to dt.
func WithDirtyTracker(dt DirtyTracker) Option {
	return func(ix *Index) {
		ix.dt = dt
	}
}

// New returns an index in which every point reads block 0.
func New(opts ...Option) *Index {
	ix := &Index{
		chunks:    []Chunk{emptyChunk()},
		free:      newFreePool(),
		root:      0,
		maxChunks: MaxChunks,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// FromParts builds an index from raw arena contents. The chunks are copied,
// so later writes never reach the caller's slice. No validation happens
// here; use the verify package before trusting the result.
func FromParts(chunks []Chunk, root uint32, free []uint32, opts ...Option) *Index {
	ix := New(opts...)
	ix.chunks = append(make([]Chunk, 0, len(chunks)), chunks...)
	ix.root = root
	for _, id := range free {
		ix.free.ReplaceOrInsert(id)
	}
	return ix
}

// step is one entry of the descent path: the chunk entered and the selector
// its parent used to reach it.
type step struct {
	id  uint32
	sel uint8
}

// Get returns the block id stored at (x, y, z, w).
func (ix *Index) Get(x, y, z, w uint32) BlockID {
	link := ChildLink(ix.root)
	for level := 0; level < Depth; level++ {
		if link.IsLeaf() {
			return link.Block()
		}
		link = ix.chunks[link.Child()].Links[selector(x, y, z, w, level)]
	}
	if !link.IsLeaf() {
		panic(&InvariantError{
			Op:      "get",
			Chunk:   link.Child(),
			Message: fmt.Sprintf("no leaf after %d levels at (%d, %d, %d, %d)", Depth, x, y, z, w),
		})
	}
	return link.Block()
}

// Set stores id at (x, y, z, w).
//
// Uniform regions along the path are split into chunks on the way down.
// On the way back up, chunks that became uniform are collapsed into their
// parent, and trailing free chunks are trimmed from the arena.
//
// Set fails without modifying the index if id uses the reserved tag bit
// (ErrReservedBit) or the arena cannot grow (ErrCapacityExceeded).
func (ix *Index) Set(x, y, z, w uint32, id BlockID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %#x", ErrReservedBit, uint32(id))
	}
	if ix.Get(x, y, z, w) == id {
		return nil
	}

	var path [Depth]step
	path[0] = step{id: ix.root}

	// Every chunk from path[fresh] down was allocated by this call and
	// filled with the leaf value split at path[fresh-1].
	fresh := Depth
	var split Link

	for level := 0; level < Depth-1; level++ {
		node := path[level].id
		sel := selector(x, y, z, w, level)
		link := ix.chunks[node].Links[sel]

		if !link.IsLeaf() {
			path[level+1] = step{id: link.Child(), sel: uint8(sel)}
			continue
		}

		child, err := ix.allocate()
		if err != nil {
			if fresh < Depth {
				ix.rollback(path[:level+1], fresh, split)
			}
			return err
		}
		if fresh == Depth {
			fresh = level + 1
			split = link
		}
		ix.chunks[child] = filledChunk(link)
		ix.chunks[node].Links[sel] = ChildLink(child)
		ix.markDirty(node)
		path[level+1] = step{id: child, sel: uint8(sel)}
	}

	bottom := path[Depth-1].id
	ix.chunks[bottom].Links[selector(x, y, z, w, Depth-1)] = LeafLink(id)
	ix.markDirty(bottom)

	ix.collapse(path[:])
	ix.trim()
	return nil
}

// collapse walks path from the deepest chunk upwards, folding uniform chunks
// into a leaf link of their parent. It stops at the first non-uniform chunk.
// path[0] is the root and is never folded.
func (ix *Index) collapse(path []step) {
	for i := len(path) - 1; i > 0; i-- {
		cur := path[i]
		common, ok := ix.chunks[cur.id].Uniform()
		if !ok {
			return
		}
		parent := path[i-1].id
		ix.deallocate(cur.id)
		ix.chunks[parent].Links[cur.sel] = common
		ix.markDirty(parent)
	}
}

// rollback undoes the chunks allocated by a failed Set. path holds every
// entry visited so far; entries from fresh on were allocated by this call.
func (ix *Index) rollback(path []step, fresh int, split Link) {
	for i := len(path) - 1; i >= fresh; i-- {
		parent := path[i-1].id
		ix.chunks[parent].Links[path[i].sel] = split
		ix.markDirty(parent)
		ix.deallocate(path[i].id)
	}
	ix.trim()
}
