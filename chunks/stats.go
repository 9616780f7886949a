package chunks

// Stats summarizes arena usage.
type Stats struct {
	ArenaLen int    `json:"arena_len"` // chunks in the arena, live or free
	Live     int    `json:"live"`      // chunks reachable from the root
	Free     int    `json:"free"`      // ids waiting in the free pool
	Root     uint32 `json:"root"`
	Bytes    int64  `json:"bytes"` // arena size in the packed layout
}

// Stats returns arena usage counters.
func (ix *Index) Stats() Stats {
	return Stats{
		ArenaLen: len(ix.chunks),
		Live:     len(ix.chunks) - ix.free.Len(),
		Free:     ix.free.Len(),
		Root:     ix.root,
		Bytes:    int64(len(ix.chunks)) * ChunkBytes,
	}
}

// Root returns the id of the root chunk.
func (ix *Index) Root() uint32 { return ix.root }

// Len returns the arena length.
func (ix *Index) Len() int { return len(ix.chunks) }

// Chunk returns a copy of chunk id. It panics if id is out of range.
func (ix *Index) Chunk(id uint32) Chunk { return ix.chunks[id] }

// IsFree reports whether id is in the free pool.
func (ix *Index) IsFree(id uint32) bool { return ix.free.Has(id) }

// FreeIDs returns the free pool in ascending order.
func (ix *Index) FreeIDs() []uint32 {
	ids := make([]uint32, 0, ix.free.Len())
	ix.free.Ascend(func(id uint32) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Clone returns a deep copy of the index. The copy has no dirty tracker.
func (ix *Index) Clone() *Index {
	chunks := make([]Chunk, len(ix.chunks))
	copy(chunks, ix.chunks)
	return &Index{
		chunks:    chunks,
		free:      ix.free.Clone(),
		root:      ix.root,
		maxChunks: ix.maxChunks,
	}
}
