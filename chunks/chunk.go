package chunks

const (
	// ChunkLinks is the fan-out of every chunk: one link per 4-bit selector.
	ChunkLinks = 16

	// ChunkBytes is the size of a chunk in the packed upload layout.
	ChunkBytes = ChunkLinks * 4

	// Depth is the number of tree levels, one per coordinate bit.
	Depth = 32
)

// Chunk is one node of the radix tree.
type Chunk struct {
	Links [ChunkLinks]Link
}

// filledChunk returns a chunk with every link set to l.
func filledChunk(l Link) Chunk {
	var c Chunk
	for i := range c.Links {
		c.Links[i] = l
	}
	return c
}

// emptyChunk is the state of a freshly allocated chunk: everything reads block 0.
func emptyChunk() Chunk {
	return filledChunk(LeafLink(0))
}

// Uniform returns the common link when all 16 links are identical.
func (c *Chunk) Uniform() (Link, bool) {
	first := c.Links[0]
	for _, l := range c.Links[1:] {
		if l != first {
			return 0, false
		}
	}
	return first, true
}

// selector picks the child slot for a point at the given level.
// Bit 0 comes from x, bit 1 from y, bit 2 from z and bit 3 from w.
func selector(x, y, z, w uint32, level int) int {
	shift := uint(Depth - 1 - level)
	return int((x>>shift)&1) |
		int((y>>shift)&1)<<1 |
		int((z>>shift)&1)<<2 |
		int((w>>shift)&1)<<3
}
