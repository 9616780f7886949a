package chunks

import "fmt"

// Region is an axis-aligned hypercube of the lattice with edge 2^Shift.
type Region struct {
	X, Y, Z, W uint32
	Shift      uint8
}

// Size returns the edge length of the region.
func (r Region) Size() uint64 {
	return uint64(1) << r.Shift
}

// Contains reports whether the point lies inside the region.
func (r Region) Contains(x, y, z, w uint32) bool {
	return x>>r.Shift == r.X>>r.Shift &&
		y>>r.Shift == r.Y>>r.Shift &&
		z>>r.Shift == r.Z>>r.Shift &&
		w>>r.Shift == r.W>>r.Shift
}

func (r Region) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)+%d", r.X, r.Y, r.Z, r.W, r.Size())
}

// Walk calls fn for every leaf link of the tree, that is every maximal
// uniform region, in selector order. Walk stops early when fn returns false.
func (ix *Index) Walk(fn func(Region, BlockID) bool) {
	ix.walk(ix.root, Region{Shift: Depth}, fn)
}

func (ix *Index) walk(id uint32, r Region, fn func(Region, BlockID) bool) bool {
	shift := r.Shift - 1
	for sel, link := range ix.chunks[id].Links {
		child := Region{
			X:     r.X | uint32(sel&1)<<shift,
			Y:     r.Y | uint32(sel>>1&1)<<shift,
			Z:     r.Z | uint32(sel>>2&1)<<shift,
			W:     r.W | uint32(sel>>3&1)<<shift,
			Shift: shift,
		}
		if link.IsLeaf() {
			if !fn(child, link.Block()) {
				return false
			}
			continue
		}
		if shift == 0 {
			panic(&InvariantError{Op: "walk", Chunk: id, Message: "child link below the last level"})
		}
		if !ix.walk(link.Child(), child, fn) {
			return false
		}
	}
	return true
}
