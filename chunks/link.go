package chunks

import "fmt"

// BlockID identifies the content of a unit cell. Only the low 31 bits are usable.
type BlockID uint32

const (
	// leafBit tags a link as a leaf block id rather than a child chunk id.
	leafBit uint32 = 1 << 31

	// MaxBlockID is the largest block id the index can store.
	MaxBlockID BlockID = BlockID(leafBit - 1)

	// MaxChunks is the size of the chunk id space.
	MaxChunks = leafBit
)

// Valid reports whether id fits in 31 bits.
func (id BlockID) Valid() bool {
	return uint32(id)&leafBit == 0
}

// LinkKind is the decoded tag of a Link.
type LinkKind uint8

const (
	// KindChild marks a link pointing at a child chunk.
	KindChild LinkKind = iota
	// KindLeaf marks a link holding a block id for its whole subregion.
	KindLeaf
)

func (k LinkKind) String() string {
	switch k {
	case KindChild:
		return "child"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("LinkKind(%d)", uint8(k))
	}
}

// Link is one slot of a chunk, packed into 32 bits.
//
// MSB set: the low 31 bits are a block id (leaf).
// MSB clear: the low 31 bits are the id of a child chunk.
type Link uint32

// LeafLink returns a leaf link holding id. The tag bit of id is ignored;
// callers validate ids at the API boundary.
func LeafLink(id BlockID) Link {
	return Link(uint32(id) | leafBit)
}

// ChildLink returns a link pointing at chunk id.
func ChildLink(id uint32) Link {
	return Link(id &^ leafBit)
}

// IsLeaf reports whether the link holds a block id.
func (l Link) IsLeaf() bool {
	return uint32(l)&leafBit != 0
}

// Kind decodes the link tag.
func (l Link) Kind() LinkKind {
	if l.IsLeaf() {
		return KindLeaf
	}
	return KindChild
}

// Block returns the block id of a leaf link. The result is meaningless for
// child links.
func (l Link) Block() BlockID {
	return BlockID(uint32(l) &^ leafBit)
}

// Child returns the chunk id of a child link. The result is meaningless for
// leaf links.
func (l Link) Child() uint32 {
	return uint32(l)
}

func (l Link) String() string {
	if l.IsLeaf() {
		return fmt.Sprintf("leaf(%d)", l.Block())
	}
	return fmt.Sprintf("child(%d)", l.Child())
}
