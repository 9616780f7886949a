package chunks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkEncoding(t *testing.T) {
	leaf := LeafLink(42)
	require.True(t, leaf.IsLeaf())
	require.Equal(t, KindLeaf, leaf.Kind())
	require.Equal(t, BlockID(42), leaf.Block())
	require.Equal(t, uint32(1<<31|42), uint32(leaf))
	require.Equal(t, "leaf(42)", leaf.String())

	child := ChildLink(42)
	require.False(t, child.IsLeaf())
	require.Equal(t, KindChild, child.Kind())
	require.Equal(t, uint32(42), child.Child())
	require.Equal(t, "child(42)", child.String())

	require.NotEqual(t, leaf, child)
}

func TestLinkZeroValueIsLeafZero(t *testing.T) {
	require.Equal(t, LeafLink(0), emptyChunk().Links[0])
	require.Equal(t, BlockID(0), LeafLink(0).Block())
	require.Equal(t, MaxBlockID, LeafLink(MaxBlockID).Block())
}

func TestBlockIDValid(t *testing.T) {
	require.True(t, BlockID(0).Valid())
	require.True(t, MaxBlockID.Valid())
	require.False(t, BlockID(1<<31).Valid())
	require.False(t, BlockID(^uint32(0)).Valid())
}

func TestChunkUniform(t *testing.T) {
	c := filledChunk(LeafLink(3))
	l, ok := c.Uniform()
	require.True(t, ok)
	require.Equal(t, LeafLink(3), l)

	c.Links[15] = LeafLink(4)
	_, ok = c.Uniform()
	require.False(t, ok)

	// Same payload, different tag.
	c = filledChunk(LeafLink(3))
	c.Links[7] = ChildLink(3)
	_, ok = c.Uniform()
	require.False(t, ok)
}

func TestLinkKindString(t *testing.T) {
	require.Equal(t, "child", KindChild.String())
	require.Equal(t, "leaf", KindLeaf.String())
	require.Equal(t, "LinkKind(9)", LinkKind(9).String())
}
