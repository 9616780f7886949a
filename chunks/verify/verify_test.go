package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hyperchunks/chunks"
)

// fakeSource is a hand-built arena for corrupt layouts the index never produces.
type fakeSource struct {
	root   uint32
	chunks []chunks.Chunk
	free   []uint32
}

func (f *fakeSource) Root() uint32                 { return f.root }
func (f *fakeSource) Len() int                     { return len(f.chunks) }
func (f *fakeSource) Chunk(id uint32) chunks.Chunk { return f.chunks[id] }
func (f *fakeSource) FreeIDs() []uint32            { return f.free }

func leafChunk(id chunks.BlockID) chunks.Chunk {
	var c chunks.Chunk
	for i := range c.Links {
		c.Links[i] = chunks.LeafLink(id)
	}
	return c
}

// twoLevel returns a root whose link 3 points at a non-uniform chunk 1.
func twoLevel() *fakeSource {
	root := leafChunk(0)
	root.Links[3] = chunks.ChildLink(1)
	child := leafChunk(0)
	child.Links[0] = chunks.LeafLink(9)
	return &fakeSource{chunks: []chunks.Chunk{root, child}}
}

func requireType(t *testing.T, err error, typ string) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type, "error: %v", err)
}

// TestAll_Valid tests that indexes built through Set always pass.
func TestAll_Valid(t *testing.T) {
	ix := chunks.New()
	require.NoError(t, All(ix))

	require.NoError(t, ix.Set(1, 2, 3, 4, 5))
	require.NoError(t, ix.Set(1<<31, 2, 3, 4, 6))
	require.NoError(t, ix.Set(1, 2, 3, 4, 0))
	require.NoError(t, All(ix))

	require.NoError(t, All(twoLevel()))
}

// TestArena_RootOutOfRange tests detection of a dangling root.
func TestArena_RootOutOfRange(t *testing.T) {
	src := twoLevel()
	src.root = 5

	err := All(src)
	requireType(t, err, "Arena")
	require.Contains(t, err.Error(), "root 5 out of range")
}

// TestArena_Empty tests detection of an empty arena.
func TestArena_Empty(t *testing.T) {
	requireType(t, Arena(&fakeSource{}), "Arena")
}

// TestArena_RootFree tests detection of a freed root.
func TestArena_RootFree(t *testing.T) {
	src := twoLevel()
	src.free = []uint32{0}

	requireType(t, Arena(src), "Arena")
}

// TestFreePool_Duplicate tests detection of duplicate free ids.
func TestFreePool_Duplicate(t *testing.T) {
	src := twoLevel()
	src.chunks = append(src.chunks, leafChunk(0), leafChunk(0), leafChunk(0))
	src.free = []uint32{2, 2}

	err := FreePool(src)
	requireType(t, err, "FreePool")
	require.Contains(t, err.Error(), "strictly ascending")
}

// TestFreePool_OutOfRange tests detection of free ids past the arena.
func TestFreePool_OutOfRange(t *testing.T) {
	src := twoLevel()
	src.free = []uint32{7}

	requireType(t, FreePool(src), "FreePool")
}

// TestTree_UncollapsedChunk tests detection of a uniform non-root chunk.
func TestTree_UncollapsedChunk(t *testing.T) {
	src := twoLevel()
	src.chunks[1] = leafChunk(4)

	err := All(src)
	requireType(t, err, "Collapse")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, int64(1), verr.Chunk)
}

// TestTree_UniformRootIsFine tests that the root is exempt from collapsing.
func TestTree_UniformRootIsFine(t *testing.T) {
	src := &fakeSource{chunks: []chunks.Chunk{leafChunk(3)}}
	require.NoError(t, All(src))
}

// TestTree_ChildInFreePool tests detection of links to freed chunks.
func TestTree_ChildInFreePool(t *testing.T) {
	src := twoLevel()
	src.chunks = append(src.chunks, leafChunk(0))
	src.chunks[2].Links[0] = chunks.LeafLink(1)
	src.chunks[0].Links[4] = chunks.ChildLink(2)
	src.free = []uint32{1}

	err := Tree(src)
	requireType(t, err, "Tree")
	require.Contains(t, err.Error(), "free pool")
}

// TestTree_SharedChild tests detection of a chunk reached twice.
func TestTree_SharedChild(t *testing.T) {
	src := twoLevel()
	src.chunks[0].Links[7] = chunks.ChildLink(1)

	err := Tree(src)
	requireType(t, err, "Tree")
	require.Contains(t, err.Error(), "reached twice")
}

// TestTree_Cycle tests detection of a link back to the root.
func TestTree_Cycle(t *testing.T) {
	src := twoLevel()
	src.chunks[1].Links[5] = chunks.ChildLink(0)

	requireType(t, Tree(src), "Tree")
}

// TestTree_OutOfRangeChild tests detection of dangling child links.
func TestTree_OutOfRangeChild(t *testing.T) {
	src := twoLevel()
	src.chunks[1].Links[5] = chunks.ChildLink(40)

	err := Tree(src)
	requireType(t, err, "Tree")
	require.Contains(t, err.Error(), "out of range")
}

// TestTree_TooDeep tests detection of child links below the last level.
func TestTree_TooDeep(t *testing.T) {
	// A chain of Depth+1 chunks: the last child link sits on level 31.
	cs := make([]chunks.Chunk, chunks.Depth+1)
	for i := range cs {
		cs[i] = leafChunk(0)
		cs[i].Links[15] = chunks.LeafLink(1)
		if i < len(cs)-1 {
			cs[i].Links[0] = chunks.ChildLink(uint32(i + 1))
		}
	}

	err := Tree(&fakeSource{chunks: cs})
	requireType(t, err, "Tree")
	require.Contains(t, err.Error(), "below the last level")
}

// TestTree_Leak tests detection of chunks that are neither live nor free.
func TestTree_Leak(t *testing.T) {
	src := twoLevel()
	src.chunks = append(src.chunks, leafChunk(0), twoLevel().chunks[1])

	err := Tree(src)
	requireType(t, err, "Leak")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 2, verr.Details["reachable"])
}

// TestTrimmed_TrailingFree tests detection of an untrimmed arena.
func TestTrimmed_TrailingFree(t *testing.T) {
	src := twoLevel()
	src.chunks = append(src.chunks, leafChunk(0))
	src.free = []uint32{2}

	require.NoError(t, Tree(src))
	requireType(t, Trimmed(src), "Trim")
	requireType(t, All(src), "Trim")
}

func TestValidationErrorFormat(t *testing.T) {
	err := &ValidationError{Type: "Tree", Message: "boom", Chunk: 3}
	require.Equal(t, "Tree at chunk 3: boom", err.Error())

	err = &ValidationError{Type: "Leak", Message: "boom", Chunk: -1}
	require.Equal(t, "Leak: boom", err.Error())
}
