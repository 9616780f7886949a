package chunks

import (
	"errors"
	"fmt"
)

var (
	// ErrReservedBit indicates a block id that uses the leaf tag bit.
	ErrReservedBit = errors.New("chunks: block id uses reserved tag bit")

	// ErrCapacityExceeded indicates that no chunk id is left to allocate.
	ErrCapacityExceeded = errors.New("chunks: chunk capacity exceeded")
)

// InvariantError reports a structurally broken tree. The index panics with
// it: reaching one is a programming error, not a recoverable condition.
type InvariantError struct {
	Op      string
	Chunk   uint32
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("chunks: invariant broken in %s at chunk %d: %s", e.Op, e.Chunk, e.Message)
}
