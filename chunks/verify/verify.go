// Package verify provides validation functions for chunk index structures.
// These helpers are used in tests and after loading snapshots to ensure the
// index invariants hold.
package verify

import (
	"fmt"

	"github.com/joshuapare/hyperchunks/chunks"
)

// Source is the read-only view of an index the checks need.
// *chunks.Index implements it.
type Source interface {
	Root() uint32
	Len() int
	Chunk(id uint32) chunks.Chunk
	FreeIDs() []uint32
}

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Chunk   int64 // Chunk id where the error occurred (-1 if N/A)
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("%s at chunk %d: %s", e.Type, e.Chunk, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// All validates every index invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func All(src Source) error {
	if err := Arena(src); err != nil {
		return err
	}
	if err := FreePool(src); err != nil {
		return err
	}
	if err := Tree(src); err != nil {
		return err
	}
	if err := Trimmed(src); err != nil {
		return err
	}
	return nil
}

// Arena checks that the arena is non-empty, fits the id space, and that the
// root names a live chunk.
func Arena(src Source) error {
	n := src.Len()
	if n < 1 {
		return &ValidationError{
			Type:    "Arena",
			Message: "arena is empty",
			Chunk:   -1,
		}
	}
	if uint64(n) > uint64(chunks.MaxChunks) {
		return &ValidationError{
			Type:    "Arena",
			Message: fmt.Sprintf("arena length %d exceeds the id space", n),
			Chunk:   -1,
		}
	}
	root := src.Root()
	if uint64(root) >= uint64(n) {
		return &ValidationError{
			Type:    "Arena",
			Message: fmt.Sprintf("root %d out of range (arena length %d)", root, n),
			Chunk:   int64(root),
		}
	}
	for _, id := range src.FreeIDs() {
		if id == root {
			return &ValidationError{
				Type:    "Arena",
				Message: "root is in the free pool",
				Chunk:   int64(root),
			}
		}
	}
	return nil
}

// FreePool checks that free ids are strictly ascending (no duplicates) and
// within the arena.
func FreePool(src Source) error {
	n := uint64(src.Len())
	free := src.FreeIDs()
	for i, id := range free {
		if uint64(id) >= n {
			return &ValidationError{
				Type:    "FreePool",
				Message: fmt.Sprintf("free id out of range (arena length %d)", n),
				Chunk:   int64(id),
			}
		}
		if i > 0 && free[i-1] >= id {
			return &ValidationError{
				Type:    "FreePool",
				Message: "free ids not strictly ascending",
				Chunk:   int64(id),
				Details: map[string]interface{}{
					"previous": free[i-1],
				},
			}
		}
	}
	return nil
}

type frame struct {
	id    uint32
	level int
}

// Tree walks every chunk reachable from the root and checks that:
//   - child links point inside the arena and never at free chunks
//   - every chunk is reached exactly once (no sharing, no cycles)
//   - no child link sits on the last level
//   - no chunk other than the root has 16 identical links
//   - every chunk is either reachable or free (no leaks)
func Tree(src Source) error {
	if err := Arena(src); err != nil {
		return err
	}
	n := src.Len()
	free := make(map[uint32]struct{}, len(src.FreeIDs()))
	for _, id := range src.FreeIDs() {
		free[id] = struct{}{}
	}

	seen := make([]bool, n)
	root := src.Root()
	seen[root] = true
	reached := 1

	stack := []frame{{id: root, level: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := src.Chunk(f.id)
		if f.id != root {
			if common, ok := c.Uniform(); ok {
				return &ValidationError{
					Type:    "Collapse",
					Message: fmt.Sprintf("all links equal %s", common),
					Chunk:   int64(f.id),
					Details: map[string]interface{}{"level": f.level},
				}
			}
		}

		for sel, link := range c.Links {
			if link.IsLeaf() {
				continue
			}
			child := link.Child()
			if f.level == chunks.Depth-1 {
				return &ValidationError{
					Type:    "Tree",
					Message: fmt.Sprintf("child link %d below the last level", child),
					Chunk:   int64(f.id),
					Details: map[string]interface{}{"selector": sel},
				}
			}
			if uint64(child) >= uint64(n) {
				return &ValidationError{
					Type:    "Tree",
					Message: fmt.Sprintf("child %d out of range (arena length %d)", child, n),
					Chunk:   int64(f.id),
					Details: map[string]interface{}{"selector": sel},
				}
			}
			if _, ok := free[child]; ok {
				return &ValidationError{
					Type:    "Tree",
					Message: fmt.Sprintf("child %d is in the free pool", child),
					Chunk:   int64(f.id),
					Details: map[string]interface{}{"selector": sel},
				}
			}
			if seen[child] {
				return &ValidationError{
					Type:    "Tree",
					Message: fmt.Sprintf("child %d reached twice", child),
					Chunk:   int64(f.id),
					Details: map[string]interface{}{"selector": sel},
				}
			}
			seen[child] = true
			reached++
			stack = append(stack, frame{id: child, level: f.level + 1})
		}
	}

	if reached+len(free) != n {
		return &ValidationError{
			Type:    "Leak",
			Message: fmt.Sprintf("%d chunks neither reachable nor free", n-reached-len(free)),
			Chunk:   -1,
			Details: map[string]interface{}{
				"arena":     n,
				"reachable": reached,
				"free":      len(free),
			},
		}
	}
	return nil
}

// Trimmed checks that the last arena slot is live unless the arena has a
// single chunk.
func Trimmed(src Source) error {
	n := src.Len()
	if n <= 1 {
		return nil
	}
	last := uint32(n - 1)
	free := src.FreeIDs()
	if len(free) > 0 && free[len(free)-1] == last {
		return &ValidationError{
			Type:    "Trim",
			Message: "last arena slot is free",
			Chunk:   int64(last),
		}
	}
	return nil
}
