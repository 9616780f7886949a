// Package dirty tracks which chunks of an index arena were modified, so that
// only those parts of the packed arena need to be re-uploaded or rewritten.
//
// The tracker records raw chunk ids as they are modified, then page-aligns,
// sorts and merges them into ranges at flush time.
package dirty

import (
	"context"
	"sort"
)

const (
	// defaultIDCapacity is the pre-allocated capacity for dirty ids.
	// One Set touches at most a few dozen chunks.
	defaultIDCapacity = 64

	// DefaultPageChunks is the default alignment of flushed ranges, in chunks.
	// 64 chunks of 64 bytes make a 4KB page.
	DefaultPageChunks = 64

	// chunkBytes is the size of one chunk in the packed arena layout.
	chunkBytes = 64
)

// Range is a run of consecutive chunk ids.
type Range struct {
	Start uint32 // First chunk id
	Len   uint32 // Number of chunks
}

// End returns the first id after the range.
func (r Range) End() uint32 { return r.Start + r.Len }

// Bytes returns the byte offset and length of the range in the packed arena.
func (r Range) Bytes() (off, length int64) {
	return int64(r.Start) * chunkBytes, int64(r.Len) * chunkBytes
}

// Tracker accumulates dirty chunk ids and flushes them as coalesced ranges.
//
// NOT thread-safe. Only one goroutine should use it at a time, which is
// already the case when it is attached to a single index.
type Tracker struct {
	ids      []uint32
	pageSize uint32 // alignment in chunks
}

// NewTracker creates a tracker aligning ranges to pageChunks chunks.
// A pageChunks of 0 uses DefaultPageChunks; 1 disables alignment.
func NewTracker(pageChunks uint32) *Tracker {
	if pageChunks == 0 {
		pageChunks = DefaultPageChunks
	}
	return &Tracker{
		ids:      make([]uint32, 0, defaultIDCapacity),
		pageSize: pageChunks,
	}
}

// Add records a dirty chunk id.
//
// This only appends to a slice; alignment and merging happen in Ranges.
func (t *Tracker) Add(id uint32) {
	t.ids = append(t.ids, id)
}

// Truncate forgets ids >= n after the arena shrank to n chunks.
func (t *Tracker) Truncate(n uint32) {
	kept := t.ids[:0]
	for _, id := range t.ids {
		if id < n {
			kept = append(kept, id)
		}
	}
	t.ids = kept
}

// Len returns the number of recorded (uncoalesced) ids.
func (t *Tracker) Len() int { return len(t.ids) }

// Ranges returns the coalesced dirty ranges without clearing them.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Flush calls fn for every coalesced dirty range in ascending order and then
// clears the tracker.
//
// The context can be used to cancel between ranges. If cancelled or if fn
// fails, nothing is cleared, so the next Flush starts over.
func (t *Tracker) Flush(ctx context.Context, fn func(Range) error) error {
	if len(t.ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	t.ids = t.ids[:0]
	return nil
}

// Reset clears all tracked ids.
func (t *Tracker) Reset() {
	t.ids = t.ids[:0]
}

// DebugIDs returns a copy of the raw, uncoalesced ids (for testing/debugging).
func (t *Tracker) DebugIDs() []uint32 {
	result := make([]uint32, len(t.ids))
	copy(result, t.ids)
	return result
}

// coalesce page-aligns all ids, sorts them, and merges overlapping/adjacent ranges.
// The last range ends right after the highest dirty id, never past the arena.
func (t *Tracker) coalesce() []Range {
	if len(t.ids) == 0 {
		return nil
	}

	var limit uint64
	for _, id := range t.ids {
		if uint64(id)+1 > limit {
			limit = uint64(id) + 1
		}
	}

	aligned := make([]Range, len(t.ids))
	for i, id := range t.ids {
		start := (id / t.pageSize) * t.pageSize
		end := uint64(start) + uint64(t.pageSize)
		if end > limit {
			end = limit
		}
		aligned[i] = Range{Start: start, Len: uint32(end - uint64(start))}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Start < aligned[j].Start
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Start <= current.End() {
			if next.End() > current.End() {
				current.Len = next.End() - current.Start
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}
