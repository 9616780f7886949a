package chunks

import "sync"

// Locked serializes access to an Index: many concurrent readers, one writer.
type Locked struct {
	mu sync.RWMutex
	ix *Index
}

// NewLocked wraps ix. The caller must not use ix directly afterwards.
func NewLocked(ix *Index) *Locked {
	return &Locked{ix: ix}
}

// Get returns the block id at (x, y, z, w) under the read lock.
func (l *Locked) Get(x, y, z, w uint32) BlockID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ix.Get(x, y, z, w)
}

// Set stores id at (x, y, z, w) under the write lock.
func (l *Locked) Set(x, y, z, w uint32, id BlockID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ix.Set(x, y, z, w, id)
}

// Stats returns arena counters under the read lock.
func (l *Locked) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ix.Stats()
}

// With runs fn with exclusive access to the index, for batched writes.
func (l *Locked) With(fn func(*Index) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.ix)
}

// View runs fn with shared access to the index. fn must not call Set.
func (l *Locked) View(fn func(*Index)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.ix)
}
