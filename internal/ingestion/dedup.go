package ingestion

import (
	"container/list"
	"sync"
)

// DefaultDedupCapacity bounds the signature memory of the deduplicator.
const DefaultDedupCapacity = 10000

// Deduplicator tracks recently seen signatures in a bounded LRU set.
// When full, the least recently seen signature is evicted.
type Deduplicator struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recent
	entries  map[string]*list.Element // element value is the signature
}

// NewDeduplicator creates a deduplicator holding up to capacity signatures.
func NewDeduplicator(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Deduplicator{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// ShouldProcess reports whether the signature is new, recording it as
// seen. Concurrent calls with the same signature yield exactly one true.
func (d *Deduplicator) ShouldProcess(signature string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elem, seen := d.entries[signature]; seen {
		d.order.MoveToFront(elem)
		return false
	}

	d.entries[signature] = d.order.PushFront(signature)

	if d.order.Len() > d.capacity {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.entries, oldest.Value.(string))
	}

	return true
}

// Len returns the number of tracked signatures.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
