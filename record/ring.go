package record

import (
	"context"
	"sync"
)

// Ring keeps the most recent records in memory
type Ring struct {
	mu      sync.RWMutex
	records []Record
	// next is the slot the next record is written to
	next int
	full bool
}

// NewRing returns a Ring holding up to size records
func NewRing(size int) *Ring {

	if size < 1 {
		size = 1
	}

	return &Ring{
		records: make([]Record, size),
	}
}

// Name returns the sink name
func (r *Ring) Name() string {
	return "memory"
}

// Write adds the record, replacing the oldest once the ring is full
func (r *Ring) Write(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)

	if r.next == 0 {
		r.full = true
	}

	return nil
}

// Close is a no-op
func (r *Ring) Close() error {
	return nil
}

// Len returns the number of records held
func (r *Ring) Len() int {
	if r == nil {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.full {
		return len(r.records)
	}

	return r.next
}

// Recent returns up to limit records, newest first.  A limit of 0 or less
// returns all records held.  A nil Ring holds no records
func (r *Ring) Recent(limit int) []Record {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.records)
	}

	if limit <= 0 || limit > count {
		limit = count
	}

	res := make([]Record, 0, limit)

	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.records)) % len(r.records)
		res = append(res, r.records[idx])
	}

	return res
}
