package chat

import (
	"slices"
	"sync"
)

// Ring keeps the most recent records in insertion order. A zero MaxRecords
// keeps everything.
type Ring[T any] struct {
	records    []T
	lastIndex  int
	maxRecords int
	total      int

	mux sync.RWMutex
}

func NewRing[T any](maxRecords int) *Ring[T] {
	return &Ring[T]{
		lastIndex:  -1,
		maxRecords: max(maxRecords, 0),
	}
}

// Add appends a record, evicting the oldest one when the ring is full.
func (r *Ring[T]) Add(record T) {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.total++
	switch {
	case r.maxRecords == 0 || len(r.records) < r.maxRecords:
		r.records = append(r.records, record)
		r.lastIndex++
	default:
		i := (r.lastIndex + 1) % r.maxRecords
		r.records[i] = record
		r.lastIndex = i
	}
}

// Len is the number of records currently held.
func (r *Ring[T]) Len() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.records)
}

// Total is the number of records ever added.
func (r *Ring[T]) Total() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.total
}

// Last returns up to count of the newest records, oldest first.
// A negative count returns all of them.
func (r *Ring[T]) Last(count int) []T {
	r.mux.RLock()
	defer r.mux.RUnlock()

	n := len(r.records)
	if count < 0 || count > n {
		count = n
	}
	result := make([]T, count)
	if count == 0 {
		return result
	}

	head := 0
	if r.maxRecords > 0 && n == r.maxRecords {
		head = (r.lastIndex + 1) % n
	}
	startIdx := (head + n - count) % n

	if startIdx+count <= n {
		copy(result, r.records[startIdx:startIdx+count])
	} else {
		n1 := n - startIdx
		copy(result, r.records[startIdx:])
		copy(result[n1:], r.records[:count-n1])
	}
	return result
}

// Newest returns all records, newest first.
func (r *Ring[T]) Newest() []T {
	records := r.Last(-1)
	slices.Reverse(records)
	return records
}

// Reset drops every record.
func (r *Ring[T]) Reset() {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.records = nil
	r.lastIndex = -1
	r.total = 0
}
