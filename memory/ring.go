package memory

// Ring is a fixed-capacity FIFO buffer. Appending beyond capacity evicts
// the oldest item, never the newest. It is also used standalone as a
// generic utility; single-threaded use is assumed, see the package doc.
type Ring[T any] struct {
	items    []T
	capacity int
}

// NewRing creates a ring buffer holding at most capacity items.
// Capacities below 1 are clamped to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an item, evicting the oldest when the buffer is full.
func (r *Ring[T]) Append(item T) {
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = item
		return
	}
	r.items = append(r.items, item)
}

// Items returns a snapshot of all items, oldest to newest. The caller may
// mutate the returned slice freely.
func (r *Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Recent returns the last min(n, Len) items, oldest to newest. n <= 0
// yields an empty slice.
func (r *Ring[T]) Recent(n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n > len(r.items) {
		n = len(r.items)
	}
	out := make([]T, n)
	copy(out, r.items[len(r.items)-n:])
	return out
}

// Clear drops all items. Capacity is unchanged.
func (r *Ring[T]) Clear() {
	r.items = r.items[:0]
}

// Len returns the current number of items.
func (r *Ring[T]) Len() int {
	return len(r.items)
}

// Capacity returns the maximum number of items the buffer holds.
func (r *Ring[T]) Capacity() int {
	return r.capacity
}
