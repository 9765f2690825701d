// Package ringbuffer provides a bounded, thread-safe FIFO that drops the
// oldest entry when full.
package ringbuffer

import "sync"

// RingBuffer holds at most capacity items.
type RingBuffer[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

// New creates a ring buffer with the given capacity (default 1000).
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an item, evicting the oldest if necessary.
func (b *RingBuffer[T]) Enqueue(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueueLocked(item)
}

func (b *RingBuffer[T]) enqueueLocked(item T) {
	if b.count >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
	}
	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	b.count++
}

// DequeueBatch removes up to n of the oldest items.
func (b *RingBuffer[T]) DequeueBatch(n int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 || n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	var zero T
	result := make([]T, n)
	for i := range n {
		result[i] = b.items[b.tail]
		b.items[b.tail] = zero
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

// Snapshot returns the buffered items oldest first without removing them.
func (b *RingBuffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.count)
	for i := range b.count {
		out[i] = b.items[(b.tail+i)%b.capacity]
	}
	return out
}

// Replace discards the contents and loads items, keeping only the newest
// capacity entries. Eviction here is not counted as dropped.
func (b *RingBuffer[T]) Replace(items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(items) > b.capacity {
		items = items[len(items)-b.capacity:]
	}
	clear(b.items)
	b.head, b.tail, b.count = 0, 0, 0
	for _, it := range items {
		b.enqueueLocked(it)
	}
}

// Len returns the current number of buffered items.
func (b *RingBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *RingBuffer[T]) Cap() int { return b.capacity }

// Dropped returns how many items Enqueue evicted.
func (b *RingBuffer[T]) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
