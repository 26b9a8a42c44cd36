package queue

import "sync"

const (
	// DefaultBufferSize is the default maximum size of an in-memory queue.
	DefaultBufferSize = 1024
)

// InMemoryQueue implements an in-memory queue backed by a buffered
// channel.
type InMemoryQueue[T any] struct {
	ch   chan T
	lock sync.RWMutex
}

// NewInMemoryQueue creates a new queue with the given capacity. A
// non-positive capacity means DefaultBufferSize.
func NewInMemoryQueue[T any](capacity int) *InMemoryQueue[T] {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &InMemoryQueue[T]{
		ch: make(chan T, capacity),
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue[T]) Enqueue(item T) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue removes and returns the item from the front of the queue.
// The second return value is false when the queue is empty.
func (q *InMemoryQueue[T]) Dequeue() (T, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// C exposes the queue's channel for select-based consumption.
func (q *InMemoryQueue[T]) C() <-chan T {
	return q.ch
}

// Size returns the current size of the queue.
func (q *InMemoryQueue[T]) Size() int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return len(q.ch)
}

// ReadAll reads all pending items in the queue.
func (q *InMemoryQueue[T]) ReadAll() []T {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []T
	for len(q.ch) > 0 {
		items = append(items, <-q.ch)
	}

	return items
}

// Clear removes all items from the queue.
func (q *InMemoryQueue[T]) Clear() {
	q.lock.Lock()
	defer q.lock.Unlock()

	for len(q.ch) > 0 {
		<-q.ch
	}
}
