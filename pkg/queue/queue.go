package queue

import "errors"

// ErrQueueFull is returned when an enqueue would exceed the queue's
// capacity.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a basic typed queue.
type Queue[T any] interface {
	Enqueue(item T) error
	Dequeue() (T, bool)
	Size() int
	ReadAll() []T
	Clear()
}
