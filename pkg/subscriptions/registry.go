package subscriptions

import (
	"sync"

	"github.com/gamefold/gamefold-go/pkg/log"
)

// Handler is a callback registered against a Registry.
type Handler[T any] func(value T)

// UnregisterFunc removes a previously registered handler. Calling it more
// than once is a no-op.
type UnregisterFunc func()

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// Registry is an ordered list of callbacks. Handlers are invoked in
// registration order and a panicking handler does not stop the rest.
type Registry[T any] struct {
	lock          sync.Mutex
	nextID        uint64
	subscriptions []subscription[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Register adds a handler and returns its unregister function.
func (r *Registry[T]) Register(handler Handler[T]) UnregisterFunc {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.nextID++
	id := r.nextID
	r.subscriptions = append(r.subscriptions, subscription[T]{id: id, handler: handler})
	return func() {
		r.unregister(id)
	}
}

func (r *Registry[T]) unregister(id uint64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, sub := range r.subscriptions {
		if sub.id == id {
			r.subscriptions = append(r.subscriptions[:i], r.subscriptions[i+1:]...)
			return
		}
	}
}

// NotifyAll invokes every registered handler with value in registration
// order. Panics are contained per handler.
func (r *Registry[T]) NotifyAll(value T) {
	r.lock.Lock()
	subscriptions := make([]subscription[T], len(r.subscriptions))
	copy(subscriptions, r.subscriptions)
	r.lock.Unlock()

	for _, sub := range subscriptions {
		notify(sub.handler, value)
	}
}

func notify[T any](handler Handler[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Subscriber callback panicked: %v", r)
		}
	}()
	handler(value)
}

// Len returns the number of registered handlers.
func (r *Registry[T]) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.subscriptions)
}
