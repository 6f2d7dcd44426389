// Package observable provides a small publish/subscribe value holder.
//
// A Value behaves like a UI store: subscribers are called once with the
// current value when they subscribe and again on every Set, in subscription
// order, on the goroutine that called Set.
package observable

import "sync"

// Value holds a value of type T and notifies subscribers when it changes
type Value[T any] struct {
	mu          sync.RWMutex
	value       T
	nextID      uint64
	subscribers []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewValue creates a Value holding initial
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores value and notifies every subscriber
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	subs := make([]subscriber[T], len(v.subscribers))
	copy(subs, v.subscribers)
	v.mu.Unlock()

	// Notify outside the lock so subscribers may call Get or Set
	for _, s := range subs {
		s.fn(value)
	}
}

// Update applies fn to the current value and stores the result
func (v *Value[T]) Update(fn func(T) T) {
	v.Set(fn(v.Get()))
}

// Subscribe registers fn, calls it with the current value, and returns a
// function that removes the subscription. The returned function is idempotent.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	v.subscribers = append(v.subscribers, subscriber[T]{id: id, fn: fn})
	current := v.value
	v.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, s := range v.subscribers {
				if s.id == id {
					v.subscribers = append(v.subscribers[:i:i], v.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of active subscriptions
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subscribers)
}
