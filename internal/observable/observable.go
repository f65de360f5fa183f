// Package observable provides a typed publish/subscribe primitive.
//
// Observers are notified in subscription order from the publishing
// goroutine. Removing an observer while a notification is in flight is
// allowed; observers that must fire at most once guard themselves.
package observable

import "sync"

// Token identifies one subscription.
type Token uint64

type entry[T any] struct {
	token Token
	fn    func(T)
}

// Observable fans a value out to all current observers.
type Observable[T any] struct {
	mu        sync.Mutex
	next      Token
	observers []entry[T]
}

// New creates an observable with no observers.
func New[T any]() *Observable[T] {
	return &Observable[T]{}
}

// Add subscribes fn and returns its token.
func (o *Observable[T]) Add(fn func(T)) Token {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	o.observers = append(o.observers, entry[T]{token: o.next, fn: fn})
	return o.next
}

// Remove unsubscribes token. It reports whether the token was subscribed.
func (o *Observable[T]) Remove(token Token) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, e := range o.observers {
		if e.token == token {
			o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Notify calls every observer subscribed at the time of the call.
func (o *Observable[T]) Notify(v T) {
	o.mu.Lock()
	snapshot := make([]entry[T], len(o.observers))
	copy(snapshot, o.observers)
	o.mu.Unlock()

	for _, e := range snapshot {
		e.fn(v)
	}
}

// Len returns the number of observers.
func (o *Observable[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observers)
}
