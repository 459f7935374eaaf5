package kvo

import (
	"errors"
	"fmt"
)

// ErrSubscriberPanic wraps a panic recovered from a subscriber callback.
var ErrSubscriberPanic = errors.New("kvo: subscriber panicked")

type subscriber[T any] struct {
	id uint64
	fn func(old T)
}

// Subscribers is a host-side list of change callbacks. It implements
// Notifier, so a host can pass a pointer to it straight to NewProperty.
// The zero value is ready to use.
type Subscribers[T any] struct {
	nextID uint64
	list   []subscriber[T]
}

// Subscribe registers fn and returns a func that removes it again.
// Calling the returned func more than once is a no-op.
func (s *Subscribers[T]) Subscribe(fn func(old T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.list = append(s.list, subscriber[T]{id: id, fn: fn})
	return func() { s.remove(id) }
}

// Len returns the number of registered subscribers.
func (s *Subscribers[T]) Len() int {
	return len(s.list)
}

// Notify calls every subscriber in registration order. Changes to the list
// made from inside a callback only take effect for the next Notify.
// Panicking subscribers do not stop the others; their panics are returned
// as errors wrapping ErrSubscriberPanic.
func (s *Subscribers[T]) Notify(old T) error {
	snapshot := make([]subscriber[T], len(s.list))
	copy(snapshot, s.list)

	var errs []error
	for _, sub := range snapshot {
		if err := callSubscriber(sub, old); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Subscribers[T]) remove(id uint64) {
	for i, sub := range s.list {
		if sub.id == id {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			return
		}
	}
}

func callSubscriber[T any](sub subscriber[T], old T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: subscriber %d: %v", ErrSubscriberPanic, sub.id, r)
		}
	}()
	sub.fn(old)
	return nil
}
