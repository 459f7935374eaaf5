package kvo

import (
	"errors"
	"fmt"
)

// ErrReentrantUpdate is returned by Update when the property is already in
// the middle of an update, typically because a subscriber tried to set the
// property it is being notified about.
var ErrReentrantUpdate = errors.New("kvo: already updating")

// Notifier is the capability a host supplies to reach its subscribers.
// Notify receives the value held before the update; the current value is
// available through the property's Get.
type Notifier[T any] interface {
	Notify(old T) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc[T any] func(old T) error

// Notify calls f(old).
func (f NotifierFunc[T]) Notify(old T) error {
	return f(old)
}

// Property holds a value of type T and notifies its Notifier whenever the
// value is replaced through Update.
type Property[T any] struct {
	value    T
	updating bool
	notifier Notifier[T]
}

// NewProperty creates a property holding initial. No notification is sent
// for the initial value. A nil notifier disables notifications.
func NewProperty[T any](initial T, notifier Notifier[T]) *Property[T] {
	return &Property[T]{value: initial, notifier: notifier}
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	return p.value
}

// Updating reports whether an Update is in progress.
func (p *Property[T]) Updating() bool {
	return p.updating
}

// Update stores v and then notifies with the previous value. It returns
// ErrReentrantUpdate without touching the value if another Update on the
// same property has not returned yet. A notifier error is returned wrapped;
// the new value stays in place.
func (p *Property[T]) Update(v T) error {
	release, err := p.acquire()
	if err != nil {
		return err
	}
	defer release()

	old := p.value
	p.value = v

	if p.notifier == nil {
		return nil
	}
	if err := p.notifier.Notify(old); err != nil {
		return fmt.Errorf("notifying subscribers: %w", err)
	}
	return nil
}

// acquire takes the update guard and returns the func that gives it back.
// The release func must run on every exit path, including panics.
func (p *Property[T]) acquire() (func(), error) {
	if p.updating {
		return nil, ErrReentrantUpdate
	}
	p.updating = true
	return func() { p.updating = false }, nil
}
