package kvo_test

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/gokvo/pkg/kvo"
)

// Thermostat is a hand-written host with one observable property.
type Thermostat struct {
	target      *kvo.Property[float64]
	subscribers kvo.Subscribers[float64]
}

func NewThermostat() *Thermostat {
	t := &Thermostat{}
	t.target = kvo.NewProperty[float64](20, &t.subscribers)
	return t
}

func (t *Thermostat) Target() float64 { return t.target.Get() }

func (t *Thermostat) SetTarget(v float64) error { return t.target.Update(v) }

func (t *Thermostat) SubscribeToTarget(fn func(old float64)) func() {
	return t.subscribers.Subscribe(fn)
}

func Example() {
	th := NewThermostat()
	th.SubscribeToTarget(func(old float64) {
		fmt.Printf("target changed from %.1f to %.1f\n", old, th.Target())
	})

	_ = th.SetTarget(21.5)
	_ = th.SetTarget(19)

	// Output:
	// target changed from 20.0 to 21.5
	// target changed from 21.5 to 19.0
}

func ExampleProperty_Update_reentrant() {
	var p *kvo.Property[int]
	p = kvo.NewProperty[int](1, kvo.NotifierFunc[int](func(old int) error {
		err := p.Update(old)
		fmt.Println("write-back rejected:", errors.Is(err, kvo.ErrReentrantUpdate))
		return nil
	}))

	_ = p.Update(2)
	fmt.Println("value:", p.Get())

	// Output:
	// write-back rejected: true
	// value: 2
}
