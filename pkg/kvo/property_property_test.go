package kvo

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// Property: Update Reports Pre-Update Value
// For any sequence of updates, the notifier sees exactly the sequence of
// values held before each update, and Get returns the last value written.
func TestProperty_UpdateReportsPreUpdateValue(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := rapid.Int().Draw(rt, "initial")
		updates := rapid.SliceOfN(rapid.Int(), 0, 50).Draw(rt, "updates")

		var olds []int
		p := NewProperty[int](initial, NotifierFunc[int](func(old int) error {
			olds = append(olds, old)
			return nil
		}))

		expected := make([]int, 0, len(updates))
		prev := initial
		for _, v := range updates {
			if err := p.Update(v); err != nil {
				rt.Fatalf("Update(%d): %v", v, err)
			}
			expected = append(expected, prev)
			prev = v
		}

		if p.Get() != prev {
			rt.Fatalf("Get() = %d, want %d", p.Get(), prev)
		}
		if len(olds) != len(expected) {
			rt.Fatalf("got %d notifications, want %d", len(olds), len(expected))
		}
		for i := range olds {
			if olds[i] != expected[i] {
				rt.Fatalf("notification %d: old = %d, want %d", i, olds[i], expected[i])
			}
		}
	})
}

// Property: Guard Never Sticks
// Whatever mix of succeeding and failing notifications runs, the guard is
// released after every Update and the value always matches the last write.
func TestProperty_GuardNeverSticks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		failNext := false
		p := NewProperty[string]("", NotifierFunc[string](func(string) error {
			if failNext {
				return errors.New("notification failed")
			}
			return nil
		}))

		for i := 0; i < steps; i++ {
			failNext = rapid.Bool().Draw(rt, "fail")
			v := rapid.String().Draw(rt, "value")

			err := p.Update(v)
			if failNext && err == nil {
				rt.Fatalf("step %d: expected notifier error", i)
			}
			if !failNext && err != nil {
				rt.Fatalf("step %d: unexpected error: %v", i, err)
			}
			if p.Updating() {
				rt.Fatalf("step %d: guard still held after Update returned", i)
			}
			if p.Get() != v {
				rt.Fatalf("step %d: Get() = %q, want %q", i, p.Get(), v)
			}
		}
	})
}

// Property: Nested Updates Never Apply
// A subscriber that always tries to write back never changes the value the
// outer Update stored.
func TestProperty_NestedUpdatesNeverApply(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		outer := rapid.Int().Draw(rt, "outer")
		inner := rapid.Int().Draw(rt, "inner")

		var p *Property[int]
		var nested error
		p = NewProperty[int](0, NotifierFunc[int](func(int) error {
			nested = p.Update(inner)
			return nil
		}))

		if err := p.Update(outer); err != nil {
			rt.Fatalf("outer Update: %v", err)
		}
		if !errors.Is(nested, ErrReentrantUpdate) {
			rt.Fatalf("nested Update error = %v, want ErrReentrantUpdate", nested)
		}
		if p.Get() != outer {
			rt.Fatalf("Get() = %d, want %d", p.Get(), outer)
		}
	})
}
