// Package tinfo provides task-local state carried on a
// context.Context in place of a global, per-goroutine "current
// thread" pointer: state set at task bootstrap and never nullable
// mid-operation. A context.Context value is exactly that — derived
// contexts always see the value their ancestor set, it is never
// mutated in place, and it disappears when the context (and the
// goroutine holding it) goes out of scope. Slot[T] gives each layer
// (proc.Proc_t, proc.UThread_t) its own strongly typed context key
// instead of a single stringly-typed "current thread" global.
package tinfo

import "context"

// Slot is a typed context key for one kind of task-local value. It is
// not zero-sized, so every NewSlot allocation has its own address and
// two slots never compare equal as context keys.
type Slot[T any] struct{ _ byte }

// NewSlot creates a fresh, independent slot for values of type T.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// With returns a derived context carrying v in this slot.
func (s *Slot[T]) With(ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, s, v)
}

// From returns the value stored in this slot, if any.
func (s *Slot[T]) From(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(s).(T)
	return v, ok
}

// MustFrom returns the value stored in this slot and panics if it is
// absent — used where the core's own discipline guarantees the value
// was set at task bootstrap (e.g. every syscall handler runs with a
// current thread already installed).
func (s *Slot[T]) MustFrom(ctx context.Context) T {
	v, ok := s.From(ctx)
	if !ok {
		panic("tinfo: value missing from context")
	}
	return v
}
