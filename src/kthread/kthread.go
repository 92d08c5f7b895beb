// Package kthread stands in for the underlying thread scheduler,
// treated as an external collaborator — here, a goroutine wrapper
// with a name and join support, playing the role of a primitive,
// scheduler-level thread.
package kthread

// Thread_t is a primitive (scheduler-level) thread of execution.
type Thread_t struct {
	Name string
	done chan struct{}
}

// Spawn starts fn on a new primitive thread named name and returns a
// handle for joining it. fn runs to completion on its own goroutine;
// Spawn never fails in this hosted model.
func Spawn(name string, fn func()) *Thread_t {
	t := &Thread_t{Name: name, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		fn()
	}()
	return t
}

// Wait blocks until the primitive thread started by Spawn returns.
func (t *Thread_t) Wait() {
	<-t.done
}
