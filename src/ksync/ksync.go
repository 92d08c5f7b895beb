// Package ksync provides the primitive lock and semaphore that the
// process subsystem treats as given, scheduler-backed collaborators.
// The user-visible lock/semaphore tables (proc.LockTable_t,
// proc.SemaTable_t) wrap one of these per slot; this package never
// appears in the syscall surface itself.
package ksync

import "sync"

// Lock_t is a primitive mutual-exclusion lock.
type Lock_t struct {
	mu sync.Mutex
}

// Acquire blocks until the lock is held.
func (l *Lock_t) Acquire() {
	l.mu.Lock()
}

// Release releases the lock.
func (l *Lock_t) Release() {
	l.mu.Unlock()
}

// Sema_t is a primitive counting semaphore.
type Sema_t struct {
	mu     sync.Mutex
	cond   *sync.Cond
	counts int
}

// MkSema returns a semaphore initialized to val.
func MkSema(val int) *Sema_t {
	s := &Sema_t{counts: val}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Down blocks until the semaphore's count is positive, then
// decrements it.
func (s *Sema_t) Down() {
	s.mu.Lock()
	for s.counts == 0 {
		s.cond.Wait()
	}
	s.counts--
	s.mu.Unlock()
}

// TryDown decrements the semaphore without blocking, reporting
// whether it succeeded.
func (s *Sema_t) TryDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == 0 {
		return false
	}
	s.counts--
	return true
}

// Up increments the semaphore's count, waking one waiter if any.
func (s *Sema_t) Up() {
	s.mu.Lock()
	s.counts++
	s.mu.Unlock()
	s.cond.Signal()
}
