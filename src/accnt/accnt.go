// Package accnt accumulates per-thread and per-process CPU accounting.
// It is ambient bookkeeping: no process or thread operation depends on
// it, but every process and user thread carries one, and the debug
// CLI's ps table (cmd/kshell) surfaces it.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"
)

// Accnt_t accumulates user and system nanoseconds consumed. The
// embedded mutex lets Add/Fetch take a consistent snapshot.
type Accnt_t struct {
	Userns int64 /// nanoseconds of user time consumed
	Sysns  int64 /// nanoseconds of system time consumed
	sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt_t) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt_t) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Now returns the current time in nanoseconds since the Unix epoch.
func (a *Accnt_t) Now() int64 {
	return time.Now().UnixNano()
}

// Finish adds the time elapsed since inttime to the system-time
// counter.
func (a *Accnt_t) Finish(inttime int64) {
	a.Systadd(a.Now() - inttime)
}

// Add merges another accounting record into this one.
func (a *Accnt_t) Add(n *Accnt_t) {
	n.Lock()
	du, ds := n.Userns, n.Sysns
	n.Unlock()

	a.Lock()
	a.Userns += du
	a.Sysns += ds
	a.Unlock()
}

// Snapshot is a consistent, lock-free copy of an Accnt_t's counters.
type Snapshot struct {
	Userns int64
	Sysns  int64
}

// Fetch returns a consistent snapshot of the accounting information.
func (a *Accnt_t) Fetch() Snapshot {
	a.Lock()
	defer a.Unlock()
	return Snapshot{Userns: a.Userns, Sysns: a.Sysns}
}
