// Package limits tracks system-wide resource bounds: concurrent
// processes, the per-process lock/semaphore table sizes, and the
// per-process stack-offset slot space.
package limits

import "sync/atomic"

// Sysatomic_t is a numeric limit that can be atomically taken and
// given back.
type Sysatomic_t int64

// Taken tries to decrement the limit by n. It returns false (and
// leaves the limit unchanged) if doing so would take it negative.
func (s *Sysatomic_t) Taken(n uint) bool {
	g := atomic.AddInt64((*int64)(s), -int64(n))
	if g >= 0 {
		return true
	}
	atomic.AddInt64((*int64)(s), int64(n))
	return false
}

// Take decrements the limit by one and reports whether it succeeded.
func (s *Sysatomic_t) Take() bool {
	return s.Taken(1)
}

// Give increments the limit by one.
func (s *Sysatomic_t) Give() {
	atomic.AddInt64((*int64)(s), 1)
}

// Syslimit_t holds the system-wide bounds the core consults.
type Syslimit_t struct {
	// Sysprocs bounds the number of simultaneously live processes.
	Sysprocs Sysatomic_t
}

// LockSlots is the fixed size of a process's user-visible lock table.
const LockSlots = 256

// SemaSlots is the fixed size of a process's user-visible semaphore
// table.
const SemaSlots = 256

// OffsetSlots is the fixed size of the per-process stack-offset
// bitmap. Slots 0 and 1 are permanently reserved.
const OffsetSlots = 256

// MkSysLimit returns the default set of system-wide limits.
func MkSysLimit() *Syslimit_t {
	sl := &Syslimit_t{}
	sl.Sysprocs = 1 << 14
	return sl
}

// Syslimit is the global, process-wide configured limit set.
var Syslimit = MkSysLimit()
