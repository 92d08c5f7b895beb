package proc

import (
	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/ksync"
	"github.com/cynic01/Operating-System-Project/src/limits"
)

// LockSlot_t is one entry of a process's 256-slot user-visible lock
// table.
type LockSlot_t struct {
	Initialized bool
	OwnerTid    defs.Tid_t
	Prim        *ksync.Lock_t
}

// SemaSlot_t is one entry of a process's 256-slot user-visible
// semaphore table.
type SemaSlot_t struct {
	Initialized bool
	Prim        *ksync.Sema_t
}

// LockTable_t and SemaTable_t are the fixed tables indexed by the
// small opaque byte handle user code holds.
type LockTable_t [limits.LockSlots]LockSlot_t
type SemaTable_t [limits.SemaSlots]SemaSlot_t

// LockInit finds the first uninitialized lock slot, marks it
// initialized under the process thread lock, and returns its index.
// The slot starts unheld: OwnerTid names the current holder and is set
// only by LockAcquire, so creator is not recorded. Returns ok=false
// when every slot is in use.
func (p *Proc_t) LockInit(creator defs.Tid_t) (idx int, ok bool) {
	p.ThreadLock.Lock()
	defer p.ThreadLock.Unlock()
	for i := range p.Locks {
		if !p.Locks[i].Initialized {
			p.Locks[i] = LockSlot_t{Initialized: true, Prim: &ksync.Lock_t{}}
			return i, true
		}
	}
	return 0, false
}

// LockAcquire rejects an uninitialized slot or a slot already held by
// caller, otherwise blocks on the primitive lock (outside the process
// thread lock, since a blocking wait must never hold it) and records
// caller as owner.
func (p *Proc_t) LockAcquire(idx int, caller defs.Tid_t) bool {
	p.ThreadLock.Lock()
	if idx < 0 || idx >= len(p.Locks) || !p.Locks[idx].Initialized {
		p.ThreadLock.Unlock()
		return false
	}
	if p.Locks[idx].OwnerTid == caller {
		p.ThreadLock.Unlock()
		return false
	}
	prim := p.Locks[idx].Prim
	p.ThreadLock.Unlock()

	prim.Acquire()

	p.ThreadLock.Lock()
	p.Locks[idx].OwnerTid = caller
	p.ThreadLock.Unlock()
	return true
}

// LockRelease rejects a slot not owned by caller or uninitialized,
// otherwise releases the primitive lock and clears the owner.
func (p *Proc_t) LockRelease(idx int, caller defs.Tid_t) bool {
	p.ThreadLock.Lock()
	if idx < 0 || idx >= len(p.Locks) || !p.Locks[idx].Initialized || p.Locks[idx].OwnerTid != caller {
		p.ThreadLock.Unlock()
		return false
	}
	prim := p.Locks[idx].Prim
	p.Locks[idx].OwnerTid = 0
	p.ThreadLock.Unlock()

	prim.Release()
	return true
}

// SemaInit rejects a negative value, otherwise allocates a free slot
// initialized to val.
func (p *Proc_t) SemaInit(val int) (idx int, ok bool) {
	if val < 0 {
		return 0, false
	}
	p.ThreadLock.Lock()
	defer p.ThreadLock.Unlock()
	for i := range p.Semas {
		if !p.Semas[i].Initialized {
			p.Semas[i] = SemaSlot_t{Initialized: true, Prim: ksync.MkSema(val)}
			return i, true
		}
	}
	return 0, false
}

// SemaDown rejects an uninitialized slot, otherwise blocks on the
// primitive semaphore.
func (p *Proc_t) SemaDown(idx int) bool {
	prim, ok := p.semaPrim(idx)
	if !ok {
		return false
	}
	prim.Down()
	return true
}

// SemaUp ups the primitive semaphore at idx.
func (p *Proc_t) SemaUp(idx int) bool {
	prim, ok := p.semaPrim(idx)
	if !ok {
		return false
	}
	prim.Up()
	return true
}

func (p *Proc_t) semaPrim(idx int) (*ksync.Sema_t, bool) {
	p.ThreadLock.Lock()
	defer p.ThreadLock.Unlock()
	if idx < 0 || idx >= len(p.Semas) || !p.Semas[idx].Initialized {
		return nil, false
	}
	return p.Semas[idx].Prim, true
}

// resetSyncTables clears both tables to uninitialized, as
// pthread_exit_main does before process teardown.
func (p *Proc_t) resetSyncTables() {
	p.ThreadLock.Lock()
	defer p.ThreadLock.Unlock()
	p.Locks = LockTable_t{}
	p.Semas = SemaTable_t{}
}

// allocOffset claims the lowest free stack-offset slot (>= 2),
// scanning the bitmap under the process thread lock for the whole
// scan-and-claim so two threads can never race onto the same slot.
func (p *Proc_t) allocOffset() (int, bool) {
	p.ThreadLock.Lock()
	defer p.ThreadLock.Unlock()
	for i := 2; i < limits.OffsetSlots; i++ {
		if !p.Offsets[i] {
			p.Offsets[i] = true
			return i, true
		}
	}
	return 0, false
}

// freeOffset releases offset slot i back to the pool.
func (p *Proc_t) freeOffset(i int) {
	p.ThreadLock.Lock()
	p.Offsets[i] = false
	p.ThreadLock.Unlock()
}
