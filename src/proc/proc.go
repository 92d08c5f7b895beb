// Package proc is the core of the subsystem: the process control
// block, the user-thread table, the wait/join rendezvous records, and
// the process and thread lifecycle state machines built on top of
// them, grounded on its sibling packages (vm, mem, fd, fs) and on the
// standard library's container/list for the children and join-status
// lists.
package proc

import (
	"container/list"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cynic01/Operating-System-Project/src/accnt"
	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/fd"
	"github.com/cynic01/Operating-System-Project/src/fdops"
	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/hashtable"
	"github.com/cynic01/Operating-System-Project/src/limits"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/tinfo"
	"github.com/cynic01/Operating-System-Project/src/vm"
)

// maxNameLen bounds a process name to a fixed width: at most 15
// characters plus a NUL terminator.
const maxNameLen = 15

// CurProc and CurThread are the task-local slots that carry the
// running process and thread instead of a global mutable pointer.
// Every entry point
// into the core — a syscall handler, a spawned primitive thread's
// body — receives a context.Context carrying both, set once at thread
// bootstrap and never mutated afterward.
var (
	CurProc   = tinfo.NewSlot[*Proc_t]()
	CurThread = tinfo.NewSlot[*UThread_t]()
)

var nextTid int64

// newTid mints a fresh thread id. In real Pintos this is assigned by
// the scheduler when a primitive thread is created; here the core
// mints it itself since kthread.Thread_t carries no identity of its
// own.
func newTid() defs.Tid_t {
	return defs.Tid_t(atomic.AddInt64(&nextTid, 1))
}

// Proc_t is the process control block: the per-process aggregate of
// everything the subsystem tracks about a running program.
type Proc_t struct {
	AS         *vm.AddressSpace_t
	Name       string
	Exec       fdops.Fdops_i
	Fsys       fs.Fs_i
	Alloc      mem.Allocator_i
	Stdout     io.Writer

	Pid        defs.Pid_t
	MainThread *UThread_t

	// Children holds this process's children's *WaitStatus_t, one per
	// spawned child.
	Children *list.List
	// Wait is this process's own wait-status, shared with its parent.
	// Nil for the initial process, which has no parent.
	Wait *WaitStatus_t

	Fds *fd.Table_t

	// ThreadLock serializes every mutation of UThreads, JoinList,
	// Locks, Semas, Offsets and ThreadCounter.
	ThreadLock    sync.Mutex
	UThreads      *hashtable.Hashtable_t[defs.Tid_t, *UThread_t]
	JoinList      *list.List // of *JoinStatus_t
	ThreadCounter int

	Locks   LockTable_t
	Semas   SemaTable_t
	Offsets [limits.OffsetSlots]bool

	Exiting  bool
	exitOnce sync.Once

	Acct *accnt.Accnt_t
}

// truncName applies the fixed-width process name rule.
func truncName(name string) string {
	if len(name) > maxNameLen {
		return name[:maxNameLen]
	}
	return name
}

// uthreadTableSize is the bucket count for a process's user-thread
// table; processes rarely run more than a handful of live threads.
const uthreadTableSize = 16

// getUThread returns the table entry for tid, if any. Callers must
// hold p.ThreadLock.
func (p *Proc_t) getUThread(tid defs.Tid_t) (*UThread_t, bool) {
	return p.UThreads.Get(tid)
}

// ensureUThread returns the existing entry for tid, creating an
// uninitialized one if absent. Callers must hold p.ThreadLock.
func (p *Proc_t) ensureUThread(tid defs.Tid_t) *UThread_t {
	if ut, ok := p.UThreads.Get(tid); ok {
		return ut
	}
	ut := &UThread_t{Tid: tid, Acct: &accnt.Accnt_t{}, StartNs: time.Now().UnixNano()}
	p.UThreads.Set(tid, ut)
	return ut
}

// removeUThread deletes tid's entry, if any. Callers must hold
// p.ThreadLock.
func (p *Proc_t) removeUThread(tid defs.Tid_t) {
	p.UThreads.Del(tid)
}
