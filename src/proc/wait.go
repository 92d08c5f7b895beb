package proc

import (
	"sync"
	"sync/atomic"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/ksync"
)

// WaitStatus_t is the parent/child rendezvous record: heap-allocated,
// shared between exactly one parent (through its children list) and
// one child (through its PCB). refCnt starts at 2, one share per
// endpoint; the record is done for once both sides have released
// their share.
type WaitStatus_t struct {
	mu       sync.Mutex
	Pid      defs.Pid_t
	ExitCode int
	Dead     *ksync.Sema_t
	refCnt   int32
}

// mkWaitStatus returns a fresh wait-status for a child with the given
// pid, ref_cnt = 2, exit_code = -1 and a dead-semaphore at 0.
func mkWaitStatus(pid defs.Pid_t) *WaitStatus_t {
	return &WaitStatus_t{
		Pid:      pid,
		ExitCode: -1,
		Dead:     ksync.MkSema(0),
		refCnt:   2,
	}
}

// SetExitCode records the child's exit code. Must happen strictly
// before Signal, so the parent's wait — woken by Signal — always
// observes it.
func (w *WaitStatus_t) SetExitCode(code int) {
	w.mu.Lock()
	w.ExitCode = code
	w.mu.Unlock()
}

// ExitCodeValue reads back the recorded exit code.
func (w *WaitStatus_t) ExitCodeValue() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ExitCode
}

// Signal ups the dead-semaphore, waking a blocked parent wait.
func (w *WaitStatus_t) Signal() {
	w.Dead.Up()
}

// Release drops this endpoint's share of the record, reporting
// whether both endpoints have now released it.
func (w *WaitStatus_t) Release() bool {
	return atomic.AddInt32(&w.refCnt, -1) == 0
}
