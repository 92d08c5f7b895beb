package proc

import (
	"sync"
	"sync/atomic"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/ksync"
)

// JoinStatus_t is the thread/joiner rendezvous record, parallel to
// WaitStatus_t. Each user thread owns its own join-status from
// creation; at most one joiner may ever consume it.
//
// Every join-status, main thread's included, is created with
// ref_cnt = 2 — one share for the thread itself, one for a prospective
// joiner — and pthread_exit_main releases its own share symmetrically
// with pthread_exit (see thread.go), rather than leaking main's share
// the way a calloc-zeroed ref_cnt would.
type JoinStatus_t struct {
	mu       sync.Mutex
	Tid      defs.Tid_t
	WaitedOn bool
	Sema     *ksync.Sema_t
	refCnt   int32
}

// mkJoinStatus returns a fresh join-status for tid with the given
// initial reference count.
func mkJoinStatus(tid defs.Tid_t, refCnt int32) *JoinStatus_t {
	return &JoinStatus_t{Tid: tid, Sema: ksync.MkSema(0), refCnt: refCnt}
}

// markWaitedOn marks the record as claimed by a joiner, reporting
// whether it was available to claim.
func (j *JoinStatus_t) markWaitedOn() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.WaitedOn {
		return false
	}
	j.WaitedOn = true
	return true
}

// Release drops one reference, reporting whether the record is now
// unreferenced.
func (j *JoinStatus_t) Release() bool {
	return atomic.AddInt32(&j.refCnt, -1) == 0
}
