package proc

import (
	"github.com/cynic01/Operating-System-Project/src/accnt"
	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/kthread"
	"github.com/cynic01/Operating-System-Project/src/mem"
)

// UThread_t is the per-process user-thread entry: a thread's presence
// in its owning process's thread table. Its primitive-thread pointer
// and join-status are non-owning handles — the PCB's UThreads table
// and JoinList own the canonical references; this struct only points
// back.
type UThread_t struct {
	Thread      *kthread.Thread_t
	Tid         defs.Tid_t
	WaitedOn    bool
	Completed   bool
	Initialized bool

	Kpa   mem.Pa_t
	Kpage *mem.Page_t
	Upage uintptr
	Offset int

	Join *JoinStatus_t

	Acct    *accnt.Accnt_t
	StartNs int64
}
