package proc

import (
	"context"
	"fmt"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/ksync"
	"github.com/cynic01/Operating-System-Project/src/kthread"
	"github.com/cynic01/Operating-System-Project/src/vm"
)

// PthreadFn is the body of a spawned user thread. It stands in for the
// compiled "stub calls fn(arg)" pair a real implementation would use —
// fn and arg are ordinary Go closure state here, since interpreting
// raw user function pointers is out of scope. A PthreadFn that returns
// without calling PthreadExit is treated as an implicit pt_exit.
type PthreadFn func(ctx context.Context)

// threadNameWidth is the width a derived thread name is truncated to.
const threadNameWidth = 16

type threadArgs_t struct {
	fn       PthreadFn
	loadDone *ksync.Sema_t
	success  bool
	tid      defs.Tid_t
}

// PthreadExecute spawns a new user thread running fn in the calling
// process.
func PthreadExecute(ctx context.Context, fn PthreadFn) (defs.Tid_t, defs.Err_t) {
	p, ok := CurProc.From(ctx)
	if !ok {
		return defs.ErrTid, defs.ESRCH
	}

	p.ThreadLock.Lock()
	p.ThreadCounter++
	id := p.ThreadCounter
	p.ThreadLock.Unlock()

	name := fmt.Sprintf("%s-%d", p.Name, id)
	if len(name) > threadNameWidth {
		name = name[:threadNameWidth]
	}

	args := &threadArgs_t{fn: fn, loadDone: ksync.MkSema(0)}
	handle := kthread.Spawn(name, func() { startPthread(p, args) })

	args.loadDone.Down()
	if !args.success {
		return defs.ErrTid, defs.EAGAIN
	}

	p.ThreadLock.Lock()
	ut := p.ensureUThread(args.tid)
	ut.Thread = handle
	p.ThreadLock.Unlock()

	return args.tid, 0
}

// startPthread allocates the new thread's user stack page and runs its
// body, on the freshly spawned primitive thread.
func startPthread(p *Proc_t, args *threadArgs_t) {
	pa, _, ok := p.Alloc.Alloc()
	if !ok {
		args.success = false
		args.loadDone.Up()
		return
	}
	offset, ok := p.allocOffset()
	if !ok {
		p.Alloc.Refdown(pa)
		args.success = false
		args.loadDone.Up()
		return
	}
	upage := vm.PhysBase - uintptr(offset)*vm.PageSize
	if err := p.AS.Map(upage, pa, true); err != 0 {
		p.freeOffset(offset)
		p.Alloc.Refdown(pa)
		args.success = false
		args.loadDone.Up()
		return
	}

	tid := newTid()

	p.ThreadLock.Lock()
	ut := p.ensureUThread(tid)
	ut.Initialized = true
	ut.Kpa = pa
	ut.Upage = upage
	ut.Offset = offset
	join := mkJoinStatus(tid, 2)
	p.JoinList.PushBack(join)
	ut.Join = join
	p.ThreadLock.Unlock()

	args.tid = tid
	args.success = true
	args.loadDone.Up()

	ctx := CurProc.With(context.Background(), p)
	ctx = CurThread.With(ctx, ut)

	if args.fn != nil {
		args.fn(ctx)
	}
	PthreadExit(ctx)
}

// PthreadJoin blocks until tid exits, then releases its join-status.
func PthreadJoin(ctx context.Context, tid defs.Tid_t) (defs.Tid_t, defs.Err_t) {
	p, ok := CurProc.From(ctx)
	if !ok {
		return defs.ErrTid, defs.ESRCH
	}

	p.ThreadLock.Lock()
	found := findJoinStatus(p, tid)
	if found == nil || !found.markWaitedOn() {
		p.ThreadLock.Unlock()
		return defs.ErrTid, defs.EINVAL
	}
	removeJoinStatus(p, found)
	p.ThreadLock.Unlock()

	found.Sema.Down()
	found.Release()
	return tid, 0
}

func findJoinStatus(p *Proc_t, tid defs.Tid_t) *JoinStatus_t {
	for e := p.JoinList.Front(); e != nil; e = e.Next() {
		js := e.Value.(*JoinStatus_t)
		if js.Tid == tid {
			return js
		}
	}
	return nil
}

func removeJoinStatus(p *Proc_t, target *JoinStatus_t) {
	for e := p.JoinList.Front(); e != nil; e = e.Next() {
		if e.Value.(*JoinStatus_t) == target {
			p.JoinList.Remove(e)
			return
		}
	}
}

// PthreadExit tears down the calling thread, delegating to
// PthreadExitMain when called on the process's main thread.
func PthreadExit(ctx context.Context) {
	p, ok := CurProc.From(ctx)
	if !ok {
		return
	}
	ut, ok := CurThread.From(ctx)
	if !ok {
		return
	}
	if p.MainThread != nil && ut.Tid == p.MainThread.Tid {
		PthreadExitMain(ctx)
		return
	}

	p.ThreadLock.Lock()
	if ut.Completed {
		p.ThreadLock.Unlock()
		return
	}
	ut.Completed = true
	if ut.Acct != nil {
		ut.Acct.Finish(ut.StartNs)
		if p.Acct != nil {
			p.Acct.Add(ut.Acct)
		}
	}
	p.removeUThread(ut.Tid)
	p.ThreadLock.Unlock()

	if p.AS != nil {
		p.AS.Unmap(ut.Upage)
	}
	p.freeOffset(ut.Offset)

	if ut.Join != nil {
		ut.Join.Sema.Up()
		ut.Join.Release()
	}
}

// PthreadExitMain tears down the process's main thread. It ups its own
// join semaphore, joins every outstanding peer thread, then releases
// the join-status's own reference (symmetric with PthreadExit) before
// tearing the process down.
func PthreadExitMain(ctx context.Context) {
	p, ok := CurProc.From(ctx)
	if !ok {
		return
	}
	ut, ok := CurThread.From(ctx)
	if !ok {
		return
	}

	if ut.Join != nil {
		ut.Join.Sema.Up()
	}

	for {
		p.ThreadLock.Lock()
		var peer defs.Tid_t
		found := false
		for e := p.JoinList.Front(); e != nil; e = e.Next() {
			js := e.Value.(*JoinStatus_t)
			if js.Tid != ut.Tid {
				peer = js.Tid
				found = true
				break
			}
		}
		p.ThreadLock.Unlock()
		if !found {
			break
		}
		PthreadJoin(ctx, peer)
	}

	p.resetSyncTables()

	if p.AS != nil && ut.Upage != 0 {
		p.AS.Unmap(ut.Upage)
	}

	if ut.Join != nil {
		ut.Join.Release()
	}

	Exit(ctx, 0)
}
