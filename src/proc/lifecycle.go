package proc

import (
	"container/list"
	"context"
	"fmt"
	"io"

	"github.com/cynic01/Operating-System-Project/src/accnt"
	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/elfload"
	"github.com/cynic01/Operating-System-Project/src/fd"
	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/hashtable"
	"github.com/cynic01/Operating-System-Project/src/ksync"
	"github.com/cynic01/Operating-System-Project/src/kthread"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/vm"
)

// UserMain plays the role of the compiled user program; interrupt
// trampolines and CPU context setup are external collaborators this
// subsystem never models directly. Rather than interpreting machine
// code, this subsystem runs the program as a Go closure: it receives
// the already-validated argv and a context carrying its process and
// main thread, and is expected to call Exit itself exactly as a
// compiled program calls sys_exit. A UserMain that returns without
// exiting is treated as an implicit exit(0).
type UserMain func(ctx context.Context, argv []string)

// execInfo_t is process_execute's handshake record with start_process.
type execInfo_t struct {
	Cmdline  string
	LoadDone *ksync.Sema_t
	Success  bool
	Wait     *WaitStatus_t

	fsys  fs.Fs_i
	alloc mem.Allocator_i
	out   io.Writer
	entry UserMain
}

// Execute spawns a primitive thread to load and run cmdline, waits for
// it to finish loading, and on success links its wait-status into the
// caller's children list.
func Execute(ctx context.Context, cmdline string, fsys fs.Fs_i, alloc mem.Allocator_i, out io.Writer, entry UserMain) (defs.Pid_t, defs.Err_t) {
	ei := &execInfo_t{
		Cmdline:  cmdline,
		LoadDone: ksync.MkSema(0),
		fsys:     fsys,
		alloc:    alloc,
		out:      out,
		entry:    entry,
	}

	name := firstToken(cmdline)
	kthread.Spawn(truncName(name), func() { startProcess(ei) })

	ei.LoadDone.Down()
	if !ei.Success {
		return defs.ErrTid, defs.EINVAL
	}

	if parent, ok := CurProc.From(ctx); ok {
		parent.ThreadLock.Lock()
		parent.Children.PushBack(ei.Wait)
		parent.ThreadLock.Unlock()
	}
	return ei.Wait.Pid, 0
}

func firstToken(cmdline string) string {
	for i, c := range cmdline {
		if c == ' ' {
			return cmdline[:i]
		}
	}
	return cmdline
}

// startProcess builds a fresh PCB, loads the binary into its own
// address space, and runs it, all in the freshly spawned primitive
// thread.
func startProcess(ei *execInfo_t) {
	p := &Proc_t{
		Fsys:     ei.fsys,
		Alloc:    ei.alloc,
		Stdout:   ei.out,
		Children: list.New(),
		Fds:      fd.MkTable(),
		UThreads: hashtable.MkHash[defs.Tid_t, *UThread_t](uthreadTableSize),
		JoinList: list.New(),
	}
	p.Name = truncName(firstToken(ei.Cmdline))
	p.Pid = newTid()
	p.Acct = &accnt.Accnt_t{}

	mainJoin := mkJoinStatus(p.Pid, 2)
	p.JoinList.PushBack(mainJoin)
	mainAcct := &accnt.Accnt_t{}
	mainUT := &UThread_t{Tid: p.Pid, Initialized: true, Join: mainJoin, Offset: 1, Acct: mainAcct, StartNs: mainAcct.Now()}
	p.UThreads.Set(p.Pid, mainUT)
	p.MainThread = mainUT
	p.ThreadCounter = 1
	p.Offsets[0] = true
	p.Offsets[1] = true

	ws := mkWaitStatus(p.Pid)
	p.Wait = ws
	ei.Wait = ws

	ctx := CurProc.With(context.Background(), p)
	ctx = CurThread.With(ctx, mainUT)

	res, err := elfload.Load(ei.Cmdline, ei.fsys, ei.alloc)
	if err != 0 {
		ei.Success = false
		ei.LoadDone.Up()
		return
	}
	p.AS = res.AS
	p.Exec = res.Exec
	mainUT.Upage = vm.PhysBase - vm.PageSize

	ei.Success = true
	ei.LoadDone.Up()

	runUser(ctx, p, res.Argv, ei.entry)
}

// runUser drives a process's simulated user-mode execution and
// guarantees exit runs exactly once, whether the program calls Exit
// itself or simply returns.
func runUser(ctx context.Context, p *Proc_t, argv []string, entry UserMain) {
	if entry != nil {
		entry(ctx, argv)
	}
	Exit(ctx, 0)
}

// Exit tears down the calling process. It is idempotent: only the
// first call for a given process performs teardown.
func Exit(ctx context.Context, code int) {
	p, ok := CurProc.From(ctx)
	if !ok {
		return
	}
	p.exitOnce.Do(func() { exitOnce(p, code) })
}

func exitOnce(p *Proc_t, code int) {
	p.ThreadLock.Lock()
	p.Exiting = true
	if p.MainThread != nil && p.MainThread.Acct != nil {
		p.MainThread.Acct.Finish(p.MainThread.StartNs)
		if p.Acct != nil {
			p.Acct.Add(p.MainThread.Acct)
		}
	}
	p.ThreadLock.Unlock()

	if p.Exec != nil {
		p.Exec.Close()
	}

	p.ThreadLock.Lock()
	for e := p.Children.Front(); e != nil; {
		next := e.Next()
		cw := e.Value.(*WaitStatus_t)
		cw.Release()
		p.Children.Remove(e)
		e = next
	}
	for e := p.JoinList.Front(); e != nil; {
		next := e.Next()
		p.JoinList.Remove(e)
		e = next
	}
	p.UThreads = hashtable.MkHash[defs.Tid_t, *UThread_t](uthreadTableSize)
	p.ThreadLock.Unlock()

	for _, entry := range p.Fds.All() {
		entry.Fops.Close()
		p.Fds.Remove(entry.Handle)
	}

	if p.AS != nil {
		p.AS.Detach()
		p.AS.Destroy()
	}

	if p.Wait != nil {
		if p.Stdout != nil {
			fmt.Fprintf(p.Stdout, "%s: exit(%d)\n", p.Name, code)
		}
		p.Wait.SetExitCode(code)
		p.Wait.Signal()
		p.Wait.Release()
	}
}

// Wait finds pid among this process's children, blocks on its
// dead-semaphore, consumes its exit code, and releases the
// wait-status. Returns -1 (and does not block) if no such live child
// exists — covers both "no such child" and "already waited."
func Wait(ctx context.Context, pid defs.Pid_t) int {
	p, ok := CurProc.From(ctx)
	if !ok {
		return -1
	}

	p.ThreadLock.Lock()
	var found *list.Element
	for e := p.Children.Front(); e != nil; e = e.Next() {
		if e.Value.(*WaitStatus_t).Pid == pid {
			found = e
			break
		}
	}
	if found != nil {
		p.Children.Remove(found)
	}
	p.ThreadLock.Unlock()

	if found == nil {
		return -1
	}

	ws := found.Value.(*WaitStatus_t)
	ws.Dead.Down()
	code := ws.ExitCodeValue()
	ws.Release()
	return code
}

// Activate returns the address space that would be made active if a
// real CPU and TSS existed, so a caller modeling a context switch can
// observe the same decision the kernel would make — this process's
// address space if it has one, nil (standing in for the kernel-only
// directory) otherwise.
func Activate(ctx context.Context) *vm.AddressSpace_t {
	if p, ok := CurProc.From(ctx); ok && p.AS != nil {
		return p.AS
	}
	return nil
}
