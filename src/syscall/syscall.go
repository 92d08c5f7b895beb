// Package syscall implements the thin system-call surface: argument
// marshalling and user-pointer validation over the core in src/proc,
// src/fd and src/vm. Real dispatch (decoding call number and arguments
// off the interrupt frame) is out of scope; every function here
// instead takes its already-decoded Go-typed arguments directly, the
// way a kernel's per-syscall handler body would once the trampoline
// has copied them in.
package syscall

import (
	"context"
	"math"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/proc"
)

// handleSize is the width, in bytes, of the opaque lock/sema handle: a
// small byte value in [0..256).
const handleSize = 1

func curProc(ctx context.Context) (*proc.Proc_t, bool) {
	return proc.CurProc.From(ctx)
}

func curThread(ctx context.Context) (*proc.UThread_t, bool) {
	return proc.CurThread.From(ctx)
}

// killForBadPointer terminates the calling process immediately in
// response to an invalid user pointer.
func killForBadPointer(ctx context.Context) {
	proc.Exit(ctx, defs.KernelExitCode)
}

// Halt implements syscall 0. There is no physical machine to power off
// in this hosted simulation; the call is a documented no-op standing
// in for it.
func Halt(ctx context.Context) {}

// Exit implements syscall 1.
func Exit(ctx context.Context, code int) {
	proc.Exit(ctx, code)
}

// Exec implements syscall 2. entry is the hosted substitute for
// jumping to the loaded ELF's entry point (CPU context transfer is out
// of scope here); it is not a real syscall argument.
func Exec(ctx context.Context, cmdline string, entry proc.UserMain) int {
	p, ok := curProc(ctx)
	if !ok {
		return -1
	}
	pid, err := proc.Execute(ctx, cmdline, p.Fsys, p.Alloc, p.Stdout, entry)
	if err != 0 {
		return -1
	}
	return int(pid)
}

// Wait implements syscall 3.
func Wait(ctx context.Context, pid int) int {
	return proc.Wait(ctx, defs.Pid_t(pid))
}

// Create implements syscall 4.
func Create(ctx context.Context, path string, size int) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	return p.Fsys.Create(path, size)
}

// Remove implements syscall 5.
func Remove(ctx context.Context, path string) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	return p.Fsys.Remove(path)
}

// Open implements syscall 6. Returns -1 on any open failure.
func Open(ctx context.Context, path string) int {
	p, ok := curProc(ctx)
	if !ok {
		return -1
	}
	fops, err := p.Fsys.Open(path)
	if err != 0 {
		return -1
	}
	return p.Fds.Add(fops)
}

// Filesize implements syscall 7. An invalid fd kills the process.
func Filesize(ctx context.Context, fd int) int {
	p, ok := curProc(ctx)
	if !ok {
		return -1
	}
	entry, ok := p.Fds.Get(fd)
	if !ok {
		killForBadPointer(ctx)
		return -1
	}
	n, err := entry.Fops.Size()
	if err != 0 {
		killForBadPointer(ctx)
		return -1
	}
	return n
}

// Read implements syscall 8: read into a kernel buffer, then copy-out
// to user memory at va. The user range is validated by the copy-out,
// after the file read; an invalid range kills the process. fd 1
// (stdout) is not readable; fd 0 (stdin) has no backing console device
// in this hosted simulation and always reports EOF.
func Read(ctx context.Context, fd int, va uintptr, n int) int {
	p, ok := curProc(ctx)
	if !ok {
		return -1
	}
	if fd == 1 {
		killForBadPointer(ctx)
		return -1
	}
	if fd == 0 {
		return 0
	}
	entry, ok := p.Fds.Get(fd)
	if !ok {
		killForBadPointer(ctx)
		return -1
	}
	buf := make([]uint8, n)
	got, err := entry.Fops.Read(buf)
	if err != 0 {
		return -1
	}
	if got > 0 {
		if err := p.AS.K2user(buf[:got], va); err != 0 {
			killForBadPointer(ctx)
			return -1
		}
	}
	return got
}

// Write implements syscall 9: copy-in the user buffer at va, then
// write it out. fd 1 (stdout) writes to the process's configured
// output; fd 0 (stdin) is not writable.
func Write(ctx context.Context, fd int, va uintptr, n int) int {
	p, ok := curProc(ctx)
	if !ok {
		return -1
	}
	if fd == 0 {
		killForBadPointer(ctx)
		return -1
	}
	buf := make([]uint8, n)
	if err := p.AS.User2k(buf, va); err != 0 {
		killForBadPointer(ctx)
		return -1
	}
	if fd == 1 {
		if p.Stdout == nil {
			return n
		}
		w, err := p.Stdout.Write(buf)
		if err != nil {
			return -1
		}
		return w
	}
	entry, ok := p.Fds.Get(fd)
	if !ok {
		killForBadPointer(ctx)
		return -1
	}
	w, err := entry.Fops.Write(buf)
	if err != 0 {
		return -1
	}
	return w
}

// Seek implements syscall 10.
func Seek(ctx context.Context, fd int, pos int) int {
	p, ok := curProc(ctx)
	if !ok {
		return 0
	}
	entry, ok := p.Fds.Get(fd)
	if !ok {
		killForBadPointer(ctx)
		return 0
	}
	entry.Fops.Seek(pos)
	return 0
}

// Tell implements syscall 11.
func Tell(ctx context.Context, fd int) int {
	p, ok := curProc(ctx)
	if !ok {
		return 0
	}
	entry, ok := p.Fds.Get(fd)
	if !ok {
		killForBadPointer(ctx)
		return 0
	}
	n, _ := entry.Fops.Tell()
	return n
}

// Close implements syscall 12.
func Close(ctx context.Context, fd int) int {
	p, ok := curProc(ctx)
	if !ok {
		return 0
	}
	entry, ok := p.Fds.Remove(fd)
	if !ok {
		killForBadPointer(ctx)
		return 0
	}
	entry.Fops.Close()
	return 0
}

// Practice implements syscall 13.
func Practice(n int) int { return n + 1 }

// ComputeE implements syscall 14: floor(e_n), where e_n is the
// Maclaurin approximation sum_{i=0}^{n} 1/i!.
func ComputeE(n int) int {
	if n < 0 {
		return -1
	}
	sum := 0.0
	term := 1.0
	for i := 0; i <= n; i++ {
		if i > 0 {
			term /= float64(i)
		}
		sum += term
	}
	return int(math.Floor(sum))
}

// PtCreate implements syscall 15. fn is the hosted substitute for the
// stub/fn/arg triple (see proc.PthreadFn).
func PtCreate(ctx context.Context, fn proc.PthreadFn) int {
	tid, err := proc.PthreadExecute(ctx, fn)
	if err != 0 {
		return -1
	}
	return int(tid)
}

// PtExit implements syscall 16.
func PtExit(ctx context.Context) {
	proc.PthreadExit(ctx)
}

// PtJoin implements syscall 17.
func PtJoin(ctx context.Context, tid int) int {
	got, err := proc.PthreadJoin(ctx, defs.Tid_t(tid))
	if err != 0 {
		return -1
	}
	return int(got)
}

// handleIdx reads the slot index out of a 1-byte user handle,
// rejecting a null (zero) address.
func handleIdx(p *proc.Proc_t, h uintptr) (int, bool) {
	if h == 0 {
		return 0, false
	}
	v, err := p.AS.Userreadn(h, handleSize)
	if err != 0 {
		return 0, false
	}
	return v, true
}

// LockInit implements syscall 18.
func LockInit(ctx context.Context, h uintptr) bool {
	p, ok := curProc(ctx)
	if !ok || h == 0 {
		return false
	}
	ut, ok := curThread(ctx)
	if !ok {
		return false
	}
	idx, ok := p.LockInit(ut.Tid)
	if !ok {
		return false
	}
	if err := p.AS.Userwriten(h, handleSize, idx); err != 0 {
		killForBadPointer(ctx)
		return false
	}
	return true
}

// LockAcquire implements syscall 19.
func LockAcquire(ctx context.Context, h uintptr) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	ut, ok := curThread(ctx)
	if !ok {
		return false
	}
	idx, ok := handleIdx(p, h)
	if !ok {
		return false
	}
	return p.LockAcquire(idx, ut.Tid)
}

// LockRelease implements syscall 20.
func LockRelease(ctx context.Context, h uintptr) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	ut, ok := curThread(ctx)
	if !ok {
		return false
	}
	idx, ok := handleIdx(p, h)
	if !ok {
		return false
	}
	return p.LockRelease(idx, ut.Tid)
}

// SemaInit implements syscall 21.
func SemaInit(ctx context.Context, h uintptr, val int) bool {
	p, ok := curProc(ctx)
	if !ok || h == 0 || val < 0 {
		return false
	}
	idx, ok := p.SemaInit(val)
	if !ok {
		return false
	}
	if err := p.AS.Userwriten(h, handleSize, idx); err != 0 {
		killForBadPointer(ctx)
		return false
	}
	return true
}

// SemaDown implements syscall 22.
func SemaDown(ctx context.Context, h uintptr) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	idx, ok := handleIdx(p, h)
	if !ok {
		return false
	}
	return p.SemaDown(idx)
}

// SemaUp implements syscall 23.
func SemaUp(ctx context.Context, h uintptr) bool {
	p, ok := curProc(ctx)
	if !ok {
		return false
	}
	idx, ok := handleIdx(p, h)
	if !ok {
		return false
	}
	return p.SemaUp(idx)
}

// GetTid implements syscall 24.
func GetTid(ctx context.Context) int {
	ut, ok := curThread(ctx)
	if !ok {
		return int(defs.ErrTid)
	}
	return int(ut.Tid)
}
