package proc_test

import (
	"container/list"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/proc"
)

// rootCtx stands in for the shell-level process that proc.Execute
// links a freshly started child's wait-status into, so proc.Wait has
// somewhere to find it by pid. Mirrors cmd/kshell's shellProc.
func rootCtx() context.Context {
	root := &proc.Proc_t{Children: list.New()}
	return proc.CurProc.With(context.Background(), root)
}

// writeTestElf builds the smallest file elfload.Load accepts: one
// PT_LOAD segment, ET_EXEC/EM_386/ELFCLASS32.
func writeTestElf(t *testing.T, dir, name string) {
	t.Helper()
	const ehdrSize, phdrSize = 52, 32
	code := []byte{0x90, 0x90, 0x90, 0x90}
	vaddr := uint32(0x08048000 + ehdrSize)

	buf := make([]byte, ehdrSize+phdrSize+len(code))
	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4], buf[5], buf[6] = 1, 1, 1
	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)
	le.PutUint16(buf[18:], 3)
	le.PutUint32(buf[20:], 1)
	le.PutUint32(buf[24:], vaddr)
	le.PutUint32(buf[28:], ehdrSize)
	le.PutUint16(buf[40:], ehdrSize)
	le.PutUint16(buf[42:], phdrSize)
	le.PutUint16(buf[44:], 1)

	ph := buf[ehdrSize:]
	le.PutUint32(ph[0:], 1)
	le.PutUint32(ph[4:], ehdrSize)
	le.PutUint32(ph[8:], vaddr)
	le.PutUint32(ph[16:], uint32(len(code)))
	le.PutUint32(ph[20:], uint32(len(code)))
	le.PutUint32(ph[24:], 1|4)
	copy(buf[ehdrSize+phdrSize:], code)

	if err := os.WriteFile(filepath.Join(dir, name), buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func newSession(t *testing.T) fs.Fs_i {
	t.Helper()
	dir := t.TempDir()
	writeTestElf(t, dir, "prog")
	return fs.NewHostFs(dir)
}

func TestExecuteWaitRoundTrip(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()
	ctx := rootCtx()

	var gotArgv []string
	entry := func(ctx context.Context, argv []string) {
		gotArgv = argv
		proc.Exit(ctx, 7)
	}

	pid, err := proc.Execute(ctx, "prog a b", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}

	code := proc.Wait(ctx, pid)
	if code != 7 {
		t.Errorf("Wait returned %d, want 7", code)
	}
	if len(gotArgv) != 3 || gotArgv[0] != "prog" {
		t.Errorf("argv = %v", gotArgv)
	}
}

func TestWaitUnknownPidReturnsNegativeOne(t *testing.T) {
	if code := proc.Wait(context.Background(), defs.Pid_t(999999)); code != -1 {
		t.Errorf("Wait on unknown pid = %d, want -1", code)
	}
}

func TestImplicitExitWhenUserMainReturns(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()
	ctx := rootCtx()

	entry := func(ctx context.Context, argv []string) {}

	pid, err := proc.Execute(ctx, "prog", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
	if code := proc.Wait(ctx, pid); code != 0 {
		t.Errorf("implicit exit code = %d, want 0", code)
	}
}

func TestPthreadExecuteJoinLifecycle(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()
	ctx := rootCtx()

	var mu sync.Mutex
	ran := false

	entry := func(ctx context.Context, argv []string) {
		body := func(ctx context.Context) {
			mu.Lock()
			ran = true
			mu.Unlock()
		}
		tid, err := proc.PthreadExecute(ctx, body)
		if err != 0 {
			t.Errorf("PthreadExecute failed: %d", err)
			proc.Exit(ctx, 1)
			return
		}
		if _, err := proc.PthreadJoin(ctx, tid); err != 0 {
			t.Errorf("PthreadJoin failed: %d", err)
		}
		proc.Exit(ctx, 0)
	}

	pid, err := proc.Execute(ctx, "prog", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
	if code := proc.Wait(ctx, pid); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	mu.Lock()
	defer mu.Unlock()
	if !ran {
		t.Error("spawned thread body never ran")
	}
}

func TestPthreadJoinUnknownTidFails(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()

	done := make(chan defs.Err_t, 1)
	entry := func(ctx context.Context, argv []string) {
		_, err := proc.PthreadJoin(ctx, defs.Tid_t(123456))
		done <- err
		proc.Exit(ctx, 0)
	}

	_, err := proc.Execute(context.Background(), "prog", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
	if got := <-done; got == 0 {
		t.Error("PthreadJoin on unknown tid should fail")
	}
}

func TestLockAcquireRejectsDoubleAcquireBySameThread(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()

	result := make(chan bool, 1)
	entry := func(ctx context.Context, argv []string) {
		p, _ := proc.CurProc.From(ctx)
		ut, _ := proc.CurThread.From(ctx)
		idx, ok := p.LockInit(ut.Tid)
		if !ok {
			result <- false
			proc.Exit(ctx, 1)
			return
		}
		if !p.LockAcquire(idx, ut.Tid) {
			result <- false
			proc.Exit(ctx, 1)
			return
		}
		// Second acquire by the same thread must fail rather than
		// deadlock.
		result <- !p.LockAcquire(idx, ut.Tid)
		proc.Exit(ctx, 0)
	}

	_, err := proc.Execute(context.Background(), "prog", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
	if !<-result {
		t.Error("LockAcquire allowed the same thread to acquire twice")
	}
}

// TestConcurrentExecSharedAllocatorPreservesArgv execs several children
// against one shared mem.Pool_t at once, the way cmd/kshell shares a
// single allocator across every exec'd session. Each child's argv
// frame is written into a page handed out by the shared pool while
// other goroutines are concurrently calling Alloc on it;
// if the pool ever moved an in-flight page out from under a writer, a
// child would come back with a zeroed or mismatched argv instead of
// the one it was started with.
func TestConcurrentExecSharedAllocatorPreservesArgv(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()
	ctx := rootCtx()

	const n = 12
	type outcome struct {
		argv []string
		code int
	}
	results := make([]outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("child-%d", i)
			entry := func(ctx context.Context, argv []string) {
				results[i].argv = argv
				proc.Exit(ctx, i)
			}
			pid, err := proc.Execute(ctx, "prog "+want, fsys, alloc, nil, entry)
			if err != 0 {
				t.Errorf("Execute %d failed: %d", i, err)
				return
			}
			results[i].code = proc.Wait(ctx, pid)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		want := fmt.Sprintf("child-%d", i)
		if r.code != i {
			t.Errorf("child %d: exit code = %d, want %d", i, r.code, i)
		}
		if len(r.argv) != 2 || r.argv[0] != "prog" || r.argv[1] != want {
			t.Errorf("child %d: argv = %v, want [prog %s]", i, r.argv, want)
		}
	}
}

func TestSemaInitRejectsNegativeValue(t *testing.T) {
	fsys := newSession(t)
	alloc := mem.NewPool()

	result := make(chan bool, 1)
	entry := func(ctx context.Context, argv []string) {
		p, _ := proc.CurProc.From(ctx)
		_, ok := p.SemaInit(-1)
		result <- ok
		proc.Exit(ctx, 0)
	}

	_, err := proc.Execute(context.Background(), "prog", fsys, alloc, nil, entry)
	if err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
	if <-result {
		t.Error("SemaInit accepted a negative initial value")
	}
}
