package syscall_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/proc"
	"github.com/cynic01/Operating-System-Project/src/syscall"
)

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

// runInProcess execs a throwaway process and runs fn with its context,
// the way every syscall here expects to be called: with a context
// carrying the calling process and thread.
func runInProcess(t *testing.T, fn func(ctx context.Context)) {
	t.Helper()
	dir := t.TempDir()
	writeTestElf(t, dir, "prog")
	fsys := fs.NewHostFs(dir)
	alloc := mem.NewPool()

	entry := func(ctx context.Context, argv []string) {
		fn(ctx)
		proc.Exit(ctx, 0)
	}
	if _, err := proc.Execute(context.Background(), "prog", fsys, alloc, nil, entry); err != 0 {
		t.Fatalf("Execute failed: %d", err)
	}
}

func TestComputeE(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 2},
		{2, 2},
		{-1, -1},
	}
	for _, c := range cases {
		if got := syscall.ComputeE(c.n); got != c.want {
			t.Errorf("ComputeE(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestPractice(t *testing.T) {
	if got := syscall.Practice(41); got != 42 {
		t.Errorf("Practice(41) = %d, want 42", got)
	}
}

func TestGetTid(t *testing.T) {
	done := make(chan int, 1)
	runInProcess(t, func(ctx context.Context) {
		done <- syscall.GetTid(ctx)
	})
	if tid := <-done; tid <= 0 {
		t.Errorf("GetTid = %d, want a positive tid", tid)
	}
}

func TestWriteToStdinFailsThenReadStdinReportsEOF(t *testing.T) {
	got := make(chan int, 2)
	runInProcess(t, func(ctx context.Context) {
		got <- syscall.Write(ctx, 0, 0, 1) // fd 0 not writable
		got <- syscall.Read(ctx, 0, 0, 8)  // fd 0 has no backing device: EOF
	})
	if w := <-got; w != -1 {
		t.Errorf("Write(fd=0) = %d, want -1", w)
	}
	if r := <-got; r != 0 {
		t.Errorf("Read(fd=0) = %d, want 0 (EOF)", r)
	}
}

func TestLockSemaRoundTrip(t *testing.T) {
	done := make(chan bool, 1)
	runInProcess(t, func(ctx context.Context) {
		p, _ := proc.CurProc.From(ctx)
		ut, _ := proc.CurThread.From(ctx)

		idx, ok := p.SemaInit(1)
		if !ok {
			done <- false
			return
		}
		ok1 := p.SemaDown(idx)
		p.SemaUp(idx)

		lidx, ok := p.LockInit(ut.Tid)
		if !ok {
			done <- false
			return
		}
		ok2 := p.LockAcquire(lidx, ut.Tid)
		ok3 := p.LockRelease(lidx, ut.Tid)

		done <- ok1 && ok2 && ok3
	})
	if !<-done {
		t.Error("lock/sema round trip failed")
	}
}
