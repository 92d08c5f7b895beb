package main

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/proc"
)

// sessionEntry is kshell's side record for one exec'd process: the
// PCB itself (for ps/inspect) and the context a later pt-create/
// pt-join command needs to act as that process's own thread.
type sessionEntry struct {
	p    *proc.Proc_t
	ctx  context.Context
	done chan struct{}
}

// shellProc stands in for the process that would exec this session's
// children in a real shell. It exists purely so proc.Execute has a
// CurProc to link each child's wait-status into, and so proc.Wait has
// somewhere to look one up from.
var shellProc = &proc.Proc_t{Children: list.New()}
var shellCtx = proc.CurProc.With(context.Background(), shellProc)

var (
	sessMu sync.Mutex
	sess   = map[defs.Pid_t]*sessionEntry{}
)

var (
	fsys  fs.Fs_i
	alloc mem.Allocator_i
)

func register(pid defs.Pid_t, p *proc.Proc_t, ctx context.Context, done chan struct{}) {
	sessMu.Lock()
	sess[pid] = &sessionEntry{p: p, ctx: ctx, done: done}
	sessMu.Unlock()
}

func lookup(pid defs.Pid_t) (*sessionEntry, bool) {
	sessMu.Lock()
	defer sessMu.Unlock()
	e, ok := sess[pid]
	return e, ok
}

func allSessions() []*sessionEntry {
	sessMu.Lock()
	defer sessMu.Unlock()
	out := make([]*sessionEntry, 0, len(sess))
	for _, e := range sess {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].p.Pid < out[j].p.Pid })
	return out
}
