// Package fd implements the per-process file-descriptor table: an
// ordered list of {handle, file} with a next-handle counter starting
// at 2 — handles 0 and 1 are reserved for stdin/stdout.
package fd

import "github.com/cynic01/Operating-System-Project/src/fdops"

// firstHandle is the first handle sys_open ever hands out; 0 and 1
// are reserved for stdin/stdout.
const firstHandle = 2

// Fd_t is one open file descriptor.
type Fd_t struct {
	Handle int
	Fops   fdops.Fdops_i
}

// Table_t is a process's file-descriptor table: an ordered list of
// open descriptors plus the next handle to hand out.
type Table_t struct {
	entries []Fd_t
	next    int
}

// MkTable returns an empty file-descriptor table whose first handle
// is 2.
func MkTable() *Table_t {
	return &Table_t{next: firstHandle}
}

// Add inserts fops into the table and returns its newly assigned
// handle.
func (t *Table_t) Add(fops fdops.Fdops_i) int {
	h := t.next
	t.next++
	t.entries = append(t.entries, Fd_t{Handle: h, Fops: fops})
	return h
}

// Get returns the descriptor for handle, if open.
func (t *Table_t) Get(handle int) (*Fd_t, bool) {
	for i := range t.entries {
		if t.entries[i].Handle == handle {
			return &t.entries[i], true
		}
	}
	return nil, false
}

// Remove detaches handle from the table and returns it, if it was
// open. The caller is responsible for calling Fops.Close().
func (t *Table_t) Remove(handle int) (Fd_t, bool) {
	for i := range t.entries {
		if t.entries[i].Handle == handle {
			fd := t.entries[i]
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return fd, true
		}
	}
	return Fd_t{}, false
}

// All returns every currently open descriptor, in insertion order.
// The returned slice is a copy; mutating it does not affect the
// table.
func (t *Table_t) All() []Fd_t {
	out := make([]Fd_t, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of open descriptors.
func (t *Table_t) Len() int {
	return len(t.entries)
}
