// Package vm implements a process's address space: the simulated page
// directory plus the user/kernel copy-in/copy-out primitives the
// loader and the syscall surface depend on. It is a hosted simulation
// without demand paging, swapping or copy-on-write: every mapping here
// is installed eagerly (vm.Map) rather than resolved lazily from a
// page-fault handler, and there is no PTE_COW.
package vm

import (
	"sync"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/mem"
)

// PageSize is the granularity of every mapping.
const PageSize = mem.PGSIZE

// PhysBase is the first address above the user address space — the
// top of every process's stack region, mirroring Pintos's PHYS_BASE.
const PhysBase uintptr = 0xc0000000

// PageOffset returns the offset of va within its containing page.
func PageOffset(va uintptr) int {
	return int(va) & (PageSize - 1)
}

// PageFloor rounds va down to the start of its containing page.
func PageFloor(va uintptr) uintptr {
	return va &^ uintptr(PageSize-1)
}

type pte_t struct {
	pa       mem.Pa_t
	writable bool
}

// state_t tracks the address-space teardown sequence: Active ->
// Detached -> Destroyed. Detach marks the point at which a process's
// pagedir pointer would be cleared; a detached address space can no
// longer be looked up via the owning process, but its pages are not
// yet freed.
type state_t int

const (
	Active state_t = iota
	Detached
	Destroyed
)

// AddressSpace_t is one process's address space: a simulated page
// table plus the allocator backing it.
type AddressSpace_t struct {
	mu    sync.Mutex
	alloc mem.Allocator_i
	table map[uintptr]pte_t
	state state_t
}

// New creates an empty address space backed by alloc.
func New(alloc mem.Allocator_i) *AddressSpace_t {
	return &AddressSpace_t{alloc: alloc, table: make(map[uintptr]pte_t)}
}

// Map installs pa at the page-aligned address va with the given
// writable permission. It fails with EFAULT if va is already mapped.
func (as *AddressSpace_t) Map(va uintptr, pa mem.Pa_t, writable bool) defs.Err_t {
	if PageOffset(va) != 0 {
		panic("vm: unaligned mapping")
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.state != Active {
		panic("vm: map on non-active address space")
	}
	if _, ok := as.table[va]; ok {
		return defs.EFAULT
	}
	as.table[va] = pte_t{pa: pa, writable: writable}
	return 0
}

// Lookup returns the mapping for va's containing page, if any.
func (as *AddressSpace_t) Lookup(va uintptr) (mem.Pa_t, bool, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	pte, ok := as.table[PageFloor(va)]
	return pte.pa, pte.writable, ok
}

// Unmap removes the mapping for the page containing va and drops the
// allocator's reference to its backing page. It reports whether a
// mapping was present.
func (as *AddressSpace_t) Unmap(va uintptr) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	va = PageFloor(va)
	pte, ok := as.table[va]
	if !ok {
		return false
	}
	delete(as.table, va)
	as.alloc.Refdown(pte.pa)
	return true
}

// userSlice returns a []byte view of the page containing va, from its
// offset to the end of the page, failing EFAULT if unmapped and
// EACCES if a write was requested against a read-only page.
func (as *AddressSpace_t) userSlice(va uintptr, write bool) ([]uint8, defs.Err_t) {
	as.mu.Lock()
	pte, ok := as.table[PageFloor(va)]
	as.mu.Unlock()
	if !ok {
		return nil, defs.EFAULT
	}
	if write && !pte.writable {
		return nil, defs.EACCES
	}
	pg := as.alloc.Deref(pte.pa)
	return pg[PageOffset(va):], 0
}

// Userreadn reads n (<= 8) bytes from user address va as a
// little-endian integer.
func (as *AddressSpace_t) Userreadn(va uintptr, n int) (int, defs.Err_t) {
	if n > 8 {
		panic("vm: n too large")
	}
	var ret int
	for i := 0; i < n; {
		src, err := as.userSlice(va+uintptr(i), false)
		if err != 0 {
			return 0, err
		}
		l := n - i
		if len(src) < l {
			l = len(src)
		}
		for j := 0; j < l; j++ {
			ret |= int(src[j]) << (8 * uint(i+j))
		}
		i += l
	}
	return ret, 0
}

// Userwriten writes the low n bytes of val to user address va,
// little-endian.
func (as *AddressSpace_t) Userwriten(va uintptr, n, val int) defs.Err_t {
	if n > 8 {
		panic("vm: n too large")
	}
	for i := 0; i < n; {
		dst, err := as.userSlice(va+uintptr(i), true)
		if err != 0 {
			return err
		}
		l := n - i
		if len(dst) < l {
			l = len(dst)
		}
		for j := 0; j < l; j++ {
			dst[j] = uint8(val >> (8 * uint(i+j)))
		}
		i += l
	}
	return 0
}

// Userstr copies a NUL-terminated string from user memory starting at
// va, up to lenmax bytes (not counting the terminator). It fails with
// ENAMETOOLONG if no terminator is found in time.
func (as *AddressSpace_t) Userstr(va uintptr, lenmax int) (string, defs.Err_t) {
	var out []uint8
	for i := 0; ; {
		src, err := as.userSlice(va+uintptr(i), false)
		if err != 0 {
			return "", err
		}
		for j, c := range src {
			if c == 0 {
				out = append(out, src[:j]...)
				if len(out) > lenmax {
					return "", defs.ENAMETOOLONG
				}
				return string(out), 0
			}
		}
		out = append(out, src...)
		i += len(src)
		if len(out) > lenmax {
			return "", defs.ENAMETOOLONG
		}
	}
}

// K2user copies src into user memory starting at va.
func (as *AddressSpace_t) K2user(src []uint8, va uintptr) defs.Err_t {
	cnt := 0
	for cnt != len(src) {
		dst, err := as.userSlice(va+uintptr(cnt), true)
		if err != 0 {
			return err
		}
		n := copy(dst, src[cnt:])
		if n == 0 {
			return defs.EFAULT
		}
		cnt += n
	}
	return 0
}

// User2k copies len(dst) bytes from user memory starting at va into
// dst.
func (as *AddressSpace_t) User2k(dst []uint8, va uintptr) defs.Err_t {
	cnt := 0
	for cnt != len(dst) {
		src, err := as.userSlice(va+uintptr(cnt), false)
		if err != 0 {
			return err
		}
		n := copy(dst[cnt:], src)
		if n == 0 {
			return defs.EFAULT
		}
		cnt += n
	}
	return 0
}

// Mapped reports whether va falls within an existing mapping.
func (as *AddressSpace_t) Mapped(va uintptr) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	_, ok := as.table[PageFloor(va)]
	return ok
}

// Detach marks the address space as no longer owned by its process,
// the way clearing a process's pagedir pointer would. After Detach,
// Map panics; Destroy may still run to free pages.
func (as *AddressSpace_t) Detach() {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.state != Active {
		panic("vm: detach from non-active address space")
	}
	as.state = Detached
}

// Destroy frees every mapped page. It must run after Detach.
func (as *AddressSpace_t) Destroy() {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.state != Detached {
		panic("vm: destroy without prior detach")
	}
	for va, pte := range as.table {
		delete(as.table, va)
		as.alloc.Refdown(pte.pa)
	}
	as.state = Destroyed
}
