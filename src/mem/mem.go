// Package mem models the physical-page allocator and the raw page
// type a process's address space consumes. The physical page allocator
// and page-directory abstraction are treated as an external
// collaborator defined only by the contract it presents; this package
// is that contract plus one concrete, reference-counted
// implementation.
package mem

import (
	"sync"
	"sync/atomic"
)

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE = 1 << PGSHIFT

// Pa_t is an opaque physical page identifier. It is not a real
// physical address — the address space implements its own
// virtual-to-physical translation in software (see package vm) since
// this subsystem runs hosted, without an MMU to program.
type Pa_t uint32

// Page_t is a single physical page of memory.
type Page_t [PGSIZE]uint8

// Allocator_i abstracts physical page allocation and reference
// counting so the address space and loader never allocate raw memory
// directly.
type Allocator_i interface {
	// Alloc returns a freshly zeroed page with a reference count of 1.
	Alloc() (Pa_t, *Page_t, bool)
	// AllocNoZero returns a page with unspecified contents.
	AllocNoZero() (Pa_t, *Page_t, bool)
	// Deref returns the page backing pa.
	Deref(pa Pa_t) *Page_t
	// Refup increments pa's reference count.
	Refup(pa Pa_t)
	// Refdown decrements pa's reference count and returns true if the
	// page was freed as a result.
	Refdown(pa Pa_t) bool
}

type pageslot_t struct {
	pg     Page_t
	refcnt int32
	nexti  uint32
	inuse  bool
}

// const used to mark the end of a free list chain.
const nilnext = ^uint32(0)

// Pool_t is a reference-counted page allocator backed by a Go slice
// growing on demand, using a free-list of reclaimed slots rather than
// per-CPU free lists — this subsystem has no notion of multiple
// physical CPUs contending on the allocator. pages holds *pageslot_t,
// not pageslot_t, so that a slice growth reallocation never moves an
// already-handed-out *Page_t out from under a caller still writing
// into it.
type Pool_t struct {
	mu    sync.Mutex
	pages []*pageslot_t
	freei uint32
}

// NewPool creates an empty page pool.
func NewPool() *Pool_t {
	return &Pool_t{freei: nilnext}
}

func (p *Pool_t) alloc(zero bool) (Pa_t, *Page_t, bool) {
	p.mu.Lock()
	var idx uint32
	if p.freei != nilnext {
		idx = p.freei
		p.freei = p.pages[idx].nexti
	} else {
		p.pages = append(p.pages, &pageslot_t{})
		idx = uint32(len(p.pages) - 1)
	}
	slot := p.pages[idx]
	slot.inuse = true
	slot.refcnt = 1
	if zero {
		slot.pg = Page_t{}
	}
	p.mu.Unlock()
	return Pa_t(idx), &slot.pg, true
}

// Alloc returns a freshly zeroed page.
func (p *Pool_t) Alloc() (Pa_t, *Page_t, bool) {
	return p.alloc(true)
}

// AllocNoZero returns a page whose contents are whatever was there
// before (or zero, the first time a slot is used).
func (p *Pool_t) AllocNoZero() (Pa_t, *Page_t, bool) {
	return p.alloc(false)
}

// Deref returns the page backing pa.
func (p *Pool_t) Deref(pa Pa_t) *Page_t {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &p.pages[pa].pg
}

// Refup increments pa's reference count.
func (p *Pool_t) Refup(pa Pa_t) {
	p.mu.Lock()
	c := atomic.AddInt32(&p.pages[pa].refcnt, 1)
	p.mu.Unlock()
	if c <= 1 {
		panic("refup of unreferenced page")
	}
}

// Refdown decrements pa's reference count, returning the page to the
// free list and returning true if it reaches zero.
func (p *Pool_t) Refdown(pa Pa_t) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot := p.pages[pa]
	c := atomic.AddInt32(&slot.refcnt, -1)
	if c < 0 {
		panic("refdown of already-free page")
	}
	if c == 0 {
		slot.inuse = false
		slot.nexti = p.freei
		p.freei = uint32(pa)
		return true
	}
	return false
}
