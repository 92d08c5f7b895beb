// Package fs is the external file-system collaborator the process
// subsystem treats as given: open/read/write/seek/close. It defines
// the contract the core consumes and one concrete implementation,
// hostfs, rooted at a directory on the real filesystem — enough to
// load real ELF binaries and run the loader end to end. Open, OpenExec,
// Create, Remove and Reopen are serialized by a single lock, so two
// processes racing to open, create, or remove files never interleave;
// Read, Write, Seek, Tell and Size on an open file do not take that
// lock.
package fs

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/fdops"
)

// Fs_i is the file-system contract the core depends on.
type Fs_i interface {
	// Open opens path for reading and writing.
	Open(path string) (fdops.Fdops_i, defs.Err_t)
	// OpenExec opens path for the sole purpose of executing it: the
	// returned handle denies writes to path, system-wide, until it is
	// closed.
	OpenExec(path string) (fdops.Fdops_i, defs.Err_t)
	// Create creates path with the given initial size, reporting
	// whether it succeeded.
	Create(path string, size int) bool
	// Remove unlinks path, reporting whether it succeeded.
	Remove(path string) bool
}

// hostfs_t implements Fs_i atop a directory in the real filesystem.
type hostfs_t struct {
	mu      sync.Mutex
	root    string
	denied  map[string]int
}

// NewHostFs returns an Fs_i rooted at root. root must already exist.
func NewHostFs(root string) Fs_i {
	return &hostfs_t{root: root, denied: make(map[string]int)}
}

func (h *hostfs_t) resolve(path string) string {
	return filepath.Join(h.root, filepath.Clean("/"+path))
}

func (h *hostfs_t) Open(path string) (fdops.Fdops_i, defs.Err_t) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open(path, false)
}

func (h *hostfs_t) OpenExec(path string) (fdops.Fdops_i, defs.Err_t) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open(path, true)
}

func (h *hostfs_t) open(path string, denyWrite bool) (fdops.Fdops_i, defs.Err_t) {
	full := h.resolve(path)
	f, err := os.OpenFile(full, os.O_RDWR, 0)
	if err != nil {
		f, err = os.Open(full)
		if err != nil {
			return nil, defs.ENOENT
		}
	}
	if denyWrite {
		h.denied[full]++
	}
	return &hostFile_t{fs: h, f: f, path: full, denyWrite: denyWrite}, 0
}

func (h *hostfs_t) Create(path string, size int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	full := h.resolve(path)
	f, err := os.OpenFile(full, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return false
	}
	defer f.Close()
	if size > 0 {
		if err := f.Truncate(int64(size)); err != nil {
			os.Remove(full)
			return false
		}
	}
	return true
}

func (h *hostfs_t) Remove(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	full := h.resolve(path)
	if h.denied[full] > 0 {
		return false
	}
	return os.Remove(full) == nil
}

func (h *hostfs_t) allowWrite(full string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denied[full] > 0 {
		h.denied[full]--
		if h.denied[full] == 0 {
			delete(h.denied, full)
		}
	}
}

// hostFile_t is an open file-descriptor backend implementing
// fdops.Fdops_i atop an *os.File.
type hostFile_t struct {
	fs        *hostfs_t
	f         *os.File
	path      string
	denyWrite bool
	closed    bool
}

func (hf *hostFile_t) Read(dst []uint8) (int, defs.Err_t) {
	n, err := hf.f.Read(dst)
	if err != nil && err != io.EOF {
		return n, defs.EINVAL
	}
	return n, 0
}

func (hf *hostFile_t) Write(src []uint8) (int, defs.Err_t) {
	if hf.denyWrite {
		return 0, defs.EACCES
	}
	n, err := hf.f.Write(src)
	if err != nil {
		return n, defs.EINVAL
	}
	return n, 0
}

func (hf *hostFile_t) Seek(off int) (int, defs.Err_t) {
	n, err := hf.f.Seek(int64(off), io.SeekStart)
	if err != nil {
		return 0, defs.EINVAL
	}
	return int(n), 0
}

func (hf *hostFile_t) Tell() (int, defs.Err_t) {
	n, err := hf.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, defs.EINVAL
	}
	return int(n), 0
}

func (hf *hostFile_t) Size() (int, defs.Err_t) {
	st, err := hf.f.Stat()
	if err != nil {
		return 0, defs.EINVAL
	}
	return int(st.Size()), 0
}

func (hf *hostFile_t) Close() defs.Err_t {
	if hf.closed {
		return 0
	}
	hf.closed = true
	if hf.denyWrite {
		hf.fs.allowWrite(hf.path)
	}
	hf.f.Close()
	return 0
}

func (hf *hostFile_t) Reopen() (fdops.Fdops_i, defs.Err_t) {
	hf.fs.mu.Lock()
	defer hf.fs.mu.Unlock()
	f, err := os.OpenFile(hf.path, os.O_RDWR, 0)
	if err != nil {
		f, err = os.Open(hf.path)
		if err != nil {
			return nil, defs.ENOENT
		}
	}
	if hf.denyWrite {
		hf.fs.denied[hf.path]++
	}
	return &hostFile_t{fs: hf.fs, f: f, path: hf.path, denyWrite: hf.denyWrite}, 0
}
