// Package fdops defines the operations a file descriptor's backing
// object must implement, so that a file descriptor can be implemented
// via a pointer receiver satisfying a small interface. The fd table
// (src/fd, src/proc) only ever calls through this interface; the
// concrete file system is an external collaborator it never depends
// on directly.
package fdops

import "github.com/cynic01/Operating-System-Project/src/defs"

// Fdops_i is implemented by anything that can sit behind a file
// descriptor: a real file, a console, a pipe.
type Fdops_i interface {
	// Read copies up to len(dst) bytes starting at the descriptor's
	// current offset into dst, advancing the offset, and returns the
	// number of bytes read.
	Read(dst []uint8) (int, defs.Err_t)
	// Write copies src to the descriptor starting at its current
	// offset, advancing the offset, and returns the number of bytes
	// written.
	Write(src []uint8) (int, defs.Err_t)
	// Seek repositions the descriptor's offset and returns the new
	// offset.
	Seek(off int) (int, defs.Err_t)
	// Tell returns the descriptor's current offset.
	Tell() (int, defs.Err_t)
	// Size returns the total size of the underlying file in bytes.
	Size() (int, defs.Err_t)
	// Close releases the descriptor. It must be idempotent-safe to
	// call exactly once per open descriptor.
	Close() defs.Err_t
	// Reopen returns a fresh, independently-seekable handle to the
	// same underlying object, for fd-table duplication.
	Reopen() (Fdops_i, defs.Err_t)
}
