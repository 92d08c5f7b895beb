// Package elfload implements the address-space loader: parsing an
// ELF32 executable, mapping its loadable segments, and constructing
// the initial user stack's argv frame. Header validation uses the
// standard library's debug/elf constants; segments are installed a
// page at a time against the address space.
package elfload

import (
	"debug/elf"

	"github.com/cynic01/Operating-System-Project/src/defs"
	"github.com/cynic01/Operating-System-Project/src/fdops"
	"github.com/cynic01/Operating-System-Project/src/fs"
	"github.com/cynic01/Operating-System-Project/src/mem"
	"github.com/cynic01/Operating-System-Project/src/ustr"
	"github.com/cynic01/Operating-System-Project/src/util"
	"github.com/cynic01/Operating-System-Project/src/vm"
)

// ehdrSize and phdrSize are the on-disk sizes of Elf32_Ehdr and
// Elf32_Phdr, used to validate e_phentsize.
const (
	ehdrSize = 52
	phdrSize = 32
)

// maxPhnum bounds the number of program headers the loader will trust.
const maxPhnum = 1024

// ehdr32_t is the ELF32 file header, laid out exactly as it appears on
// disk (little-endian).
type ehdr32_t struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// phdr32_t is one ELF32 program header.
type phdr32_t struct {
	Type   uint32
	Off    uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

const (
	pfX uint32 = 1 << 0
	pfW uint32 = 1 << 1
)

// Result is everything process bootstrap needs after a successful
// load: the entry point, the initial stack pointer, the address space
// the segments and stack were mapped into, and the still-open
// executable, kept open with writes denied for the process's
// lifetime.
type Result struct {
	Entry uintptr
	Esp   uintptr
	AS    *vm.AddressSpace_t
	Exec  fdops.Fdops_i
	Argv  []string
}

// Log receives "load: <name>: <reason>" diagnostics. Defaults to a
// no-op; callers that want the message (e.g. a kernel console) set it
// explicitly.
var Log = func(format string, args ...interface{}) {}

// Load parses cmdline's leading token as a path, opens and maps it
// into a fresh address space, and constructs the initial argv stack
// frame for all of cmdline's tokens, the program name included.
func Load(cmdline string, fsys fs.Fs_i, alloc mem.Allocator_i) (*Result, defs.Err_t) {
	name := ustr.FirstToken(cmdline)

	execf, errc := fsys.OpenExec(name)
	if errc != 0 {
		Log("load: %s: open failed\n", name)
		return nil, errc
	}

	as := vm.New(alloc)

	eh, perr := readEhdr(execf)
	if perr != 0 {
		Log("load: %s: bad ELF header\n", name)
		execf.Close()
		return nil, perr
	}

	if err := loadSegments(execf, eh, as, alloc); err != 0 {
		Log("load: %s: bad segment\n", name)
		execf.Close()
		return nil, err
	}

	esp, err := setupStack(as, alloc, cmdline)
	if err != 0 {
		Log("load: %s: stack setup failed\n", name)
		execf.Close()
		return nil, err
	}

	var argv []string
	for _, tok := range ustr.Fields(ustr.Ustr(cmdline)) {
		argv = append(argv, tok.String())
	}

	return &Result{
		Entry: uintptr(eh.Entry),
		Esp:   esp,
		AS:    as,
		Exec:  execf,
		Argv:  argv,
	}, 0
}

// readEhdr reads and validates the ELF32 file header.
func readEhdr(f fdops.Fdops_i) (ehdr32_t, defs.Err_t) {
	var eh ehdr32_t
	buf := make([]uint8, ehdrSize)
	if n, err := f.Read(buf); err != 0 || n != ehdrSize {
		return eh, defs.EINVAL
	}

	if buf[0] != 0x7f || buf[1] != 'E' || buf[2] != 'L' || buf[3] != 'F' {
		return eh, defs.EINVAL
	}
	if buf[elf.EI_CLASS] != byte(elf.ELFCLASS32) ||
		buf[elf.EI_DATA] != byte(elf.ELFDATA2LSB) ||
		buf[elf.EI_VERSION] != byte(elf.EV_CURRENT) {
		return eh, defs.EINVAL
	}
	copy(eh.Ident[:], buf[:16])
	eh.Type = le16(buf[16:])
	eh.Machine = le16(buf[18:])
	eh.Version = le32(buf[20:])
	eh.Entry = le32(buf[24:])
	eh.Phoff = le32(buf[28:])
	eh.Shoff = le32(buf[32:])
	eh.Flags = le32(buf[36:])
	eh.Ehsize = le16(buf[40:])
	eh.Phentsize = le16(buf[42:])
	eh.Phnum = le16(buf[44:])
	eh.Shentsize = le16(buf[46:])
	eh.Shnum = le16(buf[48:])
	eh.Shstrndx = le16(buf[50:])

	if eh.Type != uint16(elf.ET_EXEC) {
		return eh, defs.EINVAL
	}
	if eh.Machine != uint16(elf.EM_386) {
		return eh, defs.EINVAL
	}
	if eh.Version != uint32(elf.EV_CURRENT) {
		return eh, defs.EINVAL
	}
	if eh.Phentsize != phdrSize {
		return eh, defs.EINVAL
	}
	if eh.Phnum > maxPhnum {
		return eh, defs.EINVAL
	}
	return eh, 0
}

// loadSegments walks the program header table in file order and maps
// every PT_LOAD segment, rejecting PT_DYNAMIC/PT_INTERP/PT_SHLIB and
// ignoring everything else.
func loadSegments(f fdops.Fdops_i, eh ehdr32_t, as *vm.AddressSpace_t, alloc mem.Allocator_i) defs.Err_t {
	fsize, errc := f.Size()
	if errc != 0 {
		return errc
	}

	for i := 0; i < int(eh.Phnum); i++ {
		if _, err := f.Seek(int(eh.Phoff) + i*phdrSize); err != 0 {
			return err
		}
		buf := make([]uint8, phdrSize)
		if n, err := f.Read(buf); err != 0 || n != phdrSize {
			return defs.EINVAL
		}
		ph := phdr32_t{
			Type:   le32(buf[0:]),
			Off:    le32(buf[4:]),
			Vaddr:  le32(buf[8:]),
			Paddr:  le32(buf[12:]),
			Filesz: le32(buf[16:]),
			Memsz:  le32(buf[20:]),
			Flags:  le32(buf[24:]),
			Align:  le32(buf[28:]),
		}

		switch elf.ProgType(ph.Type) {
		case elf.PT_NULL, elf.PT_NOTE, elf.PT_PHDR, elf.PT_GNU_STACK:
			continue
		case elf.PT_DYNAMIC, elf.PT_INTERP, elf.PT_SHLIB:
			return defs.EINVAL
		case elf.PT_LOAD:
			if err := validateLoad(ph, fsize); err != 0 {
				return err
			}
			if err := mapLoad(f, ph, as, alloc); err != 0 {
				return err
			}
		default:
			continue
		}
	}
	return 0
}

// validateLoad applies the rejection rules for a PT_LOAD segment.
func validateLoad(ph phdr32_t, fsize int) defs.Err_t {
	pageMask := uint32(vm.PageSize - 1)
	if ph.Off&pageMask != ph.Vaddr&pageMask {
		return defs.EINVAL
	}
	if uint64(ph.Off) > uint64(fsize) {
		return defs.EINVAL
	}
	if ph.Memsz < ph.Filesz {
		return defs.EINVAL
	}
	if ph.Memsz == 0 {
		return defs.EINVAL
	}
	end := uint64(ph.Vaddr) + uint64(ph.Memsz)
	if end > uint64(vm.PhysBase) || end < uint64(ph.Vaddr) {
		return defs.EINVAL
	}
	if ph.Vaddr < vm.PageSize {
		return defs.EINVAL
	}
	return 0
}

// mapLoad installs one PT_LOAD segment page by page.
func mapLoad(f fdops.Fdops_i, ph phdr32_t, as *vm.AddressSpace_t, alloc mem.Allocator_i) defs.Err_t {
	writable := ph.Flags&pfW != 0

	start := util.Rounddown(int(ph.Vaddr), vm.PageSize)
	end := util.Roundup(int(ph.Vaddr)+int(ph.Memsz), vm.PageSize)

	fileOff := int(ph.Off) - (int(ph.Vaddr) - start)
	remaining := int(ph.Filesz) + (int(ph.Vaddr) - start)

	for va := start; va < end; va += vm.PageSize {
		pa, pg, ok := alloc.Alloc()
		if !ok {
			return defs.ENOMEM
		}
		take := util.Min(remaining, vm.PageSize)
		if take > 0 {
			if _, err := f.Seek(fileOff); err != 0 {
				alloc.Refdown(pa)
				return err
			}
			n, err := readFull(f, pg[:take])
			if err != 0 || n != take {
				alloc.Refdown(pa)
				return defs.EINVAL
			}
			fileOff += take
			remaining -= take
		}
		if err := as.Map(uintptr(va), pa, writable); err != 0 {
			alloc.Refdown(pa)
			return err
		}
	}
	return 0
}

func readFull(f fdops.Fdops_i, dst []uint8) (int, defs.Err_t) {
	got := 0
	for got < len(dst) {
		n, err := f.Read(dst[got:])
		if err != 0 {
			return got, err
		}
		if n == 0 {
			return got, 0
		}
		got += n
	}
	return got, 0
}

// setupStack allocates the top user-stack page and builds the argv
// frame inside it.
func setupStack(as *vm.AddressSpace_t, alloc mem.Allocator_i, cmdline string) (uintptr, defs.Err_t) {
	pa, pg, ok := alloc.Alloc()
	if !ok {
		return 0, defs.ENOMEM
	}

	stackBase := vm.PhysBase - vm.PageSize
	esp, err := buildArgvFrame(pg, stackBase, cmdline)
	if err != 0 {
		alloc.Refdown(pa)
		return 0, err
	}

	if merr := as.Map(stackBase, pa, true); merr != 0 {
		alloc.Refdown(pa)
		return 0, merr
	}
	return esp, 0
}

const ptrSize = 4

// buildArgvFrame lays out the argv stack frame inside pg (representing
// the user page at [base, base+PageSize)) and returns the final, fully
// constructed esp as a user virtual address: the whole command line
// copied to the top of the page and split in place into argv strings,
// padding so the final esp is 16-byte aligned, a NULL argv terminator,
// the argv pointer array itself, then the argv pointer, argc and a
// fake return address.
func buildArgvFrame(pg *mem.Page_t, base uintptr, cmdline string) (uintptr, defs.Err_t) {
	raw := append([]byte(cmdline), 0)
	if len(raw) > vm.PageSize {
		return 0, defs.E2BIG
	}

	// Step 1: copy the command-line string (with terminator) to the
	// top of the page.
	strOff := vm.PageSize - len(raw)
	copy(pg[strOff:], raw)

	// Step 2: tokenize in place on spaces, recording each token's
	// starting offset within the page.
	var tokOffs []int
	inTok := false
	for i := strOff; i < vm.PageSize; i++ {
		if pg[i] == ' ' {
			pg[i] = 0
			inTok = false
			continue
		}
		if pg[i] == 0 {
			inTok = false
			continue
		}
		if !inTok {
			tokOffs = append(tokOffs, i)
			inTok = true
		}
	}
	argc := len(tokOffs)

	// Step 3: alignment padding. What remains to be pushed below the
	// string is the sentinel plus argv[0..argc) (argc+1 words), then
	// the argv pointer, argc itself, and the fake return address (3
	// more words).
	stringBytes := len(raw)
	reserved := (argc+1)*ptrSize + 3*ptrSize
	total := stringBytes + reserved
	pad := (16 - total%16) % 16

	cursor := strOff - pad

	// Step 4: push a null sentinel (argv[argc]).
	cursor -= ptrSize
	util.Writen(pg[:], ptrSize, cursor, 0)

	// Step 5: push arguments[0..argc) in order, then reverse in place.
	argvOffs := make([]int, argc)
	for i := argc - 1; i >= 0; i-- {
		cursor -= ptrSize
		argvOffs[i] = cursor
		userAddr := int(base) + tokOffs[i]
		util.Writen(pg[:], ptrSize, cursor, userAddr)
	}
	// argvOffs is already in argv[0..argc) order by construction
	// (argv[0] was written last, at the lowest address), so the
	// "reverse in place" step is a no-op here.

	// no arguments: argv[0] is the sentinel's address.
	argvUser := int(base) + cursor
	if argc > 0 {
		argvUser = int(base) + argvOffs[0]
	}

	// Step 6: push a pointer to argv[0], then argc, then a zero
	// return address.
	cursor -= ptrSize
	util.Writen(pg[:], ptrSize, cursor, argvUser)
	cursor -= 4
	util.Writen(pg[:], 4, cursor, argc)
	cursor -= 4
	util.Writen(pg[:], 4, cursor, 0)

	// Step 7: final esp is the user address of the last pushed word.
	return base + uintptr(cursor), 0
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
