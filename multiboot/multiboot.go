// Package multiboot decodes the multiboot (version 1) information block
// handed over by the bootloader.
package multiboot

import "unsafe"

// BootloaderMagic is the value a multiboot compliant bootloader places in
// EAX before jumping to the kernel.
const BootloaderMagic = 0x2BADB002

// InfoFlag describes which fields of the info block are valid.
type InfoFlag uint32

const (
	// FlagMemory indicates that MemLower and MemUpper are valid.
	FlagMemory InfoFlag = 1 << 0

	// FlagBootDevice indicates that the boot device field is valid.
	FlagBootDevice InfoFlag = 1 << 1

	// FlagCmdLine indicates that the command line pointer is valid.
	FlagCmdLine InfoFlag = 1 << 2

	// FlagMemoryMap indicates that the memory map fields are valid.
	FlagMemoryMap InfoFlag = 1 << 6
)

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "reserved"
	}
}

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the boot loader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(entry MemoryMapEntry) bool

// mmapEntryLen is the size of a memory map entry body. Every entry is prefixed
// by a uint32 holding the size of the body, which may be larger.
const mmapEntryLen = 20

// maxCmdLineLen caps the scan for the command line NUL terminator.
const maxCmdLineLen = 256

// info mirrors the leading fields of the multiboot info block up to the
// memory map. The remaining fields (drives, config table, VBE) are not used.
type info struct {
	flags      InfoFlag
	memLower   uint32
	memUpper   uint32
	bootDevice uint32
	cmdLine    uint32
	modsCount  uint32
	modsAddr   uint32
	syms       [4]uint32
	mmapLength uint32
	mmapAddr   uint32
}

var (
	infoData uintptr

	// physBase is the address at which physical address 0 is visible. The
	// kernel runs identity mapped so it stays 0 outside of hosted boots.
	physBase uintptr

	// cmdLine holds the raw boot command line without its NUL terminator.
	cmdLine []byte
)

// SetInfoPtr updates the internal multiboot information pointer to the given
// value and captures the command line if one was supplied. This function
// must be invoked before invoking any other function exported by this
// package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
	cmdLine = nil

	if ptr == 0 {
		return
	}

	mbInfo := (*info)(unsafe.Pointer(ptr))
	if mbInfo.flags&FlagCmdLine == 0 || mbInfo.cmdLine == 0 {
		return
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(physAddr(mbInfo.cmdLine))), maxCmdLineLen)
	for i := 0; i < len(raw); i++ {
		if raw[i] == 0 {
			raw = raw[:i]
			break
		}
	}
	cmdLine = raw
}

// SetPhysBase sets the address at which the physical addresses found in the
// info block (command line and memory map) are visible. Hosts that assemble
// an info block in a buffer use it to rebase the addresses they stored. It
// must be called before SetInfoPtr.
func SetPhysBase(base uintptr) {
	physBase = base
}

func physAddr(addr uint32) uintptr {
	return physBase + uintptr(addr)
}

// SetCmdLine overrides the boot command line. Hosts that boot the kernel
// without a bootloader use it to pass configuration.
func SetCmdLine(line []byte) {
	cmdLine = line
}

// Flags returns the flags of the info block or 0 if no block is set.
func Flags() InfoFlag {
	if infoData == 0 {
		return 0
	}

	return (*info)(unsafe.Pointer(infoData)).flags
}

// MemorySize returns the amount of lower and upper memory in KiB reported
// by the bootloader. The ok result is false if the info block does not
// carry memory information.
func MemorySize() (lowerKB, upperKB uint32, ok bool) {
	if Flags()&FlagMemory == 0 {
		return 0, 0, false
	}

	mbInfo := (*info)(unsafe.Pointer(infoData))
	return mbInfo.memLower, mbInfo.memUpper, true
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
// Entries with an unknown type are reported as MemReserved. The scan stops at
// the first entry that does not fit in the map.
func VisitMemRegions(visitor MemRegionVisitor) {
	if Flags()&FlagMemoryMap == 0 {
		return
	}

	mbInfo := (*info)(unsafe.Pointer(infoData))
	curPtr := physAddr(mbInfo.mmapAddr)
	endPtr := curPtr + uintptr(mbInfo.mmapLength)

	for curPtr+4 <= endPtr {
		entrySize := readUint32(curPtr)
		if entrySize < mmapEntryLen || curPtr+4+uintptr(entrySize) > endPtr {
			return
		}

		entry := MemoryMapEntry{
			PhysAddress: readUint64(curPtr + 4),
			Length:      readUint64(curPtr + 12),
			Type:        MemoryEntryType(readUint32(curPtr + 20)),
		}

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			return
		}

		curPtr += 4 + uintptr(entrySize)
	}
}

// LargestUsableRegion returns the start of the largest available region in
// the memory map and the address just past it. Regions that cross 4GiB end
// at 0xFFFFFFFF. The ok result is false if the map is missing or holds no
// usable region starting below 4GiB.
func LargestUsableRegion() (base, end uint32, ok bool) {
	var best MemoryMapEntry

	VisitMemRegions(func(entry MemoryMapEntry) bool {
		if entry.Type == MemAvailable && entry.PhysAddress>>32 == 0 && entry.Length > best.Length {
			best = entry
		}
		return true
	})

	if best.Length == 0 {
		return 0, 0, false
	}

	last := best.PhysAddress + best.Length
	if last>>32 != 0 {
		last = 1<<32 - 1
	}

	return uint32(best.PhysAddress), uint32(last), true
}

// readUint32 and readUint64 decode little-endian values at addr. Memory map
// entries are packed so 64-bit fields are only 4-byte aligned.
func readUint32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func readUint64(addr uintptr) uint64 {
	return uint64(readUint32(addr)) | uint64(readUint32(addr+4))<<32
}

// GetBootCmdLine returns the raw command line passed to the kernel.
func GetBootCmdLine() []byte {
	return cmdLine
}

// CmdLineOption looks up key in the boot command line. Options have the
// form "key=value"; a bare "key" is reported with a value equal to the key
// itself. The returned string shares memory with the command line so this
// function can be called before the Go allocator is available.
func CmdLineOption(key string) (string, bool) {
	line := cmdLine

	for start := 0; start < len(line); {
		// Skip separators
		for start < len(line) && isSpace(line[start]) {
			start++
		}

		end := start
		for end < len(line) && !isSpace(line[end]) {
			end++
		}

		if end > start {
			field := line[start:end]

			eq := -1
			for i, b := range field {
				if b == '=' {
					eq = i
					break
				}
			}

			switch {
			case eq == -1 && string(field) == key:
				return bytesToString(field), true
			case eq != -1 && string(field[:eq]) == key:
				return bytesToString(field[eq+1:]), true
			}
		}

		start = end
	}

	return "", false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
