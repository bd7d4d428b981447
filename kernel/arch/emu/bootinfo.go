package emu

import (
	"trapos/multiboot"
	"unsafe"
)

// Region is a memory map entry handed to the kernel by BootInfo.
type Region struct {
	Addr uint64
	Len  uint64
	Type multiboot.MemoryEntryType
}

const (
	mmapOffset = 64 // bytes from the start of the image
	entryWords = 6
)

// BootInfo is an image of the memory a multiboot bootloader prepares for the
// kernel: the info block, followed by the memory map and the command line.
// Addresses stored in the block are offsets into the image, so the kernel
// must see the image through multiboot.SetPhysBase(info.PhysBase()).
//
// The image is ordinary Go memory. It must stay reachable for as long as the
// kernel may read it.
type BootInfo struct {
	image []uint32
}

// NewBootInfo builds an info block that reports memLowerKB/memUpperKB, the
// given memory map and, if it is not empty, cmdLine. A nil regions slice
// leaves the memory map flag clear.
func NewBootInfo(memLowerKB, memUpperKB uint32, regions []Region, cmdLine string) *BootInfo {
	mmapWords := len(regions) * entryWords
	cmdWords := (len(cmdLine) + 4) / 4 // NUL terminated
	bi := &BootInfo{image: make([]uint32, mmapOffset/4+mmapWords+cmdWords)}

	flags := multiboot.FlagMemory
	bi.image[1] = memLowerKB
	bi.image[2] = memUpperKB

	if regions != nil {
		flags |= multiboot.FlagMemoryMap
		bi.image[11] = uint32(mmapWords * 4)
		bi.image[12] = mmapOffset

		for i, r := range regions {
			e := bi.image[mmapOffset/4+i*entryWords:]
			e[0] = (entryWords - 1) * 4
			e[1], e[2] = uint32(r.Addr), uint32(r.Addr>>32)
			e[3], e[4] = uint32(r.Len), uint32(r.Len>>32)
			e[5] = uint32(r.Type)
		}
	}

	if cmdLine != "" {
		flags |= multiboot.FlagCmdLine
		off := mmapOffset + mmapWords*4
		bi.image[4] = uint32(off)

		raw := unsafe.Slice((*byte)(unsafe.Pointer(&bi.image[0])), len(bi.image)*4)
		copy(raw[off:], cmdLine)
	}

	bi.image[0] = uint32(flags)
	return bi
}

// Ptr returns the address of the info block, the value a bootloader passes
// in EBX.
func (bi *BootInfo) Ptr() uintptr { return uintptr(unsafe.Pointer(&bi.image[0])) }

// PhysBase returns the address that physical address 0 maps to.
func (bi *BootInfo) PhysBase() uintptr { return bi.Ptr() }
