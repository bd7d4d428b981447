// Package kmain contains the kernel entrypoint and the boot sequence that
// brings up the trap subsystem.
package kmain

import (
	"trapos/kernel"
	"trapos/kernel/arch"
	"trapos/kernel/hal"
	"trapos/kernel/kfmt"
	"trapos/multiboot"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errBadMagic      = &kernel.Error{Module: "kmain", Message: "not booted by a multiboot compliant bootloader"}
	errNoUsableMem   = &kernel.Error{Module: "kmain", Message: "no valid usable memory region found"}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up a minimal g0 struct that allows Go code to use the stack
// allocated by the assembly code.
//
// The rt0 code passes the value the bootloader left in EAX, the address of
// the multiboot info block and the address of the table that holds the
// entry point of each trap stub.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(magic uint32, multibootInfoPtr, stubTable uintptr) {
	a := newArch(stubTable)

	Boot(a, magic, multibootInfoPtr)
	idle(a)

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}

// Boot runs the boot sequence on a: descriptor tables, interrupt controller,
// device drivers and finally interrupt delivery. Drivers unmask their own
// IRQ lines while being probed. A wrong bootloader magic is fatal but is
// only checked once the log sink and interrupts are up so that the panic
// message is visible. The same goes for an info block whose memory map has
// no usable region.
func Boot(a arch.Arch, magic uint32, multibootInfoPtr uintptr) {
	kfmt.SetHaltFn(a.Halt)
	if multibootInfoPtr != 0 {
		multiboot.SetInfoPtr(multibootInfoPtr)
	}

	kfmt.Printf("[INFO] kmain entered\n")

	a.CPUInit()
	kfmt.Printf("[INFO] GDT loaded\n")

	a.InterruptInit()
	kfmt.Printf("[INFO] IDT loaded\n")

	hal.DetectHardware(a)

	kfmt.Printf("[INFO] enabling interrupts\n")
	a.EnableInterrupts()

	if magic != multiboot.BootloaderMagic {
		kfmt.Printf("[MB] bad magic=0x%x\n", magic)
		kfmt.Panic(errBadMagic)
		return
	}
	kfmt.Printf("[MB] magic OK\n")

	if lower, upper, ok := multiboot.MemorySize(); ok {
		kfmt.Printf("[MB] mem_lower=%dKB mem_upper=%dKB\n", lower, upper)
	}

	if multibootInfoPtr != 0 {
		if err := checkMemoryLayout(); err != nil {
			kfmt.Panic(err)
			return
		}
	}

	kfmt.Printf("[INFO] platform up, entering idle loop\n")
}

// checkMemoryLayout dumps the memory map passed by the bootloader and makes
// sure that it contains at least one usable region.
func checkMemoryLayout() *kernel.Error {
	if multiboot.Flags()&multiboot.FlagMemoryMap == 0 {
		kfmt.Printf("[MB] memory map not available\n")
	}

	multiboot.VisitMemRegions(func(entry multiboot.MemoryMapEntry) bool {
		kfmt.Printf("[MB] region 0x%16x len 0x%16x (%s)\n", entry.PhysAddress, entry.Length, entry.Type.String())
		return true
	})

	base, end, ok := multiboot.LargestUsableRegion()
	if !ok || end <= base {
		return errNoUsableMem
	}

	kfmt.Printf("[MEM] usable_base=0x%x usable_end=0x%x\n", base, end)
	return nil
}

// idle services interrupts forever.
func idle(a arch.Arch) {
	for {
		a.Idle()
	}
}
