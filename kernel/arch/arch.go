// Package arch defines the boundary between the portable kernel code and the
// architecture backends. Everything above this package is written against
// Arch; the x86 and ARM backends (and the host emulator) provide it.
package arch

// Regs is the architecture-neutral view of the CPU state captured when a
// trap occurs.
//
// A Regs value is only valid for the duration of the handler call that
// receives it. Handlers must not retain the pointer or Frame.
type Regs struct {
	Vector  uint32
	ErrCode uint32

	// PC is the interrupted instruction pointer.
	PC uint32

	// Flags holds the interrupted flags/status register.
	Flags uint32

	// Frame is the backend-specific snapshot the view was built from
	// (*gate.Registers on x86).
	Frame interface{}
}

// IRQHandler services a hardware interrupt line.
type IRQHandler func(*Regs)

// Arch is implemented by every architecture backend.
type Arch interface {
	// CPUInit installs the segment descriptors or the architectural
	// equivalent.
	CPUInit()

	// InterruptInit installs the trap table, programs the interrupt
	// controller and leaves every IRQ line masked.
	InterruptInit()

	// IRQRegister binds h to line. The line stays masked until IRQEnable
	// is called.
	IRQRegister(line uint8, h IRQHandler)
	IRQEnable(line uint8)
	IRQDisable(line uint8)
	IRQEOI(line uint8)

	// ReadFaultAddr returns the address latched by the last memory fault
	// (CR2 on x86, DFAR on ARM).
	ReadFaultAddr() uint32

	EnableInterrupts()
	DisableInterrupts()

	// Halt disables interrupts and stops the CPU. It never returns.
	Halt()

	// Idle waits for the next interrupt with interrupts enabled and
	// returns once it has been serviced.
	Idle()

	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)

	// IOWait gives slow devices time to settle after a write.
	IOWait()
}
