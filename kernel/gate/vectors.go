package gate

const (
	// ExceptionCount is the number of vectors reserved for CPU exceptions.
	ExceptionCount = 32

	// IRQBase is the vector that IRQ line 0 is remapped to. Line n arrives
	// at IRQBase+n.
	IRQBase = 32

	// IRQCount is the number of lines served by the cascaded 8259 pair.
	IRQCount = 16

	// StubCount is the number of vectors that have an entry stub.
	StubCount = IRQBase + IRQCount
)

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// Debug is raised by debug registers and single-step traps.
	Debug = InterruptNumber(1)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(2)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = InterruptNumber(3)

	// Overflow is raised by INTO when the overflow flag is set.
	Overflow = InterruptNumber(4)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked with
	// an index out of range.
	BoundRangeExceeded = InterruptNumber(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DeviceNotAvailable occurs when the CPU attempts to execute an FPU
	// instruction while no FPU is available or FPU support is disabled.
	DeviceNotAvailable = InterruptNumber(7)

	// DoubleFault occurs when an exception is raised while the CPU tries
	// to deliver a prior one. Pushes an error code (always 0).
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when loading a segment or gate whose
	// present bit is clear.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when the stack base/limit checks fail.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page is not present or when a
	// privilege and/or RW protection check fails. The faulting address is
	// latched in CR2.
	PageFaultException = InterruptNumber(14)

	// FloatingPointException occurs on an unmasked x87 FP exception.
	FloatingPointException = InterruptNumber(16)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligmed memory access is performed.
	AlignmentCheck = InterruptNumber(17)

	// MachineCheck occurs when the CPU detects internal errors such as
	// memory-, bus- or cache-related errors.
	MachineCheck = InterruptNumber(18)

	// SIMDFloatingPointException occurs when an unmasked SSE exception
	// occurs while CR4.OSXMMEXCPT is set to 1.
	SIMDFloatingPointException = InterruptNumber(19)

	// VirtualizationException is raised by EPT violations.
	VirtualizationException = InterruptNumber(20)

	// ControlProtectionException is raised by CET shadow stack checks.
	ControlProtectionException = InterruptNumber(21)
)

// HasErrorCode returns true if the CPU pushes an error code when delivering
// exception n. The entry stubs push a zero for every other vector so the
// snapshot layout stays uniform.
func (n InterruptNumber) HasErrorCode() bool {
	switch n {
	case DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GPFException, PageFaultException, AlignmentCheck, ControlProtectionException:
		return true
	}
	return false
}
