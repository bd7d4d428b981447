package x86

import (
	"trapos/kernel/cpu"
	"trapos/kernel/gate"
)

// trapEntryFn is set by the backend during interrupt initialization.
var trapEntryFn func(*gate.Registers)

// TrapEntry is called by the rt0 trap stubs with a pointer to the snapshot
// they pushed on the stack. Interrupts are disabled for the duration of the
// call.
func TrapEntry(regs *gate.Registers) {
	if trapEntryFn != nil {
		trapEntryFn(regs)
	}
}

// NativeMachine runs the privileged operations on the CPU the kernel is
// executing on.
type NativeMachine struct{}

func (NativeMachine) Inb(port uint16) uint8                 { return cpu.PortReadByte(port) }
func (NativeMachine) Inw(port uint16) uint16                { return cpu.PortReadWord(port) }
func (NativeMachine) Inl(port uint16) uint32                { return cpu.PortReadDword(port) }
func (NativeMachine) Outb(port uint16, val uint8)           { cpu.PortWriteByte(port, val) }
func (NativeMachine) Outw(port uint16, val uint16)          { cpu.PortWriteWord(port, val) }
func (NativeMachine) Outl(port uint16, val uint32)          { cpu.PortWriteDword(port, val) }
func (NativeMachine) IOWait()                               { cpu.IOWait() }
func (NativeMachine) ReadCR2() uint32                       { return cpu.ReadCR2() }
func (NativeMachine) EnableInterrupts()                     { cpu.EnableInterrupts() }
func (NativeMachine) DisableInterrupts()                    { cpu.DisableInterrupts() }
func (NativeMachine) Halt()                                 { cpu.Halt() }
func (NativeMachine) Idle()                                 { cpu.Idle() }
func (NativeMachine) SetTrapEntry(fn func(*gate.Registers)) { trapEntryFn = fn }

// The pointer images must outlive the load instructions only; the CPU keeps
// its own copy of the limit and base.

func (NativeMachine) LoadGDT(t *gate.GDT) {
	ptr := t.Pointer()
	cpu.LoadGDT(&ptr)
}

func (NativeMachine) LoadIDT(t *gate.IDT) {
	ptr := t.Pointer()
	cpu.LoadIDT(&ptr)
}
