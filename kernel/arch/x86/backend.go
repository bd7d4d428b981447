// Package x86 implements the arch.Arch boundary for 32-bit protected mode PCs
// with a legacy 8259 interrupt controller pair.
package x86

import (
	"trapos/kernel/arch"
	"trapos/kernel/gate"
	"trapos/kernel/kfmt"
	"trapos/kernel/pic"
	"trapos/kernel/trap"
)

// Machine exposes the privileged operations of an x86 CPU. NativeMachine
// implements it with real instructions; the host emulator implements it in
// software.
type Machine interface {
	Inb(port uint16) uint8
	Inw(port uint16) uint16
	Inl(port uint16) uint32
	Outb(port uint16, val uint8)
	Outw(port uint16, val uint16)
	Outl(port uint16, val uint32)
	IOWait()

	// LoadGDT loads t and reloads the segment registers with the kernel
	// selectors.
	LoadGDT(t *gate.GDT)

	// LoadIDT loads t.
	LoadIDT(t *gate.IDT)

	ReadCR2() uint32
	EnableInterrupts()
	DisableInterrupts()
	Halt()
	Idle()

	// SetTrapEntry installs the function that the trap stubs call with
	// the register snapshot they built.
	SetTrapEntry(fn func(*gate.Registers))
}

// Backend drives the trap subsystem on an x86 Machine.
type Backend struct {
	m     Machine
	stubs *gate.StubTable

	gdt gate.GDT
	idt gate.IDT

	pic   *pic.Controller
	traps *trap.Subsystem
}

var _ arch.Arch = (*Backend)(nil)

// New returns a backend for m. The entry stub for vector v lives at
// stubs[v].
func New(m Machine, stubs *gate.StubTable) *Backend {
	b := &Backend{
		m:     m,
		stubs: stubs,
		pic:   pic.New(m),
	}
	b.traps = trap.New(b.pic, b)
	return b
}

// CPUInit builds the flat segment table and loads it.
func (b *Backend) CPUInit() {
	gate.BuildSegmentTable(&b.gdt)
	b.m.LoadGDT(&b.gdt)
}

// InterruptInit builds and loads the trap table, moves the IRQ vectors past
// the exception range and masks every IRQ line except the cascade input,
// which stays open so that unmasked slave lines can be delivered. Drivers
// unmask their lines once their handlers are registered.
func (b *Backend) InterruptInit() {
	gate.BuildTrapTable(&b.idt, b.stubs)
	b.m.SetTrapEntry(b.traps.Dispatch)
	b.m.LoadIDT(&b.idt)

	b.pic.Remap(pic.DefaultMasterOffset, pic.DefaultSlaveOffset)
	b.pic.MaskAll()
	b.pic.ClearMask(pic.CascadeLine)

	kfmt.Printf("[INFO] PIC remapped to 0x%x/0x%x, all IRQ lines masked\n",
		pic.DefaultMasterOffset, pic.DefaultSlaveOffset)
}

// IRQRegister binds h to line.
func (b *Backend) IRQRegister(line uint8, h arch.IRQHandler) { b.traps.Register(line, h) }

// IRQEnable unmasks line.
func (b *Backend) IRQEnable(line uint8) { b.pic.ClearMask(line) }

// IRQDisable masks line.
func (b *Backend) IRQDisable(line uint8) { b.pic.SetMask(line) }

// IRQEOI acknowledges line.
func (b *Backend) IRQEOI(line uint8) { b.pic.SendEOI(line) }

// ReadFaultAddr returns CR2.
func (b *Backend) ReadFaultAddr() uint32 { return b.m.ReadCR2() }

func (b *Backend) EnableInterrupts()  { b.m.EnableInterrupts() }
func (b *Backend) DisableInterrupts() { b.m.DisableInterrupts() }

// Halt parks the CPU forever. HLT is repeated because an NMI can still wake
// the CPU up.
func (b *Backend) Halt() {
	for {
		b.m.DisableInterrupts()
		b.m.Halt()
	}
}

// Idle waits for and services the next interrupt.
func (b *Backend) Idle() { b.m.Idle() }

// Port I/O: addresses are truncated to the 16-bit port space.

func (b *Backend) Read8(addr uint32) uint8         { return b.m.Inb(uint16(addr)) }
func (b *Backend) Read16(addr uint32) uint16       { return b.m.Inw(uint16(addr)) }
func (b *Backend) Read32(addr uint32) uint32       { return b.m.Inl(uint16(addr)) }
func (b *Backend) Write8(addr uint32, val uint8)   { b.m.Outb(uint16(addr), val) }
func (b *Backend) Write16(addr uint32, val uint16) { b.m.Outw(uint16(addr), val) }
func (b *Backend) Write32(addr uint32, val uint32) { b.m.Outl(uint16(addr), val) }
func (b *Backend) IOWait()                         { b.m.IOWait() }
