// Package arm implements the arch.Arch boundary for 32-bit ARM cores. Only
// the CPU primitives and MMIO are supported; no exception vector table or
// interrupt controller is installed, so IRQs are never unmasked.
package arm

import (
	"trapos/kernel/arch"
	"trapos/kernel/irq"
	"trapos/kernel/kfmt"
)

// Machine exposes the privileged operations of an ARM core.
type Machine interface {
	EnableIRQ()
	DisableIRQ()
	WaitForInterrupt()
	DataSyncBarrier()

	// ReadDFAR returns the data fault address register.
	ReadDFAR() uint32

	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
}

// Backend drives an ARM Machine.
type Backend struct {
	m Machine

	// handlers are kept so drivers can register unconditionally; nothing
	// dispatches to them until an interrupt controller driver exists.
	handlers irq.Table
}

var _ arch.Arch = (*Backend)(nil)

// New returns a backend for m.
func New(m Machine) *Backend {
	return &Backend{m: m}
}

// CPUInit is a no-op; the MMU and caches are left as the boot loader
// configured them.
func (b *Backend) CPUInit() {}

// InterruptInit masks IRQs at the core.
func (b *Backend) InterruptInit() {
	b.m.DisableIRQ()
	kfmt.Printf("[WARN] arm: no interrupt controller driver, IRQs stay masked\n")
}

func (b *Backend) IRQRegister(line uint8, h arch.IRQHandler) { b.handlers.Register(line, h) }
func (b *Backend) IRQEnable(uint8)                           {}
func (b *Backend) IRQDisable(uint8)                          {}
func (b *Backend) IRQEOI(uint8)                              {}

// ReadFaultAddr returns DFAR.
func (b *Backend) ReadFaultAddr() uint32 { return b.m.ReadDFAR() }

// EnableInterrupts leaves IRQs masked. Without a vector table an IRQ would
// jump to whatever the boot loader left at the exception vectors.
func (b *Backend) EnableInterrupts() {}

// DisableInterrupts masks IRQs at the core.
func (b *Backend) DisableInterrupts() { b.m.DisableIRQ() }

// Halt masks IRQs and parks the core in WFI forever.
func (b *Backend) Halt() {
	b.m.DisableIRQ()
	for {
		b.m.WaitForInterrupt()
	}
}

// Idle waits for the next interrupt or event.
func (b *Backend) Idle() { b.m.WaitForInterrupt() }

// MMIO accessors.

func (b *Backend) Read8(addr uint32) uint8         { return b.m.Read8(addr) }
func (b *Backend) Read16(addr uint32) uint16       { return b.m.Read16(addr) }
func (b *Backend) Read32(addr uint32) uint32       { return b.m.Read32(addr) }
func (b *Backend) Write8(addr uint32, val uint8)   { b.m.Write8(addr, val) }
func (b *Backend) Write16(addr uint32, val uint16) { b.m.Write16(addr, val) }
func (b *Backend) Write32(addr uint32, val uint32) { b.m.Write32(addr, val) }

// IOWait completes outstanding device accesses.
func (b *Backend) IOWait() { b.m.DataSyncBarrier() }
