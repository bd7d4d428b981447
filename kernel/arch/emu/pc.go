// Package emu provides an emulated 32-bit PC that implements x86.Machine on
// the host. It models the port space, a cascaded 8259 pair, a COM1 UART, a
// PS/2 keyboard data port and the PIT command ports, and delivers traps
// through the IDT that the kernel loads, so the x86 backend and everything
// above it can be exercised without hardware.
package emu

import (
	"trapos/kernel/gate"
)

const (
	// StubBase is the synthetic address of the entry stub for vector 0.
	// The stub for vector v lives at StubBase + v*StubStride.
	StubBase   = uint32(0x00100000)
	StubStride = uint32(0x10)

	// KernelEIP is the instruction pointer reported in snapshots of
	// traps raised without an explicit program counter.
	KernelEIP = uint32(0x00101000)

	flagIF       = uint32(1 << 9)
	flagReserved = uint32(1 << 1)
)

// PortWrite records a single OUT instruction.
type PortWrite struct {
	Port uint16
	Val  uint32
	Size uint8
}

// haltSignal unwinds the Go stack once the emulated CPU can never execute
// another instruction.
type haltSignal struct{}

// PC is an emulated single core PC. A PC is not safe for concurrent use;
// like the hardware it models, it has a single thread of control.
type PC struct {
	ports  [0x10000]uint8
	writes []PortWrite
	waits  int

	master chip8259
	slave  chip8259

	uart     uart
	keyboard keyboard
	pit      pit

	gdt   *gate.GDT
	idt   *gate.IDT
	stubs gate.StubTable

	cr2       uint32
	eip       uint32
	ifFlag    bool
	inTrap    bool
	trapEntry func(*gate.Registers)

	halted      bool
	tripleFault bool
	delivered   []uint8
}

// New returns a powered-on PC with both 8259s uninitialized and fully
// masked, the way the BIOS leaves them.
func New() *PC {
	pc := &PC{eip: KernelEIP}
	pc.master.imr = 0xFF
	pc.slave.imr = 0xFF
	for v := range pc.stubs {
		pc.stubs[v] = StubBase + uint32(v)*StubStride
	}
	return pc
}

// Stubs returns the entry stub addresses the kernel must install in its
// IDT.
func (pc *PC) Stubs() *gate.StubTable { return &pc.stubs }

// Run calls fn and reports whether the CPU halted while running it. Code
// after a halt never executes.
func (pc *PC) Run(fn func()) (halted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(haltSignal); !ok {
				panic(r)
			}
			halted = true
		}
	}()

	if pc.halted {
		return true
	}
	fn()
	return false
}

func (pc *PC) halt() {
	pc.halted = true
	panic(haltSignal{})
}

// Halted returns true once the CPU has stopped for good.
func (pc *PC) Halted() bool { return pc.halted }

// TripleFaulted returns true if a trap was raised through an IDT entry that
// was never populated.
func (pc *PC) TripleFaulted() bool { return pc.tripleFault }

// Writes returns every port write performed so far.
func (pc *PC) Writes() []PortWrite { return pc.writes }

// ResetTrace clears the port write log and the IOWait counter.
func (pc *PC) ResetTrace() {
	pc.writes = pc.writes[:0]
	pc.waits = 0
}

// IOWaits returns the number of IOWait calls since the last trace reset.
func (pc *PC) IOWaits() int { return pc.waits }

// Delivered returns the vectors delivered through the IDT so far.
func (pc *PC) Delivered() []uint8 { return pc.delivered }

// InterruptsEnabled returns the state of the IF flag.
func (pc *PC) InterruptsEnabled() bool { return pc.ifFlag }

// IRQMasks returns the mask registers of the master (low byte) and slave
// (high byte).
func (pc *PC) IRQMasks() uint16 { return uint16(pc.master.imr) | uint16(pc.slave.imr)<<8 }

// VectorOffsets returns the vector offsets programmed into the master and
// the slave.
func (pc *PC) VectorOffsets() (uint8, uint8) { return pc.master.offset, pc.slave.offset }

// EOICount returns the number of EOI commands received by the master and
// the slave.
func (pc *PC) EOICount() (master, slave int) { return pc.master.eoiCount, pc.slave.eoiCount }

// InService returns the in-service registers of the master (low byte) and
// slave (high byte).
func (pc *PC) InService() uint16 { return uint16(pc.master.isr) | uint16(pc.slave.isr)<<8 }

// LoadedGDT returns the segment table loaded by the kernel or nil.
func (pc *PC) LoadedGDT() *gate.GDT { return pc.gdt }

// LoadedIDT returns the trap table loaded by the kernel or nil.
func (pc *PC) LoadedIDT() *gate.IDT { return pc.idt }

// SetFaultAddr latches addr in CR2.
func (pc *PC) SetFaultAddr(addr uint32) { pc.cr2 = addr }

// SetEIP sets the instruction pointer reported by the next trap.
func (pc *PC) SetEIP(addr uint32) { pc.eip = addr }

// Console returns everything transmitted through COM1.
func (pc *PC) Console() string { return string(pc.uart.tx) }

// PITDivisor returns the reload value programmed into PIT channel 0 and
// whether channel 0 has been programmed at all.
func (pc *PC) PITDivisor() (uint16, bool) { return pc.pit.divisor, pc.pit.programmed }

// PITMode returns the last byte written to the PIT command port.
func (pc *PC) PITMode() uint8 { return pc.pit.mode }
