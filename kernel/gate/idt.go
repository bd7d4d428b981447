package gate

import "unsafe"

const (
	// FlagsInterruptGate marks a present, ring-0, 32-bit interrupt gate.
	// Interrupt gates clear IF on entry so handlers are never re-entered.
	FlagsInterruptGate = uint8(0x8E)

	gateEntryCount = 256
	gateEntrySize  = 8

	flagPresent = uint8(0x80)
)

// GateDescriptor is a packed 8-byte IDT entry.
type GateDescriptor struct {
	OffsetLow  uint16
	Selector   uint16
	Zero       uint8
	Flags      uint8
	OffsetHigh uint16
}

// Offset reassembles the entry point address of the gate.
func (d GateDescriptor) Offset() uint32 {
	return uint32(d.OffsetLow) | uint32(d.OffsetHigh)<<16
}

// Present returns true if the gate has its present bit set.
func (d GateDescriptor) Present() bool {
	return d.Flags&flagPresent != 0
}

// IDT is the interrupt descriptor table. Only the first StubCount entries
// are populated; reaching any other vector is a configuration error.
type IDT [gateEntryCount]GateDescriptor

// StubTable lists the entry stub address for each routed vector. The rt0
// assembly exports one stub per vector; on the host the emulator hands out
// synthetic addresses.
type StubTable [StubCount]uint32

// SetGate encodes a gate for vector v pointing at offset.
func (t *IDT) SetGate(v uint8, offset uint32, selector uint16, flags uint8) {
	t[v] = GateDescriptor{
		OffsetLow:  uint16(offset),
		Selector:   selector,
		Flags:      flags,
		OffsetHigh: uint16(offset >> 16),
	}
}

// BuildTrapTable clears every entry of t and then routes vectors
// 0..StubCount-1 to their stubs through ring-0 interrupt gates.
func BuildTrapTable(t *IDT, stubs *StubTable) {
	*t = IDT{}
	for v, addr := range stubs {
		t.SetGate(uint8(v), addr, KernelCodeSelector, FlagsInterruptGate)
	}
}

// Pointer returns the LIDT operand for t.
func (t *IDT) Pointer() TablePointer {
	return newTablePointer(uint32(uintptr(unsafe.Pointer(t))), gateEntryCount*gateEntrySize)
}
