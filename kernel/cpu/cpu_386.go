package cpu

import "trapos/kernel/gate"

// EnableInterrupts enables interrupt handling (STI).
func EnableInterrupts()

// DisableInterrupts disables interrupt handling (CLI).
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt (HLT).
func Halt()

// Idle enables interrupts, waits for the next one and disables interrupts
// again once it has been serviced.
func Idle()

// ReadCR2 returns the value stored in the CR2 register.
func ReadCR2() uint32

// LoadGDT loads the segment table described by ptr and reloads CS with the
// kernel code selector and DS, ES, FS and SS with the kernel data selector.
func LoadGDT(ptr *gate.TablePointer)

// LoadIDT loads the trap table described by ptr.
func LoadIDT(ptr *gate.TablePointer)

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32

// IOWait writes to the unused POST diagnostics port, which takes roughly one
// microsecond and gives slow ISA devices time to settle.
func IOWait()
