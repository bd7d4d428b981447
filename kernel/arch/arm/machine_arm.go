package arm

import (
	"trapos/kernel/cpu"
	"unsafe"
)

// NativeMachine runs the privileged operations on the core the kernel is
// executing on. Device registers are accessed through the identity mapped
// physical address space.
type NativeMachine struct{}

func (NativeMachine) EnableIRQ()        { cpu.EnableInterrupts() }
func (NativeMachine) DisableIRQ()       { cpu.DisableInterrupts() }
func (NativeMachine) WaitForInterrupt() { cpu.WaitForInterrupt() }
func (NativeMachine) DataSyncBarrier()  { cpu.DataSyncBarrier() }
func (NativeMachine) ReadDFAR() uint32  { return cpu.ReadDFAR() }

func (NativeMachine) Read8(addr uint32) uint8 {
	return *(*uint8)(unsafe.Pointer(uintptr(addr)))
}

func (NativeMachine) Read16(addr uint32) uint16 {
	return *(*uint16)(unsafe.Pointer(uintptr(addr)))
}

func (NativeMachine) Read32(addr uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(uintptr(addr)))
}

func (NativeMachine) Write8(addr uint32, val uint8) {
	*(*uint8)(unsafe.Pointer(uintptr(addr))) = val
}

func (NativeMachine) Write16(addr uint32, val uint16) {
	*(*uint16)(unsafe.Pointer(uintptr(addr))) = val
}

func (NativeMachine) Write32(addr uint32, val uint32) {
	*(*uint32)(unsafe.Pointer(uintptr(addr))) = val
}
