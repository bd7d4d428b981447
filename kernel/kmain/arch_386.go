package kmain

import (
	"trapos/kernel/arch"
	"trapos/kernel/arch/x86"
	"trapos/kernel/gate"
	"unsafe"

	// Legacy PC peripherals; each registers itself with the hal.
	_ "trapos/device/keyboard"
	_ "trapos/device/pit"
	_ "trapos/device/serial"
)

func newArch(stubTable uintptr) arch.Arch {
	return x86.New(x86.NativeMachine{}, (*gate.StubTable)(unsafe.Pointer(stubTable)))
}
