//go:build !386 && !arm

package kmain

import (
	"trapos/kernel/arch"
	"trapos/kernel/arch/emu"
	"trapos/kernel/arch/x86"

	// Legacy PC peripherals; each registers itself with the hal.
	_ "trapos/device/keyboard"
	_ "trapos/device/pit"
	_ "trapos/device/serial"
)

// On hosts the kernel runs on an emulated PC. The stub table built by the
// emulator replaces the one rt0 would pass.
func newArch(_ uintptr) arch.Arch {
	pc := emu.New()
	return x86.New(pc, pc.Stubs())
}
