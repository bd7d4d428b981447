package kmain

import (
	"trapos/kernel/arch"
	"trapos/kernel/arch/arm"
)

// No drivers are linked in: the legacy PC peripherals do not exist here and
// the backend installs no exception vectors.
func newArch(_ uintptr) arch.Arch {
	return arm.New(arm.NativeMachine{})
}
