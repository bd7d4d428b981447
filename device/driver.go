package device

import (
	"io"
	"trapos/kernel"
	"trapos/kernel/arch"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware using the supplied architecture backend and returns a
// driver for it. It returns nil if the hardware is absent or disabled.
type ProbeFn func(arch.Arch) Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal package.
type DetectOrder int8

const (
	// DetectOrderEarly specifies that the driver's probe function should
	// be executed before anything else. Drivers that provide the kernel
	// log output use this order.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderTimer specifies that the driver's probe function should
	// be executed once the log sink is available.
	DetectOrderTimer = -64

	// DetectOrderInput specifies that the driver's probe function should
	// be executed after the system timer has been set up.
	DetectOrderInput = -32

	// DetectOrderLast specifies that the driver's probe function should
	// be executed after all other drivers.
	DetectOrderLast = 127
)

// DriverInfo is used by device drivers to register themselves with the hal.
type DriverInfo struct {
	// Order specifies at which stage of the hardware detection process
	// this driver will be probed.
	Order DetectOrder

	// Probe scans for the presence of the device.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var (
	// registeredDrivers tracks the drivers registered via RegisterDriver.
	registeredDrivers DriverInfoList
)

// RegisterDriver adds the supplied driver info to the list of drivers that
// the hal probes for. Drivers typically call it from an init function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
