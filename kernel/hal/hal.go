// Package hal probes for the devices of the platform and attaches the
// kernel log to the first output device it finds.
package hal

import (
	"bytes"
	"io"
	"sort"
	"trapos/device"
	"trapos/kernel/arch"
	"trapos/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	// logSink is the device that kfmt output is written to.
	logSink io.Writer

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer
)

// ActiveDrivers returns the drivers that were initialized by DetectHardware
// in probe order.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// LogSink returns the device that receives the kernel log or nil if no
// output device was found.
func LogSink() io.Writer {
	return devices.logSink
}

// DetectHardware probes for hardware devices through a and initializes the
// appropriate drivers. Devices found by a previous call are forgotten.
func DetectHardware(a arch.Arch) {
	devices = managedDevices{}

	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(a, drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(a arch.Arch, driverInfoList device.DriverInfoList) {
	var w kfmt.PrefixWriter

	for _, info := range driverInfoList {
		drv := info.Probe(a)
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		// A previous driver may have become the log sink.
		w.Sink = kfmt.GetOutputSink()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		onDriverInit(drv)
		w.Sink = kfmt.GetOutputSink()
		kfmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first output device becomes the log sink
// and receives everything logged so far.
func onDriverInit(drv device.Driver) {
	sink, ok := drv.(io.Writer)
	if !ok || devices.logSink != nil {
		return
	}

	devices.logSink = sink
	kfmt.SetOutputSink(sink)
}
