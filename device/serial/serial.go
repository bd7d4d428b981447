// Package serial implements a polled driver for the COM1 16550 UART.
package serial

import (
	"io"
	"trapos/device"
	"trapos/kernel"
	"trapos/kernel/arch"
)

const (
	// COM1 is the I/O base of the first serial port.
	COM1 = 0x3F8

	regData       = 0 // THR/RBR, divisor low byte when DLAB is set
	regIntEnable  = 1 // IER, divisor high byte when DLAB is set
	regFIFOCtrl   = 2
	regLineCtrl   = 3
	regModemCtrl  = 4
	regLineStatus = 5
	regScratch    = 7

	lineCtrlDLAB = 0x80
	lineCtrl8N1  = 0x03

	// Enable and clear both FIFOs with a 14 byte threshold.
	fifoCtrlEnable = 0xC7

	// DTR, RTS and OUT2.
	modemCtrlReady = 0x0B

	// 115200 / 3 = 38400 baud.
	baudDivisor = 3

	lineStatusTxEmpty = 0x20

	scratchProbe = 0xAE
)

// Port is a COM port driven by busy polling. It implements io.Writer and
// is used as the kernel log sink.
type Port struct {
	a    arch.Arch
	base uint32
}

// New returns a driver for the UART at base.
func New(a arch.Arch, base uint32) *Port {
	return &Port{a: a, base: base}
}

// DriverName implements device.Driver.
func (p *Port) DriverName() string { return "serial" }

// DriverVersion implements device.Driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// DriverInit implements device.Driver. It disables UART interrupts,
// programs 38400 8N1 and enables the FIFOs.
func (p *Port) DriverInit(_ io.Writer) *kernel.Error {
	p.out(regIntEnable, 0x00)
	p.out(regLineCtrl, lineCtrlDLAB)
	p.out(regData, baudDivisor&0xFF)
	p.out(regIntEnable, baudDivisor>>8)
	p.out(regLineCtrl, lineCtrl8N1)
	p.out(regFIFOCtrl, fifoCtrlEnable)
	p.out(regModemCtrl, modemCtrlReady)
	return nil
}

// WriteByte transmits b once the transmit holding register is empty. The
// wait is unbounded; a UART that never drains stalls the caller.
func (p *Port) WriteByte(b byte) error {
	for p.in(regLineStatus)&lineStatusTxEmpty == 0 {
	}

	p.out(regData, b)
	return nil
}

// Write implements io.Writer. Line feeds are sent as CR LF.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == '\n' {
			_ = p.WriteByte('\r')
		}
		_ = p.WriteByte(b)
	}

	return len(data), nil
}

func (p *Port) out(reg uint32, val uint8) { p.a.Write8(p.base+reg, val) }
func (p *Port) in(reg uint32) uint8       { return p.a.Read8(p.base + reg) }

// present checks the scratch register, which reads back as 0xFF when no
// UART decodes the port range.
func (p *Port) present() bool {
	p.out(regScratch, scratchProbe)
	return p.in(regScratch) == scratchProbe
}

func probeForCOM1(a arch.Arch) device.Driver {
	if p := New(a, COM1); p.present() {
		return p
	}

	return nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForCOM1,
	})
}
