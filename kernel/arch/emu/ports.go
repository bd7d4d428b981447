package emu

const (
	portPICMasterCmd  = 0x20
	portPICMasterData = 0x21
	portPICSlaveCmd   = 0xA0
	portPICSlaveData  = 0xA1

	portPITChannel0 = 0x40
	portPITCommand  = 0x43

	portKeyboardData   = 0x60
	portKeyboardStatus = 0x64

	portPOST = 0x80

	portCOM1    = 0x3F8
	uartLCR     = 3
	uartLSR     = 5
	uartDLAB    = 0x80
	uartLSRIdle = 0x60 // transmit holding register and shift register empty
)

// uart models the transmit side of a 16550 that never stalls.
type uart struct {
	tx []byte
}

// keyboard models the output buffer of a PS/2 controller.
type keyboard struct {
	queue []uint8
	last  uint8
}

// pit models the command interface of PIT channel 0. Counting is not
// modeled; Idle generates a tick whenever the CPU would wait.
type pit struct {
	mode       uint8
	divisor    uint16
	loWritten  bool
	programmed bool
}

// KeyPress places scancode in the keyboard controller output buffer and
// raises IRQ1.
func (pc *PC) KeyPress(scancode uint8) {
	pc.keyboard.queue = append(pc.keyboard.queue, scancode)
	pc.Pulse(1)
}

// Inb implements x86.Machine.
func (pc *PC) Inb(port uint16) uint8 {
	switch port {
	case portPICMasterCmd:
		return pc.master.readCommand()
	case portPICMasterData:
		return pc.master.imr
	case portPICSlaveCmd:
		return pc.slave.readCommand()
	case portPICSlaveData:
		return pc.slave.imr
	case portKeyboardData:
		if len(pc.keyboard.queue) != 0 {
			pc.keyboard.last = pc.keyboard.queue[0]
			pc.keyboard.queue = pc.keyboard.queue[1:]
		}
		return pc.keyboard.last
	case portKeyboardStatus:
		if len(pc.keyboard.queue) != 0 {
			return 0x01
		}
		return 0
	case portCOM1 + uartLSR:
		return uartLSRIdle
	}

	return pc.ports[port]
}

// Inw implements x86.Machine.
func (pc *PC) Inw(port uint16) uint16 {
	return uint16(pc.Inb(port)) | uint16(pc.Inb(port+1))<<8
}

// Inl implements x86.Machine.
func (pc *PC) Inl(port uint16) uint32 {
	return uint32(pc.Inw(port)) | uint32(pc.Inw(port+2))<<16
}

// Outb implements x86.Machine.
func (pc *PC) Outb(port uint16, val uint8) {
	pc.writes = append(pc.writes, PortWrite{Port: port, Val: uint32(val), Size: 1})
	pc.store(port, val)
}

// Outw implements x86.Machine.
func (pc *PC) Outw(port uint16, val uint16) {
	pc.writes = append(pc.writes, PortWrite{Port: port, Val: uint32(val), Size: 2})
	pc.store(port, uint8(val))
	pc.store(port+1, uint8(val>>8))
}

// Outl implements x86.Machine.
func (pc *PC) Outl(port uint16, val uint32) {
	pc.writes = append(pc.writes, PortWrite{Port: port, Val: val, Size: 4})
	for i := uint16(0); i < 4; i++ {
		pc.store(port+i, uint8(val>>(8*i)))
	}
}

// IOWait implements x86.Machine. The POST port write it stands for is not
// recorded in the trace.
func (pc *PC) IOWait() { pc.waits++ }

func (pc *PC) store(port uint16, val uint8) {
	switch port {
	case portPICMasterCmd:
		pc.master.writeCommand(val)
		pc.deliverIfEnabled()
	case portPICMasterData:
		pc.master.writeData(val)
		pc.deliverIfEnabled()
	case portPICSlaveCmd:
		pc.slave.writeCommand(val)
		pc.deliverIfEnabled()
	case portPICSlaveData:
		pc.slave.writeData(val)
		pc.deliverIfEnabled()
	case portPITCommand:
		pc.pit.mode = val
		pc.pit.loWritten = false
	case portPITChannel0:
		if !pc.pit.loWritten {
			pc.pit.divisor = pc.pit.divisor&0xFF00 | uint16(val)
			pc.pit.loWritten = true
		} else {
			pc.pit.divisor = pc.pit.divisor&0x00FF | uint16(val)<<8
			pc.pit.loWritten = false
			pc.pit.programmed = true
		}
	case portCOM1:
		if pc.ports[portCOM1+uartLCR]&uartDLAB == 0 {
			pc.uart.tx = append(pc.uart.tx, val)
			return
		}
	case portPOST:
		pc.waits++
		return
	}

	pc.ports[port] = val
}

// deliverIfEnabled services requests that a mask or EOI update let
// through, as long as the CPU accepts interrupts.
func (pc *PC) deliverIfEnabled() {
	if pc.ifFlag {
		pc.deliverPending()
	}
}
