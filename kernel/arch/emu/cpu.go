package emu

import "trapos/kernel/gate"

// LoadGDT implements x86.Machine.
func (pc *PC) LoadGDT(t *gate.GDT) { pc.gdt = t }

// LoadIDT implements x86.Machine.
func (pc *PC) LoadIDT(t *gate.IDT) { pc.idt = t }

// ReadCR2 implements x86.Machine.
func (pc *PC) ReadCR2() uint32 { return pc.cr2 }

// SetTrapEntry implements x86.Machine.
func (pc *PC) SetTrapEntry(fn func(*gate.Registers)) { pc.trapEntry = fn }

// DisableInterrupts implements x86.Machine.
func (pc *PC) DisableInterrupts() { pc.ifFlag = false }

// EnableInterrupts sets IF and immediately services any IRQ that was
// pending while interrupts were disabled.
func (pc *PC) EnableInterrupts() {
	pc.ifFlag = true
	pc.deliverPending()
}

// Halt stops the CPU until the next interrupt. With IF clear (or nothing
// left that could ever interrupt) the CPU is parked for good and Run
// returns.
func (pc *PC) Halt() {
	if pc.ifFlag && pc.deliverPending() {
		return
	}
	pc.halt()
}

// Idle enables interrupts, waits for the next one and disables interrupts
// again. When nothing can be delivered but the PIT is running, the next
// timer tick is raised on line 0. The PIT counts regardless of the mask, so
// a masked line only latches the tick in the controller.
func (pc *PC) Idle() {
	pc.ifFlag = true
	if !pc.deliverPending() && pc.pit.programmed {
		pc.Pulse(0)
	}
	pc.ifFlag = false
}

// Pulse raises an edge on IRQ line. The interrupt is delivered right away
// if IF is set and the controller lets it through; otherwise it stays
// pending in the controller.
func (pc *PC) Pulse(line uint8) {
	switch {
	case line < 8:
		pc.master.raise(line)
	case line < 16:
		pc.slave.raise(line - 8)
	default:
		return
	}

	if pc.ifFlag {
		pc.deliverPending()
	}
}

// Raise delivers vector through the IDT as if the CPU had raised it. For
// exceptions that push an error code, errCode is placed in the snapshot;
// the stubs push zero for all other vectors.
func (pc *PC) Raise(vector uint8, errCode uint32) {
	if vector >= gate.ExceptionCount || !gate.InterruptNumber(vector).HasErrorCode() {
		errCode = 0
	}
	pc.deliver(vector, errCode)
}

// RaiseSoftware delivers vector like an INT n instruction: no error code
// is pushed and the controller is not involved.
func (pc *PC) RaiseSoftware(vector uint8) {
	pc.deliver(vector, 0)
}

// deliverPending services controller interrupts until none is left. It
// returns true if at least one interrupt was delivered.
func (pc *PC) deliverPending() bool {
	delivered := false
	for pc.ifFlag && !pc.inTrap {
		vector, ok := pc.acknowledge()
		if !ok {
			break
		}
		pc.deliver(vector, 0)
		delivered = true
	}
	return delivered
}

// acknowledge runs the INTA cycle: it picks the highest priority request
// across the cascade, moves it in service and returns its vector.
func (pc *PC) acknowledge() (uint8, bool) {
	// A pending slave request shows up on the master input(s) selected
	// by its ICW3 word.
	var cascade uint8
	slaveInput, slaveReady := pc.slave.pending(0)
	if slaveReady {
		cascade = pc.master.cascade
	}

	input, ok := pc.master.pending(cascade)
	if !ok {
		return 0, false
	}

	if slaveReady && cascade&(1<<input) != 0 {
		pc.master.acknowledge(input)
		pc.slave.acknowledge(slaveInput)
		return pc.slave.offset + slaveInput, true
	}

	pc.master.acknowledge(input)
	return pc.master.offset + input, true
}

// deliver pushes a snapshot for vector through the IDT entry for vector.
// A missing or malformed entry is a triple fault.
func (pc *PC) deliver(vector uint8, errCode uint32) {
	if pc.idt == nil {
		pc.shutdown()
	}

	g := pc.idt[vector]
	if !g.Present() || g.Selector != gate.KernelCodeSelector ||
		int(vector) >= len(pc.stubs) || g.Offset() != pc.stubs[vector] {
		pc.shutdown()
	}

	pc.delivered = append(pc.delivered, vector)
	pc.enter(uint32(vector), errCode)
}

// Inject calls the trap entry with a snapshot for vector without consulting
// the IDT. It stands in for a stub that reports a vector the kernel never
// routed, such as a spurious or corrupted vector number.
func (pc *PC) Inject(vector, errCode uint32) {
	pc.enter(vector, errCode)
}

func (pc *PC) enter(vector, errCode uint32) {
	if pc.trapEntry == nil {
		pc.shutdown()
	}

	flags := flagReserved
	if pc.ifFlag {
		flags |= flagIF
	}

	regs := gate.Registers{
		GS: uint32(gate.KernelDataSelector),
		FS: uint32(gate.KernelDataSelector),
		ES: uint32(gate.KernelDataSelector),
		DS: uint32(gate.KernelDataSelector),

		Vector:  vector,
		ErrCode: errCode,

		EIP:    pc.eip,
		CS:     uint32(gate.KernelCodeSelector),
		EFlags: flags,
	}

	// Interrupt gates clear IF for the duration of the handler; IRET
	// restores the interrupted flags.
	savedIF, savedInTrap := pc.ifFlag, pc.inTrap
	pc.ifFlag, pc.inTrap = false, true
	pc.trapEntry(&regs)
	pc.ifFlag, pc.inTrap = savedIF, savedInTrap
}

func (pc *PC) shutdown() {
	pc.tripleFault = true
	pc.halt()
}
