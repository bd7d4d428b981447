package trap

import (
	"trapos/kernel/arch"
	"trapos/kernel/gate"
	"trapos/kernel/irq"
	"trapos/kernel/kfmt"
)

// Controller acknowledges serviced IRQ lines.
type Controller interface {
	SendEOI(line uint8)
}

// FaultAddressReader provides the address latched by the last memory fault.
type FaultAddressReader interface {
	ReadFaultAddr() uint32
}

// Subsystem dispatches trap snapshots. It owns the IRQ handler table and
// holds no other state between calls.
type Subsystem struct {
	handlers irq.Table
	ctrl     Controller
	cpu      FaultAddressReader

	// view is handed to IRQ handlers. Dispatch is never re-entered (the
	// trap gates keep interrupts disabled) so a single value suffices.
	view arch.Regs
}

// New returns a Subsystem that acknowledges IRQs through ctrl and reads
// fault addresses from cpu.
func New(ctrl Controller, cpu FaultAddressReader) *Subsystem {
	return &Subsystem{ctrl: ctrl, cpu: cpu}
}

// Register binds h to IRQ line.
func (s *Subsystem) Register(line uint8, h arch.IRQHandler) {
	s.handlers.Register(line, h)
}

// Unregister removes the handler bound to IRQ line.
func (s *Subsystem) Unregister(line uint8) {
	s.handlers.Unregister(line)
}

// Dispatch routes the trap described by regs. CPU exceptions do not return;
// IRQs and unknown vectors do.
func (s *Subsystem) Dispatch(regs *gate.Registers) {
	switch Classify(regs.Vector) {
	case ClassException:
		if gate.InterruptNumber(regs.Vector) == gate.PageFaultException {
			s.pageFault(regs)
			return
		}
		s.exception(regs)
	case ClassIRQ:
		s.irq(regs)
	default:
		kfmt.Printf("[WARN] trap: unknown interrupt vector 0x%x\n", regs.Vector)
	}
}

func (s *Subsystem) irq(regs *gate.Registers) {
	line := uint8(regs.Vector - gate.IRQBase)

	if h := s.handlers.Lookup(line); h != nil {
		s.view = arch.Regs{
			Vector:  regs.Vector,
			ErrCode: regs.ErrCode,
			PC:      regs.EIP,
			Flags:   regs.EFlags,
			Frame:   regs,
		}
		h(&s.view)
		s.view.Frame = nil
	} else {
		kfmt.Printf("[WARN] trap: unhandled IRQ %d\n", line)
	}

	s.ctrl.SendEOI(line)
}
