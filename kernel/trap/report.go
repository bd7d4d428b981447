package trap

import (
	"trapos/kernel"
	"trapos/kernel/gate"
	"trapos/kernel/kfmt"
)

var (
	// panicFn is used by tests to intercept the terminal path.
	panicFn = kfmt.Panic

	errCPUException = &kernel.Error{Module: "trap", Message: "CPU exception trapped"}
	errPageFault    = &kernel.Error{Module: "trap", Message: "page fault trapped"}
)

func (s *Subsystem) pageFault(regs *gate.Registers) {
	// CR2 must be read before anything else can fault and overwrite it.
	addr := s.cpu.ReadFaultAddr()

	banner(ExceptionName(regs.Vector))
	kfmt.Printf("cr2=0x%8x err=0x%x\n", addr, regs.ErrCode)
	DecodePageFault(regs.ErrCode).DumpTo(kfmt.GetOutputSink())

	ReportAndHalt(errPageFault, regs)
}

func (s *Subsystem) exception(regs *gate.Registers) {
	banner(ExceptionName(regs.Vector))
	kfmt.Printf("vector=0x%x err=0x%x eip=0x%8x cs=0x%x eflags=0x%x\n",
		regs.Vector, regs.ErrCode, regs.EIP, regs.CS, regs.EFlags)

	ReportAndHalt(errCPUException, regs)
}

func banner(title string) {
	kfmt.Printf("\n==============================\n")
	kfmt.Printf("[EXC] %s\n", title)
	kfmt.Printf("==============================\n")
}

// ReportAndHalt dumps regs (if not nil) and hands err to kfmt.Panic, which
// halts the CPU. It never returns on real hardware.
func ReportAndHalt(err *kernel.Error, regs *gate.Registers) {
	if regs != nil {
		kfmt.Printf("registers:\n")
		regs.DumpTo(kfmt.GetOutputSink())
	}

	panicFn(err)
}
