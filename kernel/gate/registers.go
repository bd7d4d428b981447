package gate

import (
	"io"
	"trapos/kernel/kfmt"
)

// Registers is the snapshot built on the stack by the trap entry stubs. The
// field order mirrors the push order (lowest address first): the data
// segment selectors, the PUSHA block, the vector and error code pushed by
// the stub and finally the frame pushed by the CPU. UserESP and SS are only
// meaningful when the trap caused a privilege level change.
type Registers struct {
	GS uint32
	FS uint32
	ES uint32
	DS uint32

	EDI uint32
	ESI uint32
	EBP uint32
	ESP uint32
	EBX uint32
	EDX uint32
	ECX uint32
	EAX uint32

	// Vector is the trap number. ErrCode holds the CPU-pushed error code
	// for exceptions that have one and zero otherwise.
	Vector  uint32
	ErrCode uint32

	// The return frame used by IRET
	EIP     uint32
	CS      uint32
	EFlags  uint32
	UserESP uint32
	SS      uint32
}

// DumpTo outputs the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "EIP = %8x CS  = %8x EFL = %8x\n", r.EIP, r.CS, r.EFlags)
	kfmt.Fprintf(w, "EAX = %8x EBX = %8x ECX = %8x EDX = %8x\n", r.EAX, r.EBX, r.ECX, r.EDX)
	kfmt.Fprintf(w, "ESI = %8x EDI = %8x EBP = %8x ESP = %8x\n", r.ESI, r.EDI, r.EBP, r.ESP)
	kfmt.Fprintf(w, "DS  = %8x ES  = %8x FS  = %8x GS  = %8x\n", r.DS, r.ES, r.FS, r.GS)
	kfmt.Fprintf(w, "USP = %8x SS  = %8x\n", r.UserESP, r.SS)
}
