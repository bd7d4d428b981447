package trap

import (
	"io"
	"trapos/kernel/kfmt"
)

var exceptionNames = [32]string{
	"Division By Zero (#DE)",
	"Debug (#DB)",
	"Non Maskable Interrupt",
	"Breakpoint (#BP)",
	"Overflow (#OF)",
	"Bound Range Exceeded (#BR)",
	"Invalid Opcode (#UD)",
	"Device Not Available (#NM)",
	"Double Fault (#DF)",
	"Coprocessor Segment Overrun",
	"Invalid TSS (#TS)",
	"Segment Not Present (#NP)",
	"Stack-Segment Fault (#SS)",
	"General Protection Fault (#GP)",
	"Page Fault (#PF)",
	"Reserved",
	"x87 Floating-Point Exception (#MF)",
	"Alignment Check (#AC)",
	"Machine Check (#MC)",
	"SIMD Floating-Point Exception (#XM/#XF)",
	"Virtualization Exception (#VE)",
	"Control Protection Exception (#CP)",
	"Reserved", "Reserved", "Reserved", "Reserved", "Reserved",
	"Reserved", "Reserved", "Reserved", "Reserved", "Reserved",
}

// ExceptionName returns the mnemonic of CPU exception v. Vectors outside the
// exception range return "Reserved".
func ExceptionName(v uint32) string {
	if v >= uint32(len(exceptionNames)) {
		return "Reserved"
	}
	return exceptionNames[v]
}

// Page fault error code bits.
const (
	pfProtection = 1 << iota
	pfWrite
	pfUser
	pfReserved
	pfInstructionFetch
)

// PageFault holds the facts encoded in a page fault error code.
type PageFault struct {
	// Protection is set for protection violations and clear when the
	// page was not present.
	Protection bool

	Write bool
	User  bool

	// Reserved is set when a reserved bit was found set in a paging
	// structure entry.
	Reserved bool

	InstructionFetch bool
}

// DecodePageFault extracts the page fault facts from errCode.
func DecodePageFault(errCode uint32) PageFault {
	return PageFault{
		Protection:       errCode&pfProtection != 0,
		Write:            errCode&pfWrite != 0,
		User:             errCode&pfUser != 0,
		Reserved:         errCode&pfReserved != 0,
		InstructionFetch: errCode&pfInstructionFetch != 0,
	}
}

// DumpTo writes a one-line description of the fault cause to w.
func (pf PageFault) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "cause: %s, %s, %s, %s, %s\n",
		pick(pf.Protection, "protection-violation", "not-present"),
		pick(pf.Write, "write", "read"),
		pick(pf.User, "user", "kernel"),
		pick(pf.Reserved, "rsvd", "no-rsvd"),
		pick(pf.InstructionFetch, "instruction-fetch", "data"),
	)
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
