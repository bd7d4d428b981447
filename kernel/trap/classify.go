// Package trap routes every vector delivered through the trap table to the
// appropriate hardware IRQ handler or to the fault reporter.
package trap

import "trapos/kernel/gate"

// Class describes the kind of event a vector represents.
type Class uint8

const (
	// ClassException covers the vectors reserved for synchronous CPU
	// exceptions.
	ClassException Class = iota

	// ClassIRQ covers the vectors the interrupt controller delivers
	// hardware IRQ lines on.
	ClassIRQ

	// ClassUnknown covers every other vector. Such vectors are spurious
	// and never fatal.
	ClassUnknown
)

// Classify returns the class of vector v. Every uint32 value maps to exactly
// one class.
func Classify(v uint32) Class {
	switch {
	case v < gate.ExceptionCount:
		return ClassException
	case v < gate.IRQBase+gate.IRQCount:
		return ClassIRQ
	default:
		return ClassUnknown
	}
}

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassException:
		return "exception"
	case ClassIRQ:
		return "irq"
	default:
		return "unknown"
	}
}
