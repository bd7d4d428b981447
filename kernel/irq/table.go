// Package irq keeps track of the handlers bound to hardware interrupt lines.
package irq

import (
	"trapos/kernel/arch"
	"trapos/kernel/kfmt"
)

// LineCount is the number of IRQ lines a Table can hold.
const LineCount = 16

// Table maps IRQ lines to their handlers. A nil slot means the line has no
// handler. Tables must only be modified while interrupts are disabled or
// before the affected line is unmasked.
type Table struct {
	handlers [LineCount]arch.IRQHandler
}

// Register binds h to line, replacing any previous handler. Out of range
// lines are reported and ignored.
func (t *Table) Register(line uint8, h arch.IRQHandler) {
	if line >= LineCount {
		kfmt.Printf("[WARN] irq: ignoring handler for out of range line %d\n", line)
		return
	}

	t.handlers[line] = h
}

// Unregister clears the handler bound to line.
func (t *Table) Unregister(line uint8) {
	if line < LineCount {
		t.handlers[line] = nil
	}
}

// Lookup returns the handler bound to line or nil.
func (t *Table) Lookup(line uint8) arch.IRQHandler {
	if line >= LineCount {
		return nil
	}

	return t.handlers[line]
}
