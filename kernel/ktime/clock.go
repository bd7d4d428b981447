// Package ktime keeps the kernel tick counter driven by the timer IRQ.
package ktime

import (
	"trapos/kernel"
	"trapos/kernel/kfmt"
)

var (
	// panicFn is used by tests.
	panicFn = kfmt.Panic

	errZeroHz  = &kernel.Error{Module: "ktime", Message: "tick frequency must be non-zero"}
	errHzUnset = &kernel.Error{Module: "ktime", Message: "sleep before the tick frequency was set"}
)

// Idler waits for the next interrupt and returns with interrupts disabled.
type Idler interface {
	Idle()
}

// Clock counts timer ticks. OnTick runs in IRQ context; Ticks must be
// called with interrupts disabled on 32-bit CPUs since the 64-bit counter
// cannot be read atomically.
type Clock struct {
	ticks uint64
	hz    uint32
}

// OnTick advances the clock by one tick.
func (c *Clock) OnTick() { c.ticks++ }

// Ticks returns the number of ticks since boot.
func (c *Clock) Ticks() uint64 { return c.ticks }

// Hz returns the tick frequency or 0 if it has not been set.
func (c *Clock) Hz() uint32 { return c.hz }

// SetHz records the frequency the timer was programmed with. A zero
// frequency is a configuration error and halts the kernel.
func (c *Clock) SetHz(hz uint32) {
	if hz == 0 {
		panicFn(errZeroHz)
		return
	}
	c.hz = hz
}

// SleepMs busy-waits for at least ms milliseconds by idling until enough
// ticks have elapsed. The wait is rounded up to whole ticks and lasts at
// least one tick. The timer line must be unmasked or SleepMs never returns.
// SleepMs returns with interrupts disabled.
func (c *Clock) SleepMs(cpu Idler, ms uint32) {
	if c.hz == 0 {
		panicFn(errHzUnset)
		return
	}

	if ms == 0 {
		return
	}

	delta := (uint64(ms)*uint64(c.hz) + 999) / 1000
	if delta == 0 {
		delta = 1
	}

	for target := c.ticks + delta; c.ticks < target; {
		cpu.Idle()
	}
}

// SystemClock is the clock advanced by the platform timer driver.
var SystemClock Clock
