package main

import (
	"fmt"
	"runtime"
	"strings"

	"trapos/kernel/arch/emu"
	"trapos/kernel/arch/x86"
	"trapos/kernel/gate"
	"trapos/kernel/kfmt"
	"trapos/kernel/kmain"
	"trapos/kernel/ktime"
	"trapos/multiboot"

	"github.com/charmbracelet/x/ansi"
)

// Result captures the state of the emulated PC after a scenario ran.
type Result struct {
	Scenario *Scenario

	// Console is the kernel output with CR LF line endings normalized.
	Console string

	Halted       bool
	TripleFault  bool
	Ticks        uint64
	MasterEOI    int
	SlaveEOI     int
	StepsApplied int

	// Failures lists the expectations that did not hold.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run boots the kernel on a fresh emulated PC, applies the scenario steps
// until the machine halts and checks the expectations.
func Run(s *Scenario) *Result {
	multiboot.SetCmdLine([]byte(s.CmdLine))

	var infoPtr uintptr
	bi := s.bootInfo()
	if bi != nil {
		multiboot.SetPhysBase(bi.PhysBase())
		infoPtr = bi.Ptr()
	}

	defer func() {
		multiboot.SetInfoPtr(0)
		multiboot.SetPhysBase(0)
		runtime.KeepAlive(bi)
		multiboot.SetCmdLine(nil)
		kfmt.SetOutputSink(nil)
		kfmt.SetHaltFn(nil)
	}()

	magic := uint32(multiboot.BootloaderMagic)
	if s.Magic != nil {
		magic = uint32(*s.Magic)
	}

	pc := emu.New()
	b := x86.New(pc, pc.Stubs())

	// The system clock outlives a single boot.
	startTicks := ktime.SystemClock.Ticks()

	res := &Result{Scenario: s}
	res.Halted = pc.Run(func() { kmain.Boot(b, magic, infoPtr) })

	for _, step := range s.Steps {
		if res.Halted {
			break
		}
		res.Halted = pc.Run(func() { apply(b, pc, step) })
		res.StepsApplied++
	}

	res.Console = strings.ReplaceAll(pc.Console(), "\r\n", "\n")
	res.TripleFault = pc.TripleFaulted()
	res.Ticks = ktime.SystemClock.Ticks() - startTicks
	res.MasterEOI, res.SlaveEOI = pc.EOICount()
	res.Failures = check(s.Expect, res)

	return res
}

func apply(b *x86.Backend, pc *emu.PC, step Step) {
	switch {
	case step.Pulse != nil:
		pc.Pulse(uint8(*step.Pulse))
	case step.Mask != nil:
		b.IRQDisable(uint8(*step.Mask))
	case step.Unmask != nil:
		b.IRQEnable(uint8(*step.Unmask))
	case step.Key != nil:
		pc.KeyPress(uint8(*step.Key))
	case step.Idle > 0:
		for i := 0; i < step.Idle; i++ {
			b.Idle()
		}
		// Each idle cycle ends with interrupts disabled; later steps
		// expect the post-boot state.
		b.EnableInterrupts()
	case step.Trap != nil:
		pc.SetFaultAddr(uint32(step.Trap.FaultAddr))
		if v := uint32(step.Trap.Vector); v < gate.StubCount {
			pc.Raise(uint8(v), uint32(step.Trap.ErrorCode))
		} else {
			pc.Inject(v, uint32(step.Trap.ErrorCode))
		}
	}
}

func check(exp Expectation, res *Result) []string {
	var failures []string

	// Drivers may emit escape sequences; match against the visible text.
	plain := ansi.Strip(res.Console)

	if exp.Halted != nil && *exp.Halted != res.Halted {
		failures = append(failures, fmt.Sprintf("expected halted=%t; got %t", *exp.Halted, res.Halted))
	}
	for _, want := range exp.OutputContains {
		if !strings.Contains(plain, want) {
			failures = append(failures, fmt.Sprintf("expected output to contain %q", want))
		}
	}
	for _, unwanted := range exp.OutputExcludes {
		if strings.Contains(plain, unwanted) {
			failures = append(failures, fmt.Sprintf("expected output not to contain %q", unwanted))
		}
	}
	if exp.Ticks != nil && *exp.Ticks != res.Ticks {
		failures = append(failures, fmt.Sprintf("expected %d ticks; got %d", *exp.Ticks, res.Ticks))
	}
	if exp.EOI != nil && (exp.EOI.Master != res.MasterEOI || exp.EOI.Slave != res.SlaveEOI) {
		failures = append(failures, fmt.Sprintf("expected %d/%d master/slave EOIs; got %d/%d",
			exp.EOI.Master, exp.EOI.Slave, res.MasterEOI, res.SlaveEOI))
	}
	if res.TripleFault {
		failures = append(failures, "machine triple faulted")
	}

	return failures
}
