package kfmt

import "trapos/kernel"

var (
	// haltFn parks the CPU forever. The boot code installs the active
	// architecture's halt primitive via SetHaltFn; tests replace it with a
	// function that records the call and returns.
	haltFn func()

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// SetHaltFn installs the function that Panic uses to stop the CPU.
func SetHaltFn(fn func()) {
	haltFn = fn
}

// Panic writes the supplied error (if not nil) to the output sink and halts
// the CPU. Trap handlers and boot validation both end up here. Calls to Panic
// never return on real hardware.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	halt()
}

func halt() {
	if haltFn != nil {
		haltFn()
		return
	}

	// No architecture halt primitive installed yet; spin.
	for {
	}
}
