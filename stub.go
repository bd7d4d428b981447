package main

import "trapos/kernel/kmain"

var (
	bootMagic        uint32
	multibootInfoPtr uintptr
	stubTable        uintptr
)

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// Global variables are passed as arguments to Kmain to prevent the compiler
// from inlining the actual call and removing Kmain from the generated .o file.
// The rt0 code calls Kmain directly and never runs main.
func main() {
	kmain.Kmain(bootMagic, multibootInfoPtr, stubTable)
}
