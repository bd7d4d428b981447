package kernel

// Error describes a kernel error. The trap path runs before (and beneath) the
// Go allocator, so errors are never built at runtime with errors.New; instead
// every failure is declared up-front as a package-level *Error value.
type Error struct {
	// The subsystem that reported the error (e.g. "trap", "kmain").
	Module string

	// A human readable description of the failure.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
