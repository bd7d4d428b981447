package cpu

// EnableInterrupts unmasks IRQs (CPSIE i).
func EnableInterrupts()

// DisableInterrupts masks IRQs (CPSID i).
func DisableInterrupts()

// WaitForInterrupt suspends execution until an interrupt or debug event
// occurs (WFI).
func WaitForInterrupt()

// DataSyncBarrier completes all outstanding memory accesses (DSB SY).
func DataSyncBarrier()

// ReadDFAR returns the data fault address register (CP15 c6).
func ReadDFAR() uint32
