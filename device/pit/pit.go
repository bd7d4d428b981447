// Package pit programs channel 0 of the 8253/8254 programmable interval
// timer as the periodic system tick.
package pit

import (
	"io"
	"trapos/device"
	"trapos/kernel"
	"trapos/kernel/arch"
	"trapos/kernel/kfmt"
	"trapos/kernel/ktime"
	"trapos/multiboot"
)

const (
	portChannel0 = 0x40
	portCommand  = 0x43

	// Channel 0, lobyte/hibyte access, mode 3 (square wave), binary.
	cmdChannel0SquareWave = 0x36

	// BaseFrequency is the input clock of the PIT in Hz.
	BaseFrequency = 1193182

	// DefaultHz is the tick rate used when none is configured.
	DefaultHz = 100

	// IRQLine is the controller line the PIT is wired to.
	IRQLine = 0

	// tickLogInterval controls how often the tick counter is logged.
	tickLogInterval = 100

	// The 16-bit reload register bounds the usable frequency range.
	minHz = BaseFrequency/0x10000 + 1
	maxHz = BaseFrequency
)

var (
	errBadFrequency = &kernel.Error{Module: "pit", Message: "timer frequency out of range"}
	errBadHzOption  = &kernel.Error{Module: "pit", Message: "malformed timer_hz option"}
)

// Timer drives a ktime.Clock from IRQ0.
type Timer struct {
	a     arch.Arch
	clock *ktime.Clock

	// hzOption is the raw timer_hz command line value, if any.
	hzOption string
	hz       uint32
	divisor  uint16
}

// New returns a timer that advances clock at hz ticks per second. A zero
// hz selects DefaultHz.
func New(a arch.Arch, clock *ktime.Clock, hz uint32) *Timer {
	return &Timer{a: a, clock: clock, hz: hz}
}

// DriverName implements device.Driver.
func (t *Timer) DriverName() string { return "pit" }

// DriverVersion implements device.Driver.
func (t *Timer) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// DriverInit implements device.Driver. It programs channel 0, registers the
// tick handler and unmasks IRQ0.
func (t *Timer) DriverInit(w io.Writer) *kernel.Error {
	if t.hzOption != "" {
		hz, ok := parseUint32(t.hzOption)
		if !ok {
			return errBadHzOption
		}
		t.hz = hz
	}

	if t.hz == 0 {
		t.hz = DefaultHz
	}

	if t.hz < minHz || t.hz > maxHz {
		return errBadFrequency
	}

	t.divisor = uint16(BaseFrequency / t.hz)

	t.a.Write8(portCommand, cmdChannel0SquareWave)
	t.a.Write8(portChannel0, uint8(t.divisor))
	t.a.Write8(portChannel0, uint8(t.divisor>>8))

	t.clock.SetHz(t.hz)
	t.a.IRQRegister(IRQLine, t.onTick)
	t.a.IRQEnable(IRQLine)

	kfmt.Fprintf(w, "channel 0 at %d Hz (divisor %d)\n", t.hz, t.divisor)
	return nil
}

// Hz returns the programmed tick rate.
func (t *Timer) Hz() uint32 { return t.hz }

func (t *Timer) onTick(_ *arch.Regs) {
	t.clock.OnTick()

	if ticks := t.clock.Ticks(); ticks%tickLogInterval == 0 {
		kfmt.Printf("[TICK] %d ticks\n", ticks)
	}
}

// parseUint32 parses a decimal number without going through strconv,
// which allocates on error.
func parseUint32(s string) (uint32, bool) {
	if len(s) == 0 || len(s) > 10 {
		return 0, false
	}

	var v uint64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		v = v*10 + uint64(s[i]-'0')
	}

	if v > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(v), true
}

func probeForPIT(a arch.Arch) device.Driver {
	if _, disabled := multiboot.CmdLineOption("notimer"); disabled {
		return nil
	}

	t := New(a, &ktime.SystemClock, 0)
	t.hzOption, _ = multiboot.CmdLineOption("timer_hz")
	return t
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderTimer,
		Probe: probeForPIT,
	})
}
