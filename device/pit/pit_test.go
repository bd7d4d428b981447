package pit

import (
	"bytes"
	"strings"
	"testing"
	"trapos/kernel"
	"trapos/kernel/arch/emu"
	"trapos/kernel/arch/x86"
	"trapos/kernel/kfmt"
	"trapos/kernel/ktime"
	"trapos/multiboot"
)

func bootPC(t *testing.T) (*x86.Backend, *emu.PC, *bytes.Buffer) {
	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)
	t.Cleanup(func() { kfmt.SetOutputSink(nil) })

	pc := emu.New()
	b := x86.New(pc, pc.Stubs())
	b.CPUInit()
	b.InterruptInit()
	return b, pc, &buf
}

func TestDriverInit(t *testing.T) {
	specs := []struct {
		hz         uint32
		hzOption   string
		expHz      uint32
		expDivisor uint16
	}{
		{0, "", 100, 11931},
		{100, "", 100, 11931},
		{1000, "", 1000, 1193},
		{19, "", 19, 62799},
		{0, "250", 250, 4772},
	}

	for specIndex, spec := range specs {
		b, pc, _ := bootPC(t)

		var (
			clock ktime.Clock
			log   bytes.Buffer
		)
		timer := New(b, &clock, spec.hz)
		timer.hzOption = spec.hzOption

		if err := timer.DriverInit(&log); err != nil {
			t.Errorf("[spec %d] unexpected error: %s", specIndex, err.Message)
			continue
		}

		divisor, programmed := pc.PITDivisor()
		if !programmed || divisor != spec.expDivisor {
			t.Errorf("[spec %d] expected divisor %d; got %d (programmed: %t)", specIndex, spec.expDivisor, divisor, programmed)
		}
		if got := pc.PITMode(); got != 0x36 {
			t.Errorf("[spec %d] expected command byte 0x36; got 0x%x", specIndex, got)
		}
		if got := clock.Hz(); got != spec.expHz || timer.Hz() != spec.expHz {
			t.Errorf("[spec %d] expected clock at %d Hz; got %d", specIndex, spec.expHz, got)
		}
		if got := pc.IRQMasks(); got != 0xFFFA {
			t.Errorf("[spec %d] expected only IRQ0 and the cascade to be unmasked; got masks 0x%x", specIndex, got)
		}
		if !strings.Contains(log.String(), "Hz (divisor") {
			t.Errorf("[spec %d] expected init log line; got %q", specIndex, log.String())
		}
	}
}

func TestDriverInitErrors(t *testing.T) {
	specs := []struct {
		hz       uint32
		hzOption string
		expErr   *kernel.Error
	}{
		{18, "", errBadFrequency},
		{BaseFrequency + 1, "", errBadFrequency},
		{0, "fast", errBadHzOption},
		{0, "-5", errBadHzOption},
		{0, "99999999999", errBadHzOption},
		{0, "4294967296", errBadHzOption},
	}

	for specIndex, spec := range specs {
		b, pc, _ := bootPC(t)

		var clock ktime.Clock
		timer := New(b, &clock, spec.hz)
		timer.hzOption = spec.hzOption

		if err := timer.DriverInit(nil); err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
		if _, programmed := pc.PITDivisor(); programmed {
			t.Errorf("[spec %d] expected the PIT to stay unprogrammed", specIndex)
		}
		if got := pc.IRQMasks(); got != 0xFFFB {
			t.Errorf("[spec %d] expected IRQ0 to stay masked; got masks 0x%x", specIndex, got)
		}
	}
}

func TestTicks(t *testing.T) {
	b, pc, buf := bootPC(t)

	var clock ktime.Clock
	if err := New(b, &clock, 100).DriverInit(buf); err != nil {
		t.Fatal(err)
	}
	b.EnableInterrupts()

	clock.SleepMs(b, 50)
	if exp, got := uint64(5), clock.Ticks(); got != exp {
		t.Fatalf("expected %d ticks after sleeping 50ms; got %d", exp, got)
	}

	clock.SleepMs(b, 950)
	if exp, got := uint64(100), clock.Ticks(); got != exp {
		t.Fatalf("expected %d ticks; got %d", exp, got)
	}

	if master, slave := pc.EOICount(); master != 100 || slave != 0 {
		t.Fatalf("expected 100 master EOIs and none for the slave; got %d/%d", master, slave)
	}

	if out := buf.String(); strings.Count(out, "[TICK] 100 ticks\n") != 1 {
		t.Fatalf("expected a single tick log line; got %q", out)
	}
}

func TestParseUint32(t *testing.T) {
	specs := []struct {
		input  string
		expVal uint32
		expOK  bool
	}{
		{"0", 0, true},
		{"100", 100, true},
		{"4294967295", 0xFFFFFFFF, true},
		{"4294967296", 0, false},
		{"", 0, false},
		{"1a", 0, false},
		{"+1", 0, false},
	}

	for specIndex, spec := range specs {
		val, ok := parseUint32(spec.input)
		if val != spec.expVal || ok != spec.expOK {
			t.Errorf("[spec %d] expected (%d, %t); got (%d, %t)", specIndex, spec.expVal, spec.expOK, val, ok)
		}
	}
}

func TestProbe(t *testing.T) {
	defer multiboot.SetCmdLine(nil)
	b, _, _ := bootPC(t)

	multiboot.SetCmdLine([]byte("notimer"))
	if drv := probeForPIT(b); drv != nil {
		t.Fatal("expected notimer to disable the driver")
	}

	multiboot.SetCmdLine([]byte("timer_hz=50"))
	drv := probeForPIT(b)
	if drv == nil {
		t.Fatal("expected the timer to be detected")
	}

	timer := drv.(*Timer)
	if timer.hzOption != "50" || timer.clock != &ktime.SystemClock {
		t.Fatalf("expected the probed timer to drive the system clock at the configured rate; got %+v", timer)
	}
	if timer.DriverName() != "pit" {
		t.Fatalf("unexpected driver name %q", timer.DriverName())
	}
}
