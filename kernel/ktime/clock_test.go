package ktime

import (
	"testing"
	"trapos/kernel/kfmt"
)

// tickingIdler advances the clock on every Idle call, like a timer IRQ
// arriving while the CPU waits.
type tickingIdler struct {
	clock *Clock
	calls int
}

func (i *tickingIdler) Idle() {
	i.calls++
	i.clock.OnTick()
}

func TestTicks(t *testing.T) {
	var c Clock
	for i := 0; i < 250; i++ {
		c.OnTick()
	}

	if exp, got := uint64(250), c.Ticks(); got != exp {
		t.Fatalf("expected %d ticks; got %d", exp, got)
	}
}

func TestSleepMs(t *testing.T) {
	specs := []struct {
		hz       uint32
		ms       uint32
		expTicks uint64
	}{
		{100, 0, 0},
		{100, 1, 1},
		{100, 10, 1},
		{100, 11, 2},
		{100, 1000, 100},
		{1000, 250, 250},
		{18, 100, 2},
		{1193182, 1, 1194},
	}

	for specIndex, spec := range specs {
		c := Clock{}
		c.SetHz(spec.hz)
		idler := &tickingIdler{clock: &c}
		c.SleepMs(idler, spec.ms)

		if got := uint64(idler.calls); got != spec.expTicks {
			t.Errorf("[spec %d] expected sleep of %d ticks; got %d", specIndex, spec.expTicks, got)
		}
	}
}

// skipIdler jumps the clock forward by skip ticks on every Idle call.
type skipIdler struct {
	clock *Clock
	skip  uint64
}

func (i *skipIdler) Idle() { i.clock.ticks += i.skip }

func TestSleepMsLargeProduct(t *testing.T) {
	c := Clock{hz: 1000}
	c.SleepMs(&skipIdler{clock: &c, skip: 1000000}, 4000000000)

	if exp, got := uint64(4000000000), c.Ticks(); got != exp {
		t.Fatalf("expected the clock to reach %d ticks; got %d", exp, got)
	}
}

func TestConfigurationErrors(t *testing.T) {
	defer func() { panicFn = kfmt.Panic }()

	var got []interface{}
	panicFn = func(e interface{}) { got = append(got, e) }

	var c Clock
	c.SetHz(0)
	c.SleepMs(&tickingIdler{clock: &c}, 10)

	if len(got) != 2 || got[0] != errZeroHz || got[1] != errHzUnset {
		t.Fatalf("expected both configuration errors to panic; got %v", got)
	}
	if c.Hz() != 0 || c.Ticks() != 0 {
		t.Fatal("expected the clock to be left untouched")
	}
}
