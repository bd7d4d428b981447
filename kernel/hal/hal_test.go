package hal

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"trapos/device"
	"trapos/kernel"
	"trapos/kernel/arch"
	"trapos/kernel/kfmt"
)

type fakeDriver struct {
	name    string
	initErr *kernel.Error
	probed  arch.Arch
}

func (d *fakeDriver) DriverName() string                      { return d.name }
func (d *fakeDriver) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 2 }
func (d *fakeDriver) DriverInit(w io.Writer) *kernel.Error {
	kfmt.Fprintf(w, "hello\n")
	return d.initErr
}

// fakeConsole is a driver that doubles as an output device.
type fakeConsole struct {
	fakeDriver
	out bytes.Buffer
}

func (c *fakeConsole) Write(p []byte) (int, error) { return c.out.Write(p) }

// fakeArch is passed through to probe functions untouched.
type fakeArch struct {
	arch.Arch
}

func resetHAL(t *testing.T) {
	devices = managedDevices{}
	kfmt.SetOutputSink(nil)
	t.Cleanup(func() {
		devices = managedDevices{}
		kfmt.SetOutputSink(nil)
	})
}

func TestProbe(t *testing.T) {
	resetHAL(t)

	var (
		a       = &fakeArch{}
		early   = &fakeDriver{name: "early"}
		console = &fakeConsole{fakeDriver: fakeDriver{name: "console"}}
		broken  = &fakeDriver{name: "broken", initErr: &kernel.Error{Module: "test", Message: "no such device"}}
		second  = &fakeConsole{fakeDriver: fakeDriver{name: "second"}}
	)

	probeFor := func(drv device.Driver, probed *arch.Arch) device.ProbeFn {
		return func(a arch.Arch) device.Driver {
			*probed = a
			return drv
		}
	}

	var absentProbed arch.Arch
	list := device.DriverInfoList{
		{Probe: probeFor(early, &early.probed)},
		{Probe: probeFor(console, &console.probed)},
		{Probe: func(a arch.Arch) device.Driver { absentProbed = a; return nil }},
		{Probe: probeFor(broken, &broken.probed)},
		{Probe: probeFor(second, &second.probed)},
	}

	probe(a, list)

	for _, drv := range []*fakeDriver{early, &console.fakeDriver, broken, &second.fakeDriver} {
		if drv.probed != a {
			t.Errorf("expected %s to be probed with the active arch", drv.name)
		}
	}
	if absentProbed != a {
		t.Error("expected drivers without hardware to be probed too")
	}

	active := ActiveDrivers()
	if len(active) != 3 || active[0] != early || active[1] != console || active[2] != second {
		t.Fatalf("unexpected active driver list %v", active)
	}

	if LogSink() != console || kfmt.GetOutputSink() != console {
		t.Fatal("expected the first output device to become the log sink")
	}

	exp := strings.Join([]string{
		"[hal] early(0.1.2): hello",
		"[hal] early(0.1.2): initialized",
		"[hal] console(0.1.2): hello",
		"[hal] console(0.1.2): initialized",
		"[hal] broken(0.1.2): hello",
		"[hal] broken(0.1.2): init failed: no such device",
		"[hal] second(0.1.2): hello",
		"[hal] second(0.1.2): initialized",
	}, "\n") + "\n"

	if got := console.out.String(); got != exp {
		t.Fatalf("expected log sink contents:\n%s\ngot:\n%s", exp, got)
	}
	if second.out.Len() != 0 {
		t.Fatalf("expected the second output device to stay unused; got %q", second.out.String())
	}
}

func TestDetectHardwareSortsDrivers(t *testing.T) {
	resetHAL(t)

	var order []string
	recordProbe := func(name string) device.ProbeFn {
		return func(arch.Arch) device.Driver {
			order = append(order, name)
			return nil
		}
	}

	for _, info := range []*device.DriverInfo{
		{Order: device.DetectOrderLast, Probe: recordProbe("last")},
		{Order: device.DetectOrderInput, Probe: recordProbe("input")},
		{Order: device.DetectOrderEarly, Probe: recordProbe("early")},
		{Order: device.DetectOrderTimer, Probe: recordProbe("timer")},
	} {
		device.RegisterDriver(info)
	}

	DetectHardware(&fakeArch{})

	if exp, got := "early,timer,input,last", strings.Join(order, ","); got != exp {
		t.Fatalf("expected probe order %s; got %s", exp, got)
	}
}
