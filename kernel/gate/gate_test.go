package gate

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestDescriptorSizes(t *testing.T) {
	if exp, got := uintptr(8), unsafe.Sizeof(SegmentDescriptor{}); got != exp {
		t.Errorf("expected segment descriptor size to be %d; got %d", exp, got)
	}

	if exp, got := uintptr(8), unsafe.Sizeof(GateDescriptor{}); got != exp {
		t.Errorf("expected gate descriptor size to be %d; got %d", exp, got)
	}

	if exp, got := uintptr(6), unsafe.Sizeof(TablePointer{}); got != exp {
		t.Errorf("expected table pointer size to be %d; got %d", exp, got)
	}
}

func TestBuildSegmentTable(t *testing.T) {
	var gdt GDT
	BuildSegmentTable(&gdt)

	specs := []struct {
		base, limit  uint32
		access, gran uint8
	}{
		{0, 0, 0, 0},
		{0, 0xFFFFF, AccessKernelCode, GranularityFlat},
		{0, 0xFFFFF, AccessKernelData, GranularityFlat},
	}

	for specIndex, spec := range specs {
		d := gdt[specIndex]
		if got := d.Base(); got != spec.base {
			t.Errorf("[spec %d] expected base to be 0x%x; got 0x%x", specIndex, spec.base, got)
		}
		if got := d.Limit(); got != spec.limit {
			t.Errorf("[spec %d] expected limit to be 0x%x; got 0x%x", specIndex, spec.limit, got)
		}
		if d.Access != spec.access {
			t.Errorf("[spec %d] expected access to be 0x%x; got 0x%x", specIndex, spec.access, d.Access)
		}
		if d.Granularity != spec.gran {
			t.Errorf("[spec %d] expected granularity to be 0x%x; got 0x%x", specIndex, spec.gran, d.Granularity)
		}
	}

	if exp, got := uint16(23), gdt.Pointer().Limit(); got != exp {
		t.Errorf("expected GDT limit to be %d; got %d", exp, got)
	}
}

func TestSetSegmentSplitsFields(t *testing.T) {
	var gdt GDT
	gdt.SetSegment(1, 0x12345678, 0xABCDE, 0x9A, 0xC5)

	d := gdt[1]
	if d.BaseLow != 0x5678 || d.BaseMid != 0x34 || d.BaseHigh != 0x12 {
		t.Fatalf("unexpected base split: low=0x%x mid=0x%x high=0x%x", d.BaseLow, d.BaseMid, d.BaseHigh)
	}

	if d.LimitLow != 0xBCDE {
		t.Fatalf("expected limit low to be 0xbcde; got 0x%x", d.LimitLow)
	}

	// The low nibble of the granularity argument must be discarded in
	// favor of the limit bits.
	if exp := uint8(0xCA); d.Granularity != exp {
		t.Fatalf("expected granularity to be 0x%x; got 0x%x", exp, d.Granularity)
	}
}

func TestBuildTrapTable(t *testing.T) {
	var (
		idt   IDT
		stubs StubTable
	)

	for v := range stubs {
		// Spread the addresses so both offset halves are exercised.
		stubs[v] = 0xC0100000 + uint32(v)*0x1234
	}

	// Stale data in entries that must end up cleared.
	idt[200].Flags = FlagsInterruptGate

	BuildTrapTable(&idt, &stubs)

	for v := 0; v < len(idt); v++ {
		d := idt[v]
		if v >= StubCount {
			if d != (GateDescriptor{}) {
				t.Errorf("[vector %d] expected entry to be zeroed; got %+v", v, d)
			}
			continue
		}

		if got := d.Offset(); got != stubs[v] {
			t.Errorf("[vector %d] expected offset 0x%x; got 0x%x", v, stubs[v], got)
		}
		if d.Selector != KernelCodeSelector {
			t.Errorf("[vector %d] expected selector 0x%x; got 0x%x", v, KernelCodeSelector, d.Selector)
		}
		if d.Flags != FlagsInterruptGate || !d.Present() {
			t.Errorf("[vector %d] expected present interrupt gate; got flags 0x%x", v, d.Flags)
		}
		if d.Zero != 0 {
			t.Errorf("[vector %d] expected reserved byte to be zero", v)
		}
	}

	ptr := idt.Pointer()
	if exp, got := uint16(2047), ptr.Limit(); got != exp {
		t.Errorf("expected IDT limit to be %d; got %d", exp, got)
	}
	if exp, got := uint32(uintptr(unsafe.Pointer(&idt))), ptr.Base(); got != exp {
		t.Errorf("expected IDT base to be 0x%x; got 0x%x", exp, got)
	}
}

func TestRegistersLayout(t *testing.T) {
	var r Registers

	specs := []struct {
		name   string
		offset uintptr
		exp    uintptr
	}{
		{"GS", unsafe.Offsetof(r.GS), 0},
		{"DS", unsafe.Offsetof(r.DS), 12},
		{"EDI", unsafe.Offsetof(r.EDI), 16},
		{"ESP", unsafe.Offsetof(r.ESP), 28},
		{"EAX", unsafe.Offsetof(r.EAX), 44},
		{"Vector", unsafe.Offsetof(r.Vector), 48},
		{"ErrCode", unsafe.Offsetof(r.ErrCode), 52},
		{"EIP", unsafe.Offsetof(r.EIP), 56},
		{"CS", unsafe.Offsetof(r.CS), 60},
		{"EFlags", unsafe.Offsetof(r.EFlags), 64},
		{"UserESP", unsafe.Offsetof(r.UserESP), 68},
		{"SS", unsafe.Offsetof(r.SS), 72},
	}

	for _, spec := range specs {
		if spec.offset != spec.exp {
			t.Errorf("expected %s to be at offset %d; got %d", spec.name, spec.exp, spec.offset)
		}
	}

	if exp, got := uintptr(76), unsafe.Sizeof(r); got != exp {
		t.Errorf("expected snapshot size to be %d; got %d", exp, got)
	}
}

func TestRegistersDumpTo(t *testing.T) {
	regs := Registers{
		GS: 0x10, FS: 0x10, ES: 0x10, DS: 0x10,
		EDI: 1, ESI: 2, EBP: 3, ESP: 4, EBX: 5, EDX: 6, ECX: 7, EAX: 8,
		EIP: 0xC0101234, CS: 0x08, EFlags: 0x202, UserESP: 9, SS: 0x10,
	}

	var buf bytes.Buffer
	regs.DumpTo(&buf)

	exp := "EIP = c0101234 CS  = 00000008 EFL = 00000202\n" +
		"EAX = 00000008 EBX = 00000005 ECX = 00000007 EDX = 00000006\n" +
		"ESI = 00000002 EDI = 00000001 EBP = 00000003 ESP = 00000004\n" +
		"DS  = 00000010 ES  = 00000010 FS  = 00000010 GS  = 00000010\n" +
		"USP = 00000009 SS  = 00000010\n"

	if got := buf.String(); got != exp {
		t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
	}
}

func TestHasErrorCode(t *testing.T) {
	withCode := map[InterruptNumber]bool{
		8: true, 10: true, 11: true, 12: true, 13: true, 14: true, 17: true, 21: true,
	}

	for v := InterruptNumber(0); v < ExceptionCount; v++ {
		if got := v.HasErrorCode(); got != withCode[v] {
			t.Errorf("[vector %d] expected HasErrorCode to return %t", v, withCode[v])
		}
	}
}
