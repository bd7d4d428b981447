// Package keyboard implements an IRQ driven PS/2 keyboard driver that
// translates scan code set 1 make codes to ASCII.
package keyboard

import (
	"io"
	"trapos/device"
	"trapos/kernel"
	"trapos/kernel/arch"
	"trapos/kernel/kfmt"
	"trapos/multiboot"
)

const (
	portData   = 0x60
	portStatus = 0x64

	statusOutputFull = 0x01

	// Reads from a port that nothing decodes float high.
	statusAbsent = 0xFF

	// breakBit is set in the scan code sent when a key is released.
	breakBit = 0x80

	// IRQLine is the controller line the keyboard is wired to.
	IRQLine = 1

	// BufferSize is the number of translated characters kept until they
	// are consumed by TryRead. Must be a power of 2.
	BufferSize = 64

	// drainLimit bounds the number of stale bytes flushed at init.
	drainLimit = 16
)

// scancodeSet1 maps set 1 make codes to ASCII. Codes past the end of the
// table and modifier keys translate to 0.
const scancodeSet1 = "\x00\x1b1234567890-=\b\t" +
	"qwertyuiop[]\n\x00" +
	"asdfghjkl;'`\x00\\" +
	"zxcvbnm,./\x00*\x00 "

var errStuckController = &kernel.Error{Module: "keyboard", Message: "controller output buffer never drained"}

// Keyboard buffers key presses delivered on IRQ1. The buffer supports one
// writer in IRQ context and one reader with interrupts enabled.
type Keyboard struct {
	a arch.Arch

	buf        [BufferSize]byte
	head, tail uint32
	dropped    uint32
}

// New returns a keyboard driver that accesses the controller through a.
func New(a arch.Arch) *Keyboard {
	return &Keyboard{a: a}
}

// DriverName implements device.Driver.
func (k *Keyboard) DriverName() string { return "ps2-keyboard" }

// DriverVersion implements device.Driver.
func (k *Keyboard) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// DriverInit implements device.Driver. It flushes bytes left over from the
// firmware, registers the IRQ1 handler and unmasks the line.
func (k *Keyboard) DriverInit(w io.Writer) *kernel.Error {
	drained := 0
	for k.a.Read8(portStatus)&statusOutputFull != 0 {
		if drained == drainLimit {
			return errStuckController
		}
		k.a.Read8(portData)
		drained++
	}

	k.a.IRQRegister(IRQLine, k.onIRQ)
	k.a.IRQEnable(IRQLine)

	kfmt.Fprintf(w, "IRQ%d handler registered\n", IRQLine)
	return nil
}

// TryRead returns the oldest buffered character, if any.
func (k *Keyboard) TryRead() (byte, bool) {
	if k.head == k.tail {
		return 0, false
	}

	c := k.buf[k.head&(BufferSize-1)]
	k.head++
	return c, true
}

// Dropped returns the number of characters lost because the buffer was
// full.
func (k *Keyboard) Dropped() uint32 { return k.dropped }

func (k *Keyboard) onIRQ(_ *arch.Regs) {
	sc := k.a.Read8(portData)
	if sc&breakBit != 0 {
		return
	}

	c := Translate(sc)
	if c >= ' ' && c < 0x7F {
		kfmt.Printf("[KBD] sc=0x%2x '%c'\n", sc, c)
	} else {
		kfmt.Printf("[KBD] sc=0x%2x\n", sc)
	}

	if c == 0 {
		return
	}

	if k.tail-k.head == BufferSize {
		k.dropped++
		return
	}
	k.buf[k.tail&(BufferSize-1)] = c
	k.tail++
}

// Translate returns the ASCII character for a set 1 make code or 0 if the
// key has no character.
func Translate(scancode uint8) byte {
	if int(scancode) < len(scancodeSet1) {
		return scancodeSet1[scancode]
	}
	return 0
}

func probeForKeyboard(a arch.Arch) device.Driver {
	if _, disabled := multiboot.CmdLineOption("nokbd"); disabled {
		return nil
	}

	if a.Read8(portStatus) == statusAbsent {
		return nil
	}

	return New(a)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderInput,
		Probe: probeForKeyboard,
	})
}
