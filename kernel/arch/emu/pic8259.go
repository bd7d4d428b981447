package emu

const (
	picICW1Init     = 0x10
	picICW1NeedICW4 = 0x01
	picICW1Single   = 0x02
	picOCW3         = 0x08
	picOCW3ReadISR  = 0x03
	picOCW3ReadIRR  = 0x02
	picOCW2EOI      = 0x20
	picOCW2Specific = 0x40
)

// chip8259 models a single 8259A in fully nested mode with edge triggered
// inputs. Rotation, polling and special mask modes are not modeled.
type chip8259 struct {
	offset  uint8
	cascade uint8
	icw4    uint8

	imr uint8 // interrupt mask register
	irr uint8 // interrupt request register
	isr uint8 // in-service register

	// icwStep is the index of the next expected initialization word (2-4)
	// or zero once the chip is operational.
	icwStep   int
	needICW4  bool
	single    bool
	readISR   bool
	eoiCount  int
	initCount int
}

func (c *chip8259) writeCommand(val uint8) {
	switch {
	case val&picICW1Init != 0:
		// ICW1 restarts initialization and clears the mask register.
		c.icwStep = 2
		c.needICW4 = val&picICW1NeedICW4 != 0
		c.single = val&picICW1Single != 0
		c.imr, c.irr, c.isr = 0, 0, 0
		c.readISR = false
		c.initCount++
	case val&0x18 == picOCW3:
		switch val & 0x03 {
		case picOCW3ReadISR:
			c.readISR = true
		case picOCW3ReadIRR:
			c.readISR = false
		}
	case val&picOCW2EOI != 0:
		c.eoiCount++
		if val&picOCW2Specific != 0 {
			c.isr &^= 1 << (val & 0x07)
			return
		}
		for i := uint8(0); i < 8; i++ {
			if c.isr&(1<<i) != 0 {
				c.isr &^= 1 << i
				break
			}
		}
	}
}

func (c *chip8259) writeData(val uint8) {
	switch c.icwStep {
	case 2:
		c.offset = val & 0xF8
		switch {
		case !c.single:
			c.icwStep = 3
		case c.needICW4:
			c.icwStep = 4
		default:
			c.icwStep = 0
		}
	case 3:
		c.cascade = val
		if c.needICW4 {
			c.icwStep = 4
		} else {
			c.icwStep = 0
		}
	case 4:
		c.icw4 = val
		c.icwStep = 0
	default:
		c.imr = val
	}
}

func (c *chip8259) readCommand() uint8 {
	if c.readISR {
		return c.isr
	}
	return c.irr
}

func (c *chip8259) raise(input uint8) {
	c.irr |= 1 << input
}

// pending returns the highest priority input that is requested, unmasked
// and not blocked by an in-service input of equal or higher priority.
// extra lists additional request bits (the cascade input on the master).
func (c *chip8259) pending(extra uint8) (uint8, bool) {
	if c.icwStep != 0 {
		return 0, false
	}

	req := (c.irr | extra) &^ c.imr
	for i := uint8(0); i < 8; i++ {
		bit := uint8(1) << i
		if c.isr&bit != 0 {
			return 0, false
		}
		if req&bit != 0 {
			return i, true
		}
	}
	return 0, false
}

// acknowledge moves input from the request to the in-service register.
func (c *chip8259) acknowledge(input uint8) {
	c.irr &^= 1 << input
	c.isr |= 1 << input
}
