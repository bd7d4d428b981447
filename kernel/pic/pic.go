// Package pic drives the legacy cascaded 8259 programmable interrupt
// controller pair. The master serves IRQ lines 0-7 and the slave, chained
// through master line 2, serves lines 8-15.
package pic

const (
	MasterCommand = uint16(0x20)
	MasterData    = uint16(0x21)
	SlaveCommand  = uint16(0xA0)
	SlaveData     = uint16(0xA1)

	// DefaultMasterOffset and DefaultSlaveOffset move the IRQ vectors past
	// the 32 vectors reserved for CPU exceptions.
	DefaultMasterOffset = uint8(0x20)
	DefaultSlaveOffset  = uint8(0x28)

	// CascadeLine is the master input that the slave is wired to.
	CascadeLine = uint8(2)

	// LineCount is the number of lines served by the pair.
	LineCount = uint8(16)

	icw1Init     = uint8(0x10)
	icw1NeedICW4 = uint8(0x01)
	icw3Master   = uint8(1 << CascadeLine)
	icw3Slave    = CascadeLine
	icw48086     = uint8(0x01)

	// CommandEOI is the non-specific end-of-interrupt OCW2 command.
	CommandEOI = uint8(0x20)
)

// Bus provides access to the I/O ports of the controller pair.
type Bus interface {
	Inb(port uint16) uint8
	Outb(port uint16, val uint8)

	// IOWait gives the controller time to settle after a write.
	IOWait()
}

// Controller programs the 8259 pair through a Bus. The controller has no
// software state: the interrupt mask registers are the source of truth and
// are only modified through a Controller.
type Controller struct {
	bus Bus
}

// New returns a controller that talks to the 8259 pair through bus.
func New(bus Bus) *Controller {
	return &Controller{bus: bus}
}

// Remap re-initializes both controllers so that master lines are delivered
// at offsetMaster..offsetMaster+7 and slave lines at
// offsetSlave..offsetSlave+7. The interrupt masks in effect before the call
// are preserved.
func (c *Controller) Remap(offsetMaster, offsetSlave uint8) {
	masterMask := c.bus.Inb(MasterData)
	slaveMask := c.bus.Inb(SlaveData)

	c.write(MasterCommand, icw1Init|icw1NeedICW4)
	c.write(SlaveCommand, icw1Init|icw1NeedICW4)
	c.write(MasterData, offsetMaster)
	c.write(SlaveData, offsetSlave)
	c.write(MasterData, icw3Master)
	c.write(SlaveData, icw3Slave)
	c.write(MasterData, icw48086)
	c.write(SlaveData, icw48086)

	c.write(MasterData, masterMask)
	c.write(SlaveData, slaveMask)
}

// write sends a single programming byte and waits for the controller to
// process it.
func (c *Controller) write(port uint16, val uint8) {
	c.bus.Outb(port, val)
	c.bus.IOWait()
}

// SetMask masks (disables) line. Lines outside 0-15 are ignored.
func (c *Controller) SetMask(line uint8) {
	if line >= LineCount {
		return
	}

	port, bit := maskBit(line)
	c.bus.Outb(port, c.bus.Inb(port)|bit)
}

// ClearMask unmasks (enables) line. Only the bit for line changes: slave
// lines reach the CPU only while CascadeLine is unmasked on the master.
// Lines outside 0-15 are ignored.
func (c *Controller) ClearMask(line uint8) {
	if line >= LineCount {
		return
	}

	port, bit := maskBit(line)
	c.bus.Outb(port, c.bus.Inb(port)&^bit)
}

// MaskAll masks every line on both controllers.
func (c *Controller) MaskAll() {
	c.bus.Outb(MasterData, 0xFF)
	c.bus.Outb(SlaveData, 0xFF)
}

// SendEOI acknowledges line. Slave lines are acknowledged on the slave first
// and then on the master, which saw the interrupt arrive on its cascade
// input.
func (c *Controller) SendEOI(line uint8) {
	if line >= 8 {
		c.bus.Outb(SlaveCommand, CommandEOI)
	}
	c.bus.Outb(MasterCommand, CommandEOI)
}

// Masks returns the interrupt mask registers of both controllers. The
// master mask occupies the low byte and the slave mask the high byte; a set
// bit means the line is masked.
func (c *Controller) Masks() uint16 {
	return uint16(c.bus.Inb(MasterData)) | uint16(c.bus.Inb(SlaveData))<<8
}

func maskBit(line uint8) (uint16, uint8) {
	if line < 8 {
		return MasterData, 1 << line
	}
	return SlaveData, 1 << (line - 8)
}
