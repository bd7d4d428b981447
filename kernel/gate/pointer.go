package gate

import "encoding/binary"

// TablePointer is the 6-byte image consumed by the LGDT and LIDT
// instructions: a 16-bit limit (size of the table in bytes minus one)
// followed by the 32-bit linear address of the table.
type TablePointer [6]byte

func newTablePointer(base uint32, size int) TablePointer {
	var p TablePointer
	binary.LittleEndian.PutUint16(p[0:2], uint16(size-1))
	binary.LittleEndian.PutUint32(p[2:6], base)
	return p
}

// Limit returns the table limit encoded in the pointer.
func (p TablePointer) Limit() uint16 {
	return binary.LittleEndian.Uint16(p[0:2])
}

// Base returns the table address encoded in the pointer.
func (p TablePointer) Base() uint32 {
	return binary.LittleEndian.Uint32(p[2:6])
}
