package gate

import "unsafe"

const (
	// KernelCodeSelector selects the flat ring-0 code segment.
	KernelCodeSelector = uint16(0x08)

	// KernelDataSelector selects the flat ring-0 data segment.
	KernelDataSelector = uint16(0x10)

	// AccessKernelCode marks a present, ring-0, executable and readable
	// code segment.
	AccessKernelCode = uint8(0x9A)

	// AccessKernelData marks a present, ring-0, writable data segment.
	AccessKernelData = uint8(0x92)

	// GranularityFlat selects 4 KiB granularity and 32-bit operand size. Its
	// low nibble supplies limit[16:20] for flat segments.
	GranularityFlat = uint8(0xCF)

	segmentEntryCount = 3
	segmentEntrySize  = 8
)

// SegmentDescriptor is a packed 8-byte GDT entry.
type SegmentDescriptor struct {
	LimitLow    uint16
	BaseLow     uint16
	BaseMid     uint8
	Access      uint8
	Granularity uint8
	BaseHigh    uint8
}

// Base reassembles the 32-bit segment base.
func (d SegmentDescriptor) Base() uint32 {
	return uint32(d.BaseLow) | uint32(d.BaseMid)<<16 | uint32(d.BaseHigh)<<24
}

// Limit reassembles the 20-bit segment limit.
func (d SegmentDescriptor) Limit() uint32 {
	return uint32(d.LimitLow) | uint32(d.Granularity&0x0F)<<16
}

// GDT holds the null descriptor followed by the flat kernel code and data
// segments. It is populated once during boot and never modified afterwards.
type GDT [segmentEntryCount]SegmentDescriptor

// SetSegment encodes a descriptor at index. Only the high nibble of gran is
// used; the low nibble is taken from limit[16:20].
func (t *GDT) SetSegment(index int, base, limit uint32, access, gran uint8) {
	t[index] = SegmentDescriptor{
		LimitLow:    uint16(limit),
		BaseLow:     uint16(base),
		BaseMid:     uint8(base >> 16),
		Access:      access,
		Granularity: uint8(limit>>16)&0x0F | gran&0xF0,
		BaseHigh:    uint8(base >> 24),
	}
}

// BuildSegmentTable populates t with the flat memory model used by the
// kernel: a null entry, a 4 GiB ring-0 code segment and a 4 GiB ring-0 data
// segment.
func BuildSegmentTable(t *GDT) {
	t.SetSegment(0, 0, 0, 0, 0)
	t.SetSegment(1, 0, 0xFFFFFFFF, AccessKernelCode, GranularityFlat)
	t.SetSegment(2, 0, 0xFFFFFFFF, AccessKernelData, GranularityFlat)
}

// Pointer returns the LGDT operand for t.
func (t *GDT) Pointer() TablePointer {
	return newTablePointer(uint32(uintptr(unsafe.Pointer(t))), segmentEntryCount*segmentEntrySize)
}
