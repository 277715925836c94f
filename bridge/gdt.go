package bridge

import (
	"encoding/binary"
)

// Descriptor is an 8 byte segment descriptor as stored in the GDT.
type Descriptor uint64

// Access bytes.
const (
	// AccessCode is a present ring 0 executable and readable segment.
	AccessCode uint8 = 0x9A
	// AccessData is a present ring 0 writable data segment.
	AccessData uint8 = 0x92
)

// FlagsFlat32 selects 4 KiB granularity and 32-bit operands.
const FlagsFlat32 uint8 = 0xC

// Selectors into FlatGDT and UnrealGDT.
const (
	CodeSelector       = 0x08
	DataSelector       = 0x10
	UnrealDataSelector = 0x08
)

// NewDescriptor encodes a descriptor. Only the low 20 bits of limit and the
// low 4 bits of flags are used.
func NewDescriptor(base, limit uint32, access, flags uint8) Descriptor {
	d := uint64(limit & 0xFFFF)
	d |= uint64(base&0xFFFFFF) << 16
	d |= uint64(access) << 40
	d |= uint64(limit>>16&0xF) << 48
	d |= uint64(flags&0xF) << 52
	d |= uint64(base>>24) << 56
	return Descriptor(d)
}

func (d Descriptor) Base() uint32 {
	return uint32(d>>16&0xFFFFFF) | uint32(d>>56)<<24
}

func (d Descriptor) Limit() uint32 {
	return uint32(d&0xFFFF) | uint32(d>>48&0xF)<<16
}

func (d Descriptor) Access() uint8 {
	return uint8(d >> 40)
}

func (d Descriptor) Flags() uint8 {
	return uint8((d >> 52) & 0xF)
}

// FlatGDT returns the table used for protected mode: a null descriptor and
// flat 4 GiB code and data segments.
func FlatGDT() []Descriptor {
	return []Descriptor{
		0,
		NewDescriptor(0, 0xFFFFF, AccessCode, FlagsFlat32),
		NewDescriptor(0, 0xFFFFF, AccessData, FlagsFlat32),
	}
}

// UnrealGDT returns the table loaded to enter unreal mode: only the flat data
// segment is needed.
func UnrealGDT() []Descriptor {
	return []Descriptor{
		0,
		NewDescriptor(0, 0xFFFFF, AccessData, FlagsFlat32),
	}
}

// EncodeTable returns the little endian in-memory form of a table.
func EncodeTable(table []Descriptor) []byte {
	b := make([]byte, 8*len(table))
	for i, d := range table {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(d))
	}
	return b
}

// Pointer is the 6 byte operand of lgdt.
type Pointer struct {
	Limit uint16
	Base  uint32
}

// PointerTo returns the Pointer for a table of n descriptors at base.
func PointerTo(base uint32, n int) Pointer {
	return Pointer{Limit: uint16(8*n - 1), Base: base}
}

// Encode returns the operand in its in-memory form.
func (p Pointer) Encode() [6]byte {
	var b [6]byte
	binary.LittleEndian.PutUint16(b[:], p.Limit)
	binary.LittleEndian.PutUint32(b[2:], p.Base)
	return b
}

func (p Pointer) MarshalBinary() ([]byte, error) {
	b := p.Encode()
	return b[:], nil
}

const (
	flatEntries   = 3
	unrealEntries = 2
)

// Tables is the memory image of FlatGDT directly followed by UnrealGDT, as
// loaded by the mode switching routines.
type Tables [8 * (flatEntries + unrealEntries)]byte

// NewTables encodes both tables.
func NewTables() Tables {
	var t Tables
	copy(t[:], EncodeTable(FlatGDT()))
	copy(t[8*flatEntries:], EncodeTable(UnrealGDT()))
	return t
}

// FlatPointer returns the lgdt operand of FlatGDT for tables stored at the
// physical address base.
func (t *Tables) FlatPointer(base uint32) Pointer {
	return PointerTo(base, flatEntries)
}

// UnrealPointer returns the lgdt operand of UnrealGDT for tables stored at
// the physical address base.
func (t *Tables) UnrealPointer(base uint32) Pointer {
	return PointerTo(base+8*flatEntries, unrealEntries)
}
