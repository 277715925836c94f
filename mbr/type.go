package mbr

import "fmt"

// PartitionType is the raw type byte of a partition record. The byte is
// always kept as is, Kind only classifies it.
type PartitionType byte

// Kind is the classification of a PartitionType.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnused
	KindFAT12
	KindFAT16
	KindFAT32
	KindExtended
	KindNTFS
	KindLinux
	KindHFSPlus
)

var kindNames = [...]string{
	KindUnknown:  "Unknown",
	KindUnused:   "Unused",
	KindFAT12:    "FAT12",
	KindFAT16:    "FAT16",
	KindFAT32:    "FAT32",
	KindExtended: "Extended",
	KindNTFS:     "NTFS",
	KindLinux:    "Linux",
	KindHFSPlus:  "HFSPlus",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kind classifies the type byte.
func (t PartitionType) Kind() Kind {
	switch t {
	case 0x00:
		return KindUnused
	case 0x01:
		return KindFAT12
	case 0x04, 0x06, 0x0E:
		return KindFAT16
	case 0x0B, 0x0C, 0x1B, 0x1C:
		return KindFAT32
	case 0x05, 0x0F, 0x85:
		return KindExtended
	case 0x07:
		return KindNTFS
	case 0x83:
		return KindLinux
	case 0xAF:
		return KindHFSPlus
	default:
		return KindUnknown
	}
}

// IsFAT reports whether the type byte denotes any FAT variant.
func (t PartitionType) IsFAT() bool {
	switch t.Kind() {
	case KindFAT12, KindFAT16, KindFAT32:
		return true
	}
	return false
}

func (t PartitionType) String() string {
	return fmt.Sprintf("%v(0x%02x)", t.Kind(), byte(t))
}
