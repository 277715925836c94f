//go:build baremetal
// +build baremetal

package disk

import _ "unsafe" // for go:linkname

// extendedRead loads DS:SI with packet, DL with drive and issues int 13h
// AH=42h. It returns AH. The symbol is provided by the stage's real mode
// thunks.
//
//go:linkname extendedRead bios_extended_read
//go:noescape
func extendedRead(drive uint16, packet *AddressPacket) uint8

// BIOSServices is the disk service of the firmware we booted from.
type BIOSServices struct{}

// ExtendedRead implements BIOS.ExtendedRead. The BIOS writes to the
// physical address in the packet, which is where dst lives.
func (BIOSServices) ExtendedRead(drive uint16, packet *AddressPacket, _ []byte) uint8 {
	return extendedRead(drive, packet)
}
