package disk

import "fmt"

// BIOS is the extended disk read service, int 13h AH=42h.
//
// ExtendedRead transfers packet.Sectors sectors starting at packet.LBA of
// drive into the memory described by the packet and returns the status the
// BIOS left in AH. dst is that same memory seen from Go. Implementations
// running on real hardware may ignore it, as the BIOS writes to the physical
// address directly.
type BIOS interface {
	ExtendedRead(drive uint16, packet *AddressPacket, dst []byte) uint8
}

// BIOS status codes returned in AH.
const (
	StatusOK                uint8 = 0x00
	StatusInvalidCommand    uint8 = 0x01
	StatusSectorNotFound    uint8 = 0x04
	StatusMediaChanged      uint8 = 0x06
	StatusDMABoundary       uint8 = 0x09
	StatusControllerFailure uint8 = 0x20
	StatusTimeout           uint8 = 0x80
)

// StatusError is a non-zero BIOS status.
type StatusError uint8

func (s StatusError) Error() string {
	var desc string
	switch uint8(s) {
	case StatusInvalidCommand:
		desc = "invalid command"
	case StatusSectorNotFound:
		desc = "sector not found"
	case StatusMediaChanged:
		desc = "media changed"
	case StatusDMABoundary:
		desc = "data boundary error"
	case StatusControllerFailure:
		desc = "controller failure"
	case StatusTimeout:
		desc = "timeout"
	default:
		desc = "unknown"
	}
	return fmt.Sprintf("bios status 0x%02x (%s)", uint8(s), desc)
}
