package disk

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/stage2/checkpoint"
)

// AddressPacketSize is the size of a Disk Address Packet as expected by the
// BIOS extended read service.
const AddressPacketSize = 16

// AddressPacket is the Disk Address Packet passed to int 13h AH=42h in DS:SI.
// The transfer buffer is given as real mode segment:offset, so it always
// lies below LowMemoryLimit.
type AddressPacket struct {
	Size     uint8
	Reserved uint8
	Sectors  uint16
	Offset   uint16
	Segment  uint16
	LBA      uint64
}

// NewAddressPacket creates a packet reading sectors starting at lba into the
// physical address addr.
func NewAddressPacket(lba uint64, sectors uint16, addr uint32) (AddressPacket, error) {
	if uint64(addr)+uint64(sectors)*SectorSize > LowMemoryLimit {
		return AddressPacket{}, checkpoint.Wrap(fmt.Errorf("%d sectors at %#x", sectors, addr), ErrBufferPlacement)
	}

	return AddressPacket{
		Size:    AddressPacketSize,
		Sectors: sectors,
		Segment: uint16(addr >> 4),
		Offset:  uint16(addr & 0xF),
		LBA:     lba,
	}, nil
}

// Address returns the linear address of the transfer buffer.
func (p AddressPacket) Address() uint32 {
	return uint32(p.Segment)<<4 + uint32(p.Offset)
}

// MarshalBinary returns the packet as laid out in memory.
func (p AddressPacket) MarshalBinary() ([]byte, error) {
	b := make([]byte, AddressPacketSize)
	b[0] = p.Size
	b[1] = p.Reserved
	binary.LittleEndian.PutUint16(b[2:], p.Sectors)
	binary.LittleEndian.PutUint16(b[4:], p.Offset)
	binary.LittleEndian.PutUint16(b[6:], p.Segment)
	binary.LittleEndian.PutUint64(b[8:], p.LBA)
	return b, nil
}

func (p AddressPacket) String() string {
	return fmt.Sprintf("lba=%#x sectors=%d dst=%04x:%04x", p.LBA, p.Sectors, p.Segment, p.Offset)
}
