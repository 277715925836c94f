package disk

import (
	"io"
	"math"

	"github.com/golang/glog"
)

// ImageBIOS implements BIOS on top of disk images, one per drive number.
// It is used to run the stage on a development machine.
type ImageBIOS struct {
	drives map[uint16]io.ReaderAt
}

// NewImageBIOS creates a BIOS without any drives attached.
func NewImageBIOS() *ImageBIOS {
	return &ImageBIOS{drives: make(map[uint16]io.ReaderAt)}
}

// Attach makes image available as the given drive number.
func (b *ImageBIOS) Attach(drive uint16, image io.ReaderAt) {
	b.drives[drive] = image
}

// ExtendedRead implements BIOS.ExtendedRead for ImageBIOS.
func (b *ImageBIOS) ExtendedRead(drive uint16, packet *AddressPacket, dst []byte) uint8 {
	image, ok := b.drives[drive]
	if !ok {
		glog.Warningf("int13h: no drive %#x", drive)
		return StatusInvalidCommand
	}

	size := int(packet.Sectors) * SectorSize
	if packet.Size != AddressPacketSize || packet.Sectors == 0 || len(dst) < size {
		glog.Warningf("int13h: drive %#x: invalid packet %v for %d byte buffer", drive, packet, len(dst))
		return StatusInvalidCommand
	}
	if packet.LBA > math.MaxInt64/SectorSize {
		return StatusSectorNotFound
	}

	glog.V(2).Infof("int13h: drive %#x: %v", drive, packet)
	n, err := image.ReadAt(dst[:size], int64(packet.LBA)*SectorSize)
	switch {
	case n == size:
		return StatusOK
	case err == nil || err == io.EOF:
		glog.V(1).Infof("int13h: drive %#x: %v ends after %d bytes", drive, packet, n)
		return StatusSectorNotFound
	default:
		glog.Errorf("int13h: drive %#x: %v: %v", drive, packet, err)
		return StatusControllerFailure
	}
}
