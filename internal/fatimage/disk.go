package fatimage

import (
	"encoding/binary"
	"fmt"
)

// Partition table constants of the MBR sector.
const (
	TableOffset = 446
	TableSize   = 64

	// ReservedType is the type byte of the loader's reserved partition.
	ReservedType = 0x20
)

// Disk describes a drive with a reserved partition directly followed by a
// FAT partition.
type Disk struct {
	// ReservedLBA is the first sector of the reserved partition. Defaults
	// to 1.
	ReservedLBA uint32
	// ReservedSectors is the size of the reserved partition. Defaults to 63.
	ReservedSectors uint32
	// FATType overrides the partition type byte of the FAT partition.
	FATType byte
	// ReservedSlot is the table slot of the reserved partition. The FAT
	// partition always takes the next one.
	ReservedSlot int
}

// DiskImage is a built disk.
type DiskImage struct {
	Data   []byte
	Volume *Image
	// FATLBA is the first sector of the FAT partition.
	FATLBA uint32
}

// Table returns the raw partition table.
func (d *DiskImage) Table() []byte {
	return d.Data[TableOffset : TableOffset+TableSize]
}

// PartitionType returns the usual partition type byte for a FAT type.
func PartitionType(fatType int) byte {
	switch fatType {
	case 12:
		return 0x01
	case 16:
		return 0x06
	default:
		return 0x0C
	}
}

// Build places vol on a new disk.
func (d Disk) Build(vol *Image) (*DiskImage, error) {
	if d.ReservedLBA == 0 {
		d.ReservedLBA = 1
	}
	if d.ReservedSectors == 0 {
		d.ReservedSectors = 63
	}
	if d.FATType == 0 {
		d.FATType = PartitionType(vol.Type)
	}
	if d.ReservedSlot < 0 || d.ReservedSlot > 2 {
		return nil, fmt.Errorf("reserved partition in slot %d leaves no room for the FAT partition", d.ReservedSlot)
	}

	fatLBA := d.ReservedLBA + d.ReservedSectors
	fatSectors := uint32(len(vol.Data) / sectorSize)
	img := &DiskImage{
		Data:   make([]byte, (int(fatLBA)+int(fatSectors))*sectorSize),
		Volume: vol,
		FATLBA: fatLBA,
	}
	copy(img.Data[int(fatLBA)*sectorSize:], vol.Data)

	table := img.Data[TableOffset : TableOffset+TableSize]
	putEntry(table[d.ReservedSlot*16:], ReservedType, d.ReservedLBA, d.ReservedSectors)
	putEntry(table[(d.ReservedSlot+1)*16:], d.FATType, fatLBA, fatSectors)
	img.Data[510], img.Data[511] = 0x55, 0xAA
	return img, nil
}

func putEntry(b []byte, typ byte, lba, sectors uint32) {
	b[0] = 0x00
	// CHS values are unused, mark them as such.
	copy(b[1:4], []byte{0xFF, 0xFF, 0xFE})
	b[4] = typ
	copy(b[5:8], []byte{0xFF, 0xFF, 0xFE})
	binary.LittleEndian.PutUint32(b[8:], lba)
	binary.LittleEndian.PutUint32(b[12:], sectors)
}
