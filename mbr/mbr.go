// Package mbr decodes the four primary partition records of a Master Boot
// Record and locates the loader's partitions in them.
package mbr

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aligator/stage2/checkpoint"
)

const (
	// EntrySize is the size of one partition record.
	EntrySize = 16
	// MaxEntries is the number of primary partition records.
	MaxEntries = 4
	// TableSize is the size of the whole partition table.
	TableSize = EntrySize * MaxEntries

	// TableOffset is the offset of the partition table inside the MBR sector.
	TableOffset = 446
	// SectorSize is the size of the MBR sector.
	SectorSize = 512
	// Signature is the little endian boot signature at offset 510.
	Signature = 0xAA55

	// BootloaderPartitionType marks the partition holding the loader's payload.
	// The FAT partition with the boot images directly follows it.
	BootloaderPartitionType byte = 0x20
)

// These errors may occur while looking for the boot partitions.
var (
	ErrShortTable              = checkpoint.Coded('P', "partition table too short")
	ErrInvalidSignature        = checkpoint.Coded('P', "invalid boot signature")
	ErrPartitionNotFound       = checkpoint.Coded('P', "partition not found")
	ErrUnexpectedPartitionType = checkpoint.Coded('T', "unexpected partition type")
)

// Entry is one decoded partition record.
type Entry struct {
	Type PartitionType
	// LBA is the first sector of the partition.
	LBA uint32
	// Length is the number of sectors of the partition.
	Length uint32
}

func (e Entry) String() string {
	return fmt.Sprintf("%v lba=%#x len=%#x", e.Type, e.LBA, e.Length)
}

// ParseEntries decodes the records of a raw partition table. The records are
// not validated, the previous stage already trusted them.
func ParseEntries(raw []byte) ([MaxEntries]Entry, error) {
	var entries [MaxEntries]Entry
	if len(raw) < TableSize {
		return entries, checkpoint.Wrap(fmt.Errorf("got %d bytes, want %d", len(raw), TableSize), ErrShortTable)
	}

	for idx := range entries {
		offset := idx * EntrySize
		entries[idx] = Entry{
			Type:   PartitionType(raw[offset+4]),
			LBA:    binary.LittleEndian.Uint32(raw[offset+8:]),
			Length: binary.LittleEndian.Uint32(raw[offset+12:]),
		}
	}
	return entries, nil
}

// FindBootPartition returns the index of the first entry whose type byte is
// tag.
func FindBootPartition(entries [MaxEntries]Entry, tag byte) (int, error) {
	for idx, e := range entries {
		if byte(e.Type) == tag {
			return idx, nil
		}
	}
	return -1, checkpoint.Wrap(fmt.Errorf("no entry of type 0x%02x", tag), ErrPartitionNotFound)
}

// FATPartition returns the entry directly following the reserved partition
// of type tag. It must be a FAT12, FAT16 or FAT32 partition.
func FATPartition(entries [MaxEntries]Entry, tag byte) (Entry, error) {
	idx, err := FindBootPartition(entries, tag)
	if err != nil {
		return Entry{}, err
	}
	if idx+1 >= MaxEntries {
		return Entry{}, checkpoint.Wrap(fmt.Errorf("reserved partition is the last entry"), ErrPartitionNotFound)
	}

	fat := entries[idx+1]
	if !fat.Type.IsFAT() {
		return Entry{}, checkpoint.Wrap(fmt.Errorf("entry %d is %v", idx+1, fat.Type), ErrUnexpectedPartitionType)
	}
	return fat, nil
}

// ReadTable reads a whole MBR sector from r, checks the boot signature and
// returns the raw partition table.
func ReadTable(r io.ReaderAt) ([]byte, error) {
	sector := make([]byte, SectorSize)
	n, err := r.ReadAt(sector, 0)
	if n < SectorSize {
		if err == nil || err == io.EOF {
			err = fmt.Errorf("read %d of %d bytes: %w", n, SectorSize, io.ErrUnexpectedEOF)
		}
		return nil, checkpoint.Wrap(err, ErrShortTable)
	}
	if sig := binary.LittleEndian.Uint16(sector[510:]); sig != Signature {
		return nil, checkpoint.Wrap(fmt.Errorf("got 0x%04x", sig), ErrInvalidSignature)
	}
	return sector[TableOffset : TableOffset+TableSize], nil
}
