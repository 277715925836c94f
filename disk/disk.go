// Package disk turns a partition of a BIOS drive into a seekable byte stream.
//
// All physical transfers are whole sectors issued through the BIOS extended
// read service into a caller-owned staging Buffer. The BIOS can only address
// memory below 1 MiB, so the Buffer has to live there even after the CPU has
// been switched to unreal mode.
package disk

import (
	"fmt"
	"io"
	"syscall"

	"github.com/aligator/stage2/checkpoint"
)

const (
	// SectorSize is the size of a BIOS sector.
	SectorSize = 512

	// DefaultBufferSize is the capacity of the staging buffer the stage uses.
	DefaultBufferSize = 0x4000

	// MaxSectorsPerCall is the largest transfer many BIOS implementations
	// accept in one extended read.
	MaxSectorsPerCall = 127

	// LowMemoryLimit is the end of the memory reachable by real mode
	// segment:offset addressing.
	LowMemoryLimit = 0x100000
)

// These errors may occur while accessing the disk.
var (
	ErrRead            = checkpoint.Coded('D', "disk read error")
	ErrSeek            = checkpoint.Coded('D', "invalid seek")
	ErrOutOfBounds     = checkpoint.Coded('D', "access outside of the partition")
	ErrBufferTooSmall  = checkpoint.Coded('D', "read larger than the staging buffer")
	ErrBufferPlacement = checkpoint.Coded('D', "staging buffer not addressable by the BIOS")
)

// Access reads a single partition of a drive.
//
// Copying an Access copies its cursor only; no buffer is owned by it.
type Access struct {
	BIOS  BIOS
	Drive uint16

	// Base is the byte offset of the partition on the drive.
	Base uint64
	// Length is the size of the partition in bytes. Zero disables bounds
	// checking.
	Length uint64
	// Attempts is how often a failed BIOS call is issued before giving up.
	// Values below one mean a single attempt.
	Attempts int

	offset uint64
}

// Offset returns the current cursor relative to the start of the partition.
func (a *Access) Offset() uint64 {
	return a.offset
}

// Seek moves the cursor. Offsets are relative to the start of the partition.
// May return a syscall.EINVAL error if the whence value is invalid.
func (a *Access) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += int64(a.offset)
	case io.SeekEnd:
		if a.Length == 0 {
			return 0, checkpoint.Wrap(fmt.Errorf("%w, partition length unknown", syscall.EINVAL), ErrSeek)
		}
		offset += int64(a.Length)
	default:
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeek)
	}

	if offset < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("negative offset %d", offset), ErrSeek)
	}
	if a.Length != 0 && uint64(offset) > a.Length {
		return 0, checkpoint.Wrap(fmt.Errorf("offset %#x beyond %#x", offset, a.Length), ErrOutOfBounds)
	}

	a.offset = uint64(offset)
	return offset, nil
}

// ReadExact reads exactly n bytes at the cursor into buf and advances the
// cursor by n. The returned slice aliases buf and is only valid until buf is
// used again.
func (a *Access) ReadExact(n int, buf *Buffer) ([]byte, error) {
	if n < 0 || n > buf.Cap() {
		return nil, checkpoint.Wrap(fmt.Errorf("%d bytes, capacity %d", n, buf.Cap()), ErrBufferTooSmall)
	}
	if a.Length != 0 && a.offset+uint64(n) > a.Length {
		return nil, checkpoint.Wrap(fmt.Errorf("[%#x, %#x) beyond %#x", a.offset, a.offset+uint64(n), a.Length), ErrOutOfBounds)
	}
	if n == 0 {
		return buf.mem[:0], nil
	}

	pos := a.Base + a.offset
	first := pos / SectorSize
	intra := int(pos % SectorSize)
	sectors := (intra + n + SectorSize - 1) / SectorSize

	for done := 0; done < sectors; {
		count := sectors - done
		if count > MaxSectorsPerCall {
			count = MaxSectorsPerCall
		}

		packet, err := NewAddressPacket(first+uint64(done), uint16(count), buf.base+uint32(done*SectorSize))
		if err != nil {
			return nil, err
		}
		if err := a.extendedRead(&packet, buf.mem[done*SectorSize:(done+count)*SectorSize]); err != nil {
			return nil, err
		}
		done += count
	}

	a.offset += uint64(n)
	return buf.mem[intra : intra+n], nil
}

func (a *Access) extendedRead(packet *AddressPacket, dst []byte) error {
	attempts := a.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var status uint8
	for i := 0; i < attempts; i++ {
		if status = a.BIOS.ExtendedRead(a.Drive, packet, dst); status == StatusOK {
			return nil
		}
	}
	return checkpoint.Wrap(fmt.Errorf("%w: drive %#x %v", StatusError(status), a.Drive, packet), ErrRead)
}
