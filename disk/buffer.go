package disk

import (
	"fmt"

	"github.com/aligator/stage2/checkpoint"
)

// Buffer is the staging area between the BIOS and the rest of the stage.
//
// It has a fixed capacity and one extra sector of headroom, so reading Cap()
// bytes that do not start on a sector boundary still fits. The memory is
// owned by whoever created the Buffer; disk and fat only borrow it for the
// duration of one call.
type Buffer struct {
	base uint32
	mem  []byte
}

// NewBuffer allocates a buffer of the given capacity whose first byte the
// BIOS sees at the physical address base.
func NewBuffer(capacity int, base uint32) (*Buffer, error) {
	if capacity <= 0 || capacity%SectorSize != 0 {
		return nil, checkpoint.Wrap(fmt.Errorf("capacity %d is not a positive multiple of %d", capacity, SectorSize), ErrBufferPlacement)
	}
	return WrapBuffer(make([]byte, capacity+SectorSize), base)
}

// WrapBuffer uses mem, located at the physical address base, as a buffer.
// The usable capacity is one sector less than len(mem).
func WrapBuffer(mem []byte, base uint32) (*Buffer, error) {
	switch {
	case len(mem) < 2*SectorSize || len(mem)%SectorSize != 0:
		return nil, checkpoint.Wrap(fmt.Errorf("size %d", len(mem)), ErrBufferPlacement)
	case base%SectorSize != 0:
		return nil, checkpoint.Wrap(fmt.Errorf("base %#x is not sector aligned", base), ErrBufferPlacement)
	case uint64(base)+uint64(len(mem)) > LowMemoryLimit:
		return nil, checkpoint.Wrap(fmt.Errorf("[%#x, %#x) crosses %#x", base, uint64(base)+uint64(len(mem)), LowMemoryLimit), ErrBufferPlacement)
	}
	return &Buffer{base: base, mem: mem}, nil
}

// Cap returns the largest number of bytes a single ReadExact may request.
func (b *Buffer) Cap() int {
	return len(b.mem) - SectorSize
}

// Base returns the physical address of the buffer.
func (b *Buffer) Base() uint32 {
	return b.base
}
