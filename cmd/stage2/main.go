//go:build baremetal
// +build baremetal

// Command stage2 is the second boot stage. The first stage loads it from the
// reserved partition and calls main via the rt0 code, which also stores the
// boot drive and the address of the partition table it booted from.
package main

import (
	"unsafe"

	"github.com/aligator/stage2/bridge"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/loader"
	"github.com/aligator/stage2/mbr"
	"github.com/aligator/stage2/screen"
)

var (
	// diskNumber and partitionTable are written by rt0 before main runs.
	diskNumber     uint16
	partitionTable uintptr

	// diskMemory backs the staging buffer. Real mode addresses are
	// physical, so its address is what the BIOS gets.
	diskMemory [disk.DefaultBufferSize + 2*disk.SectorSize]byte

	// hardware holds the descriptor tables, which have to stay in place.
	hardware bridge.Hardware
)

func main() {
	out := screen.NewConsole(screen.BIOSTeletype{})

	base := uintptr(unsafe.Pointer(&diskMemory[0]))
	skip := int((disk.SectorSize - base%disk.SectorSize) % disk.SectorSize)
	buf, err := disk.WrapBuffer(diskMemory[skip:skip+disk.DefaultBufferSize+disk.SectorSize], uint32(base)+uint32(skip))
	if err != nil {
		loader.Halt(out, err)
	}

	l, err := loader.New(loader.DefaultConfig(), disk.BIOSServices{}, &hardware, out, buf)
	if err != nil {
		loader.Halt(out, err)
	}

	table := (*[mbr.TableSize]byte)(unsafe.Pointer(partitionTable))
	l.Boot(diskNumber, table[:])
}
