package loader

import (
	"fmt"

	"github.com/aligator/stage2/bridge"
	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/fat"
	"github.com/aligator/stage2/mbr"
	"go.uber.org/multierr"
)

// ErrInvalidConfig is returned by New for a Config which does not pass
// Validate.
var ErrInvalidConfig = checkpoint.Coded(checkpoint.Unknown, "invalid loader configuration")

// Config describes what is loaded where.
type Config struct {
	// ReservedType is the partition type byte of the loader's reserved
	// partition. The FAT partition follows it in the partition table.
	ReservedType byte

	Stage3Name string
	Stage4Name string
	KernelName string

	// Stage3Dst is where stage 3 is loaded and where control is passed to.
	// Stage 4 follows it on the next sector boundary.
	Stage3Dst uint32
	KernelDst uint32

	// Verify selects the read back after every copy to high memory.
	Verify bridge.Verification
	// Attempts is how often a failing BIOS read is issued.
	Attempts int
	// Verbose prints every chunk copied.
	Verbose bool
}

// DefaultConfig returns the layout stage 3 and the kernel expect.
func DefaultConfig() Config {
	return Config{
		ReservedType: mbr.BootloaderPartitionType,
		Stage3Name:   "STAGE3.BIN",
		Stage4Name:   "STAGE4.BIN",
		KernelName:   "KERNEL.BIN",
		Stage3Dst:    0x100000,
		KernelDst:    0x1000000,
		Verify:       bridge.VerifyFirstByte,
		Attempts:     1,
	}
}

// Validate reports every problem of the config at once.
func (c Config) Validate() error {
	var err error

	if mbr.PartitionType(c.ReservedType).Kind() != mbr.KindUnknown {
		err = multierr.Append(err, fmt.Errorf("reserved partition type 0x%02x is a known type", c.ReservedType))
	}

	for _, n := range []struct{ what, name string }{
		{"stage 3", c.Stage3Name},
		{"stage 4", c.Stage4Name},
		{"kernel", c.KernelName},
	} {
		if _, nameErr := fat.ShortName(n.name); nameErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s file name: %w", n.what, nameErr))
		}
	}

	for _, d := range []struct {
		what string
		addr uint32
	}{
		{"stage 3", c.Stage3Dst},
		{"kernel", c.KernelDst},
	} {
		if d.addr < disk.LowMemoryLimit {
			err = multierr.Append(err, fmt.Errorf("%s destination %#x is below %#x", d.what, d.addr, disk.LowMemoryLimit))
		}
		if d.addr%disk.SectorSize != 0 {
			err = multierr.Append(err, fmt.Errorf("%s destination %#x is not sector aligned", d.what, d.addr))
		}
	}
	if c.Stage3Dst == c.KernelDst {
		err = multierr.Append(err, fmt.Errorf("stage 3 and kernel share the destination %#x", c.Stage3Dst))
	}

	if c.Verify > bridge.VerifyAll {
		err = multierr.Append(err, fmt.Errorf("unknown verification %v", c.Verify))
	}
	if c.Attempts < 1 {
		err = multierr.Append(err, fmt.Errorf("%d read attempts, need at least one", c.Attempts))
	}
	return err
}
