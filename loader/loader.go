// Package loader is the second boot stage: it finds the FAT partition next to
// the reserved loader partition, copies stage 3, stage 4 and the kernel to
// high memory and enters stage 3 in protected mode.
package loader

import (
	"fmt"
	"io"
	"math"

	"github.com/aligator/stage2/bridge"
	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/fat"
	"github.com/aligator/stage2/mbr"
	"github.com/aligator/stage2/screen"
)

// ErrOverlap is returned if a file would be copied over an already loaded
// one.
var ErrOverlap = checkpoint.Coded('O', "destination regions overlap")

// Stage is a file copied to high memory.
type Stage struct {
	// Label is how the stage is called in messages, like "stage 3".
	Label string
	Name  string
	Dst   uint32
	Size  uint32
}

// End returns the first address after the stage.
func (s Stage) End() uint64 {
	return uint64(s.Dst) + uint64(s.Size)
}

func (s Stage) String() string {
	return fmt.Sprintf("%s %s [%#x, %#x)", s.Label, s.Name, s.Dst, s.End())
}

// Indices into Report.Stages.
const (
	Stage3 = iota
	Stage4
	Kernel
	numStages
)

// Report describes a successful run.
type Report struct {
	Partition  mbr.Entry
	FileSystem fat.Type
	Stages     [numStages]Stage
	// Entry is the address execution continued at.
	Entry uint32
}

// Loader runs the second stage.
type Loader struct {
	cfg    Config
	bios   disk.BIOS
	bridge *bridge.Bridge
	out    io.Writer
	buf    *disk.Buffer

	loaded [numStages]Stage
	count  int
}

// New creates a Loader. The CPU behind mem has to be in real mode, buf is
// used for every disk access and out receives progress messages.
func New(cfg Config, bios disk.BIOS, mem bridge.Memory, out io.Writer, buf *disk.Buffer) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidConfig)
	}
	return &Loader{
		cfg:    cfg,
		bios:   bios,
		bridge: bridge.New(mem, cfg.Verify),
		out:    out,
		buf:    buf,
	}, nil
}

// Run loads all stages from drive using the raw partition table the first
// stage left behind and jumps to stage 3. On hardware a successful Run does
// not return.
func (l *Loader) Run(drive uint16, table []byte) (Report, error) {
	var report Report
	l.count = 0

	screen.Fprintf(l.out, " -> SECOND STAGE\n")

	if err := l.bridge.EnterUnrealMode(); err != nil {
		return report, err
	}

	entries, err := mbr.ParseEntries(table)
	if err != nil {
		return report, err
	}
	partition, err := mbr.FATPartition(entries, l.cfg.ReservedType)
	if err != nil {
		return report, err
	}
	report.Partition = partition

	access := disk.Access{
		BIOS:     l.bios,
		Drive:    drive,
		Base:     uint64(partition.LBA) * disk.SectorSize,
		Length:   uint64(partition.Length) * disk.SectorSize,
		Attempts: l.cfg.Attempts,
	}
	fs, err := fat.Parse(access, l.buf)
	if err != nil {
		return report, err
	}
	report.FileSystem = fs.Type()

	stage3, err := l.load(fs, access, "stage 3", l.cfg.Stage3Name, uint64(l.cfg.Stage3Dst))
	if err != nil {
		return report, err
	}
	report.Stages[Stage3] = stage3

	stage4, err := l.load(fs, access, "stage 4", l.cfg.Stage4Name, alignUp(stage3.End(), disk.SectorSize))
	if err != nil {
		return report, err
	}
	report.Stages[Stage4] = stage4

	kernel, err := l.load(fs, access, "kernel", l.cfg.KernelName, uint64(l.cfg.KernelDst))
	if err != nil {
		return report, err
	}
	report.Stages[Kernel] = kernel

	report.Entry = l.cfg.Stage3Dst
	if err := l.bridge.Jump(report.Entry); err != nil {
		return report, err
	}
	return report, nil
}

// load copies the file name of the root directory to dst.
func (l *Loader) load(fs *fat.FileSystem, d disk.Access, label, name string, dst uint64) (Stage, error) {
	stage := Stage{Label: label, Name: name}

	entry, err := fs.FindFileInRootDir(name, l.buf)
	if err != nil {
		return stage, err
	}
	if dst > math.MaxUint32 || dst+uint64(entry.Size) > math.MaxUint32+1 {
		return stage, checkpoint.Wrap(fmt.Errorf("%s: %d bytes at %#x", name, entry.Size, dst), bridge.ErrAddressRange)
	}
	stage.Dst = uint32(dst)
	stage.Size = entry.Size

	if err := l.claim(stage); err != nil {
		return stage, err
	}

	chunkSize := uint64(l.buf.Cap())
	written := uint32(0)
	clusters := fs.FileClusters(entry, l.buf)
	for clusters.Next() {
		extent := clusters.Extent()
		for done := uint64(0); done < uint64(extent.Len); {
			start := extent.Offset + done
			n := uint64(extent.Len) - done
			if n > chunkSize {
				n = chunkSize
			}
			if l.cfg.Verbose {
				screen.Fprintf(l.out, "loading bytes 0x%x-0x%x\n", start, start+n)
			}

			if _, err := d.Seek(int64(start), io.SeekStart); err != nil {
				return stage, err
			}
			chunk, err := d.ReadExact(int(n), l.buf)
			if err != nil {
				return stage, err
			}
			if err := l.bridge.Copy(stage.Dst+written, chunk); err != nil {
				return stage, err
			}

			written += uint32(n)
			done += n
		}
	}
	if err := clusters.Err(); err != nil {
		return stage, err
	}

	screen.Fprintf(l.out, "%s loaded at 0x%x\n", label, stage.Dst)
	return stage, nil
}

// claim records the region of stage after checking it against everything
// loaded before. Empty stages occupy nothing. The staging buffer needs no
// check, Validate keeps all destinations above it.
func (l *Loader) claim(stage Stage) error {
	if stage.Size == 0 {
		return nil
	}

	for _, other := range l.loaded[:l.count] {
		if overlaps(stage, other) {
			return checkpoint.Wrap(fmt.Errorf("%v and %v", stage, other), ErrOverlap)
		}
	}

	l.loaded[l.count] = stage
	l.count++
	return nil
}

func overlaps(a, b Stage) bool {
	return uint64(a.Dst) < b.End() && uint64(b.Dst) < a.End()
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}
