// Package fat reads files from the root directory of a FAT12, FAT16 or FAT32
// partition.
//
// Nothing is cached. Every lookup goes to the disk through the staging buffer
// the caller passes in, so a FileSystem never holds more than its geometry.
package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
)

// Type is the FAT variant, named after the width of a table entry.
type Type uint8

const (
	FAT12 Type = 12
	FAT16 Type = 16
	FAT32 Type = 32
)

func (t Type) String() string {
	switch t {
	case FAT12, FAT16, FAT32:
		return fmt.Sprintf("FAT%d", uint8(t))
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Cluster counts at which the FAT type changes.
const (
	maxClustersFAT12 = 4085
	maxClustersFAT16 = 65525
)

// These errors may occur while reading the filesystem.
var (
	ErrInvalidBPB          = checkpoint.Coded('B', "invalid BIOS parameter block")
	ErrFileNotFound        = checkpoint.Coded('F', "file not found")
	ErrInvalidName         = checkpoint.Coded('F', "not a valid 8.3 name")
	ErrClusterChainCorrupt = checkpoint.Coded('C', "cluster chain corrupt")
)

// FileSystem holds the geometry of a FAT partition.
type FileSystem struct {
	disk    disk.Access
	fatType Type
	label   string

	bytesPerSector uint32
	clusterSize    uint32
	// clusters is the number of data clusters. Valid cluster numbers are
	// 2 to clusters+1.
	clusters uint32

	fatOffset   uint64
	rootOffset  uint64
	rootSize    uint32
	rootCluster uint32
	dataOffset  uint64
}

// Parse reads the boot sector at the start of d and derives the geometry of
// the filesystem. The cursor of d is not touched, Parse works on a copy.
func Parse(d disk.Access, buf *disk.Buffer) (*FileSystem, error) {
	if _, err := d.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	raw, err := d.ReadExact(disk.SectorSize, buf)
	if err != nil {
		return nil, err
	}

	bpb := BPB{}
	if err := binary.Read(bytes.NewReader(raw[:bpbSize]), binary.LittleEndian, &bpb); err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidBPB)
	}

	fs, err := newFileSystem(d, bpb)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidBPB)
	}
	return fs, nil
}

func newFileSystem(d disk.Access, bpb BPB) (*FileSystem, error) {
	switch bpb.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return nil, fmt.Errorf("invalid sector size %d", bpb.BytesPerSector)
	}

	// Sectors per cluster has to be a power of two and greater than 0.
	spc := uint32(bpb.SectorsPerCluster)
	if spc == 0 || spc&(spc-1) != 0 {
		return nil, fmt.Errorf("invalid sectors per cluster %d", spc)
	}

	if bpb.ReservedSectorCount == 0 {
		return nil, fmt.Errorf("invalid reserved sector count")
	}
	if bpb.NumFATs == 0 {
		return nil, fmt.Errorf("no FAT")
	}

	fat32 := FAT32SpecificData{}
	if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &fat32); err != nil {
		return nil, err
	}

	fatSize := uint32(bpb.FATSize16)
	if fatSize == 0 {
		fatSize = fat32.FATSize32
	}
	if fatSize == 0 {
		return nil, fmt.Errorf("invalid FAT size")
	}

	totalSectors := uint32(bpb.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = bpb.TotalSectors32
	}

	bps := uint32(bpb.BytesPerSector)
	rootSectors := (uint32(bpb.RootEntryCount)*entrySize + bps - 1) / bps
	firstData := uint64(bpb.ReservedSectorCount) + uint64(bpb.NumFATs)*uint64(fatSize) + uint64(rootSectors)
	if firstData >= uint64(totalSectors) {
		return nil, fmt.Errorf("data region starts at sector %d of %d", firstData, totalSectors)
	}
	if d.Length != 0 && uint64(totalSectors)*uint64(bps) > d.Length {
		return nil, fmt.Errorf("%d sectors do not fit into a partition of %d bytes", totalSectors, d.Length)
	}

	fs := &FileSystem{
		disk:           d,
		bytesPerSector: bps,
		clusterSize:    spc * bps,
		clusters:       uint32((uint64(totalSectors) - firstData) / uint64(spc)),
		fatOffset:      uint64(bpb.ReservedSectorCount) * uint64(bps),
		rootSize:       uint32(bpb.RootEntryCount) * entrySize,
		dataOffset:     firstData * uint64(bps),
	}
	fs.rootOffset = fs.fatOffset + uint64(bpb.NumFATs)*uint64(fatSize)*uint64(bps)

	var label [11]byte
	switch {
	case fs.clusters < maxClustersFAT12:
		fs.fatType = FAT12
	case fs.clusters < maxClustersFAT16:
		fs.fatType = FAT16
	default:
		fs.fatType = FAT32
	}

	if fs.fatType == FAT32 {
		if bpb.RootEntryCount != 0 {
			return nil, fmt.Errorf("FAT32 with %d fixed root entries", bpb.RootEntryCount)
		}
		fs.rootCluster = fat32.RootCluster & fat32EntryMask
		if !fs.validCluster(fs.rootCluster) {
			return nil, fmt.Errorf("invalid root cluster %d", fs.rootCluster)
		}
		label = fat32.BSVolumeLabel
	} else {
		if bpb.RootEntryCount == 0 {
			return nil, fmt.Errorf("%v without root entries", fs.fatType)
		}
		fat16 := FAT16SpecificData{}
		if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &fat16); err != nil {
			return nil, err
		}
		label = fat16.BSVolumeLabel
	}

	// Every cluster needs an entry in the FAT.
	entries := uint64(fatSize) * uint64(bps) * 8 / uint64(fs.fatType.entryBits())
	if entries < uint64(fs.clusters)+2 {
		return nil, fmt.Errorf("FAT of %d sectors cannot hold %d clusters", fatSize, fs.clusters)
	}

	fs.label = strings.TrimRight(string(label[:]), " \x00")
	return fs, nil
}

// Type returns the FAT variant of the filesystem.
func (fs *FileSystem) Type() Type {
	return fs.fatType
}

// Label returns the volume label of the boot sector.
func (fs *FileSystem) Label() string {
	return fs.label
}

// ClusterSize returns the size of a cluster in bytes.
func (fs *FileSystem) ClusterSize() uint32 {
	return fs.clusterSize
}

// Clusters returns the number of data clusters.
func (fs *FileSystem) Clusters() uint32 {
	return fs.clusters
}

func (fs *FileSystem) validCluster(cluster uint32) bool {
	return cluster >= 2 && cluster-2 < fs.clusters
}

// clusterOffset is the partition relative byte offset of a data cluster.
func (fs *FileSystem) clusterOffset(cluster uint32) uint64 {
	return fs.dataOffset + uint64(cluster-2)*uint64(fs.clusterSize)
}

func (fs *FileSystem) String() string {
	return fmt.Sprintf("%v label=%q clusters=%d cluster size=%d", fs.fatType, fs.label, fs.clusters, fs.clusterSize)
}
