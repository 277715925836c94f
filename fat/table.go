package fat

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aligator/stage2/disk"
)

const fat32EntryMask = 0x0FFFFFFF

// Table entry values. Bad and end of chain markers are given for FAT12 and
// are extended by ones for the wider types.
const (
	clusterFree     = 0x000
	clusterReserved = 0x001
	clusterBad      = 0xFF7
	clusterEOC      = 0xFF8
)

func (t Type) entryBits() uint32 {
	if t == FAT32 {
		// The upper four bits are reserved.
		return 32
	}
	return uint32(t)
}

// marker widens a FAT12 marker value to the width of t.
func (t Type) marker(v uint32) uint32 {
	switch t {
	case FAT16:
		return v | 0xF000
	case FAT32:
		return v | 0x0FFFF000
	default:
		return v
	}
}

// entryOffset returns the offset of the entry of cluster relative to the
// start of the FAT.
func (t Type) entryOffset(cluster uint32) uint64 {
	switch t {
	case FAT12:
		return uint64(cluster) + uint64(cluster/2)
	case FAT16:
		return uint64(cluster) * 2
	default:
		return uint64(cluster) * 4
	}
}

// entryWidth is the number of bytes to read at entryOffset.
func (t Type) entryWidth() int {
	if t == FAT32 {
		return 4
	}
	return 2
}

// decodeEntry decodes the entry of cluster from raw, which starts at
// entryOffset(cluster).
func (t Type) decodeEntry(raw []byte, cluster uint32) uint32 {
	switch t {
	case FAT12:
		// Two entries share three bytes.
		v := uint32(binary.LittleEndian.Uint16(raw))
		if cluster&1 == 1 {
			return v >> 4
		}
		return v & 0x0FFF
	case FAT16:
		return uint32(binary.LittleEndian.Uint16(raw))
	default:
		return binary.LittleEndian.Uint32(raw) & fat32EntryMask
	}
}

// nextCluster reads the FAT entry of cluster.
func (fs *FileSystem) nextCluster(cluster uint32, buf *disk.Buffer) (uint32, error) {
	d := fs.disk
	if _, err := d.Seek(int64(fs.fatOffset+fs.fatType.entryOffset(cluster)), io.SeekStart); err != nil {
		return 0, err
	}
	raw, err := d.ReadExact(fs.fatType.entryWidth(), buf)
	if err != nil {
		return 0, err
	}
	return fs.fatType.decodeEntry(raw, cluster), nil
}

// checkLink validates value as the successor of a chain. End of chain is
// handled by the caller.
func (fs *FileSystem) checkLink(value uint32) error {
	switch {
	case value == clusterFree:
		return fmt.Errorf("links to a free cluster")
	case value == clusterReserved:
		return fmt.Errorf("links to the reserved cluster")
	case value == fs.fatType.marker(clusterBad):
		return fmt.Errorf("links to a bad cluster")
	case !fs.validCluster(value):
		return fmt.Errorf("links to cluster %#x outside of %d clusters", value, fs.clusters)
	}
	return nil
}

func (fs *FileSystem) isEndOfChain(value uint32) bool {
	return value >= fs.fatType.marker(clusterEOC)
}
