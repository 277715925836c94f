// Package fatimage builds small FAT12, FAT16 and FAT32 volumes and bootable
// disk images around them.
package fatimage

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	sectorSize = 512
	entrySize  = 32
	media      = 0xF8
)

// File is a root directory entry of a Volume.
type File struct {
	// Name in the 8.3 form, like "KERNEL.BIN".
	Name string
	Data []byte
	// Time is stored as the write time.
	Time time.Time

	// Dir creates an empty directory instead of a file.
	Dir bool
	// Deleted writes the entry with the deleted marker.
	Deleted bool
	// LongName precedes the entry with a long filename entry.
	LongName bool
	// Empty leaves the directory slot zeroed. Name and Data are ignored.
	Empty bool
}

// Volume describes a FAT volume.
type Volume struct {
	// Type is 12, 16 or 32.
	Type int
	// Sectors is the total number of sectors. The default is the smallest
	// size which reliably results in Type.
	Sectors uint32
	// SectorsPerCluster defaults to 2 for FAT12 and 1 otherwise.
	SectorsPerCluster uint8
	// RootEntries is the size of the FAT12/16 root directory. Defaults to 64.
	RootEntries uint16
	// RootClusters is the minimal length of the FAT32 root directory chain.
	RootClusters int
	Label        string
	Files        []File
	// Fragment hands out clusters round robin among all files, so no chain
	// is contiguous.
	Fragment bool
}

// Image is a built volume.
type Image struct {
	Data        []byte
	Type        int
	ClusterSize int
	// Chains holds the clusters of every file by name, in chain order.
	Chains map[string][]uint32
	// RootChain is the FAT32 root directory chain.
	RootChain []uint32

	fatOffset  int
	fatSize    int
	numFATs    int
	dataOffset int
	clusters   uint32
}

type geometry struct {
	total    uint32
	spc      uint32
	reserved uint32
	numFATs  uint32
	fatSize  uint32
	rootSecs uint32
	clusters uint32
}

func (v Volume) geometry() (geometry, error) {
	g := geometry{numFATs: 2, spc: uint32(v.SectorsPerCluster), total: v.Sectors}
	rootEntries := uint32(v.RootEntries)

	switch v.Type {
	case 12:
		g.reserved = 1
		if g.spc == 0 {
			g.spc = 2
		}
		if g.total == 0 {
			g.total = 4096
		}
	case 16:
		g.reserved = 1
		if g.spc == 0 {
			g.spc = 1
		}
		if g.total == 0 {
			g.total = 8192
		}
	case 32:
		g.reserved = 32
		if g.spc == 0 {
			g.spc = 1
		}
		if g.total == 0 {
			g.total = 70000 * g.spc
		}
		rootEntries = 0
	default:
		return g, fmt.Errorf("unsupported FAT type %d", v.Type)
	}
	if v.Type != 32 && rootEntries == 0 {
		rootEntries = 64
	}
	g.rootSecs = (rootEntries*entrySize + sectorSize - 1) / sectorSize

	bits := uint32(v.Type)
	for g.fatSize = 1; ; {
		meta := g.reserved + g.numFATs*g.fatSize + g.rootSecs
		if meta >= g.total {
			return g, fmt.Errorf("%d sectors are too small", g.total)
		}
		g.clusters = (g.total - meta) / g.spc
		need := ((g.clusters+2)*bits/8 + sectorSize) / sectorSize
		if need <= g.fatSize {
			break
		}
		g.fatSize = need
	}

	got := 32
	switch {
	case g.clusters < 4085:
		got = 12
	case g.clusters < 65525:
		got = 16
	}
	if got != v.Type {
		return g, fmt.Errorf("%d clusters make a FAT%d volume, not FAT%d", g.clusters, got, v.Type)
	}
	return g, nil
}

// Build creates the volume.
func (v Volume) Build() (*Image, error) {
	g, err := v.geometry()
	if err != nil {
		return nil, err
	}

	img := &Image{
		Data:        make([]byte, int(g.total)*sectorSize),
		Type:        v.Type,
		ClusterSize: int(g.spc) * sectorSize,
		Chains:      make(map[string][]uint32),
		fatOffset:   int(g.reserved) * sectorSize,
		fatSize:     int(g.fatSize) * sectorSize,
		numFATs:     int(g.numFATs),
		dataOffset:  int(g.reserved+g.numFATs*g.fatSize+g.rootSecs) * sectorSize,
		clusters:    g.clusters,
	}
	img.writeBootSector(v, g)
	img.SetFATEntry(0, img.marker(0xF00|media))
	img.SetFATEntry(1, img.marker(0xFFF))

	// Directory entries first, so their number is known for the FAT32 root.
	var dir []byte
	if v.Label != "" {
		dir = append(dir, rawEntry(shortName(v.Label), 0x08, 0, 0, time.Time{})...)
	}
	for _, f := range v.Files {
		if f.Empty {
			dir = append(dir, make([]byte, entrySize)...)
			continue
		}
		if f.LongName {
			dir = append(dir, longNameEntry(f.Name)...)
		}
		// The first cluster is patched in after allocation.
		dir = append(dir, make([]byte, entrySize)...)
	}

	alloc := &allocator{next: 2, max: g.clusters + 1}
	if v.Type == 32 {
		n := (len(dir) + img.ClusterSize - 1) / img.ClusterSize
		if n < v.RootClusters {
			n = v.RootClusters
		}
		if n == 0 {
			n = 1
		}
		if img.RootChain, err = alloc.take(n); err != nil {
			return nil, err
		}
		if len(dir) > n*img.ClusterSize {
			return nil, fmt.Errorf("%d root entries do not fit", len(dir)/entrySize)
		}
	} else if len(dir) > int(g.rootSecs)*sectorSize {
		return nil, fmt.Errorf("%d root entries do not fit into %d sectors", len(dir)/entrySize, g.rootSecs)
	}

	need := make([]int, len(v.Files))
	for i, f := range v.Files {
		switch {
		case f.Empty:
		case f.Dir:
			need[i] = 1
		default:
			need[i] = (len(f.Data) + img.ClusterSize - 1) / img.ClusterSize
		}
	}
	chains, err := alloc.files(need, v.Fragment)
	if err != nil {
		return nil, err
	}

	slot := 0
	if v.Label != "" {
		slot++
	}
	for i, f := range v.Files {
		if f.Empty {
			slot++
			continue
		}
		if f.LongName {
			slot++
		}

		var first uint32
		if len(chains[i]) > 0 {
			first = chains[i][0]
			img.link(chains[i])
			img.Chains[f.Name] = chains[i]
		}

		attr := byte(0x20)
		size := uint32(len(f.Data))
		if f.Dir {
			attr, size = 0x10, 0
		} else {
			img.writeData(chains[i], f.Data)
		}
		e := rawEntry(shortName(f.Name), attr, first, size, f.Time)
		if f.Deleted {
			e[0] = 0xE5
		}
		copy(dir[slot*entrySize:], e)
		slot++
	}

	if v.Type == 32 {
		img.link(img.RootChain)
		img.writeData(img.RootChain, dir)
	} else {
		copy(img.Data[img.fatOffset+img.numFATs*img.fatSize:], dir)
	}
	return img, nil
}

func (img *Image) writeBootSector(v Volume, g geometry) {
	b := img.Data[:sectorSize]
	copy(b, []byte{0xEB, 0x58, 0x90})
	copy(b[3:11], "STAGE2  ")
	le := binary.LittleEndian
	le.PutUint16(b[11:], sectorSize)
	b[13] = byte(g.spc)
	le.PutUint16(b[14:], uint16(g.reserved))
	b[16] = byte(g.numFATs)
	if v.Type != 32 {
		le.PutUint16(b[17:], uint16(g.rootSecs*sectorSize/entrySize))
	}
	if g.total < 0x10000 && v.Type != 32 {
		le.PutUint16(b[19:], uint16(g.total))
	} else {
		le.PutUint32(b[32:], g.total)
	}
	b[21] = media
	le.PutUint16(b[24:], 63)
	le.PutUint16(b[26:], 255)

	label := shortName(v.Label)
	if v.Label == "" {
		label = shortName("NO NAME")
	}
	ext := b[36:]
	if v.Type == 32 {
		le.PutUint32(b[36:], g.fatSize)
		le.PutUint32(b[44:], 2)
		le.PutUint16(b[48:], 1)
		le.PutUint16(b[50:], 6)
		ext = b[64:]
	} else {
		le.PutUint16(b[22:], uint16(g.fatSize))
	}
	ext[0] = 0x80
	ext[2] = 0x29
	le.PutUint32(ext[3:], 0x20211014)
	copy(ext[7:18], label[:])
	copy(ext[18:26], fmt.Sprintf("FAT%-5d", v.Type))

	b[510], b[511] = 0x55, 0xAA
}

func (img *Image) marker(v uint32) uint32 {
	switch img.Type {
	case 16:
		return v | 0xF000
	case 32:
		return v | 0x0FFFF000
	default:
		return v
	}
}

// EndOfChain is the end of chain marker of the image's FAT type.
func (img *Image) EndOfChain() uint32 {
	return img.marker(0xFFF)
}

// SetFATEntry writes value as the entry of cluster into every FAT copy.
func (img *Image) SetFATEntry(cluster, value uint32) {
	for i := 0; i < img.numFATs; i++ {
		fat := img.Data[img.fatOffset+i*img.fatSize : img.fatOffset+(i+1)*img.fatSize]
		switch img.Type {
		case 12:
			off := int(cluster + cluster/2)
			if cluster&1 == 1 {
				fat[off] = fat[off]&0x0F | byte(value<<4)
				fat[off+1] = byte(value >> 4)
			} else {
				fat[off] = byte(value)
				fat[off+1] = fat[off+1]&0xF0 | byte(value>>8)&0x0F
			}
		case 16:
			binary.LittleEndian.PutUint16(fat[cluster*2:], uint16(value))
		default:
			old := binary.LittleEndian.Uint32(fat[cluster*4:])
			binary.LittleEndian.PutUint32(fat[cluster*4:], old&0xF0000000|value&0x0FFFFFFF)
		}
	}
}

// ClusterOffset is the offset of a data cluster in Data.
func (img *Image) ClusterOffset(cluster uint32) int {
	return img.dataOffset + int(cluster-2)*img.ClusterSize
}

// Clusters returns the number of data clusters.
func (img *Image) Clusters() uint32 {
	return img.clusters
}

func (img *Image) link(chain []uint32) {
	for i, c := range chain {
		next := img.EndOfChain()
		if i+1 < len(chain) {
			next = chain[i+1]
		}
		img.SetFATEntry(c, next)
	}
}

func (img *Image) writeData(chain []uint32, data []byte) {
	for _, c := range chain {
		n := copy(img.Data[img.ClusterOffset(c):img.ClusterOffset(c)+img.ClusterSize], data)
		data = data[n:]
	}
}

type allocator struct {
	next, max uint32
}

func (a *allocator) take(n int) ([]uint32, error) {
	chain := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		if a.next > a.max {
			return nil, fmt.Errorf("volume full")
		}
		chain = append(chain, a.next)
		a.next++
	}
	return chain, nil
}

// files allocates need[i] clusters per file. With interleave the files take
// turns for every single cluster.
func (a *allocator) files(need []int, interleave bool) ([][]uint32, error) {
	chains := make([][]uint32, len(need))
	if !interleave {
		for i, n := range need {
			c, err := a.take(n)
			if err != nil {
				return nil, err
			}
			chains[i] = c
		}
		return chains, nil
	}

	for open := true; open; {
		open = false
		for i, n := range need {
			if len(chains[i]) == n {
				continue
			}
			c, err := a.take(1)
			if err != nil {
				return nil, err
			}
			chains[i] = append(chains[i], c...)
			open = true
		}
	}
	return chains, nil
}

func shortName(name string) [11]byte {
	var short [11]byte
	for i := range short {
		short[i] = ' '
	}
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	copy(short[:8], strings.ToUpper(base))
	copy(short[8:], strings.ToUpper(ext))
	return short
}

func rawEntry(name [11]byte, attr byte, first, size uint32, t time.Time) []byte {
	e := make([]byte, entrySize)
	copy(e, name[:])
	e[11] = attr
	le := binary.LittleEndian
	le.PutUint16(e[20:], uint16(first>>16))
	le.PutUint16(e[26:], uint16(first))
	le.PutUint32(e[28:], size)
	if !t.IsZero() {
		date := uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
		clock := uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
		le.PutUint16(e[14:], clock)
		le.PutUint16(e[16:], date)
		le.PutUint16(e[22:], clock)
		le.PutUint16(e[24:], date)
	}
	return e
}

// longNameEntry returns a single long filename entry holding the first
// characters of name. Only its attribute matters to readers of short names.
func longNameEntry(name string) []byte {
	e := make([]byte, entrySize)
	e[0] = 0x41
	e[11] = 0x0F
	for i, pos := 0, 1; i < len(name) && i < 5; i, pos = i+1, pos+2 {
		e[pos] = name[i]
	}
	return e
}
