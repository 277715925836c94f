package fat

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/internal/fatimage"
	"github.com/google/go-cmp/cmp"
)

func collectExtents(c *Clusters) []Extent {
	var extents []Extent
	for c.Next() {
		extents = append(extents, c.Extent())
	}
	return extents
}

// wantExtents computes the extents of a file of size bytes on chain.
func wantExtents(img *fatimage.Image, chain []uint32, size int) []Extent {
	var extents []Extent
	for _, c := range chain {
		n := img.ClusterSize
		if size < n {
			n = size
		}
		extents = append(extents, Extent{Offset: uint64(img.ClusterOffset(c)), Len: uint32(n)})
		size -= n
	}
	return extents
}

func TestFileSystem_FileClusters(t *testing.T) {
	tests := []struct {
		name   string
		volume fatimage.Volume
		file   string
		want   []uint32
	}{
		{
			name: "three clusters with a partial one",
			volume: fatimage.Volume{Type: 12, Files: []fatimage.File{
				{Name: "STAGE3.BIN", Data: make([]byte, 3000)},
			}},
			file: "STAGE3.BIN",
			want: []uint32{1024, 1024, 952},
		},
		{
			name: "three clusters with a partial one on FAT16",
			volume: fatimage.Volume{Type: 16, Sectors: 16384, SectorsPerCluster: 2, Files: []fatimage.File{
				{Name: "STAGE3.BIN", Data: make([]byte, 3000)},
			}},
			file: "STAGE3.BIN",
			want: []uint32{1024, 1024, 952},
		},
		{
			name: "exact multiple of the cluster size",
			volume: fatimage.Volume{Type: 16, Files: []fatimage.File{
				{Name: "A.BIN", Data: make([]byte, 100)},
				{Name: "B.BIN", Data: make([]byte, 2048)},
			}},
			file: "B.BIN",
			want: []uint32{512, 512, 512, 512},
		},
		{
			name: "single byte",
			volume: fatimage.Volume{Type: 32, Files: []fatimage.File{
				{Name: "ONE", Data: []byte{1}},
			}},
			file: "ONE",
			want: []uint32{1},
		},
		{
			name: "empty",
			volume: fatimage.Volume{Type: 16, Files: []fatimage.File{
				{Name: "EMPTY", Data: nil},
			}},
			file: "EMPTY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := testingImage(t, tt.volume)
			fs, buf := testingParse(t, img)
			entry, err := fs.FindFileInRootDir(tt.file, buf)
			if err != nil {
				t.Fatal(err)
			}

			c := fs.FileClusters(entry, buf)
			got := collectExtents(c)
			if err := c.Err(); err != nil {
				t.Fatalf("Err() = %v", err)
			}

			var lengths []uint32
			for _, e := range got {
				lengths = append(lengths, e.Len)
			}
			if diff := cmp.Diff(tt.want, lengths); diff != "" {
				t.Errorf("extent lengths mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(wantExtents(img, img.Chains[tt.file], int(entry.Size)), got); diff != "" {
				t.Errorf("extents mismatch (-want +got):\n%s", diff)
			}

			// Exhausted iterators stay exhausted.
			if c.Next() {
				t.Errorf("Next() after the end = true")
			}
		})
	}
}

func TestFileSystem_FileClusters_Fragmented(t *testing.T) {
	files := []fatimage.File{
		{Name: "STAGE3.BIN", Data: bytes.Repeat([]byte{3}, 5000)},
		{Name: "STAGE4.BIN", Data: bytes.Repeat([]byte{4}, 700)},
		{Name: "KERNEL.BIN", Data: bytes.Repeat([]byte{'k'}, 9000)},
	}
	for _, fatType := range []int{12, 16, 32} {
		img := testingImage(t, fatimage.Volume{Type: fatType, Files: files, Fragment: true})
		fs, buf := testingParse(t, img)

		for _, f := range files {
			t.Run(fmt.Sprintf("FAT%d %s", fatType, f.Name), func(t *testing.T) {
				entry, err := fs.FindFileInRootDir(f.Name, buf)
				if err != nil {
					t.Fatal(err)
				}

				var data []byte
				c := fs.FileClusters(entry, buf)
				for c.Next() {
					ext := c.Extent()
					data = append(data, img.Data[ext.Offset:ext.Offset+uint64(ext.Len)]...)
				}
				if err := c.Err(); err != nil {
					t.Fatalf("Err() = %v", err)
				}
				if !bytes.Equal(data, f.Data) {
					t.Errorf("extents cover %d bytes which differ from the file", len(data))
				}
			})
		}
	}
}

func TestFileSystem_FileClusters_Corrupt(t *testing.T) {
	file := []fatimage.File{{Name: "STAGE3.BIN", Data: make([]byte, 3000)}}

	tests := []struct {
		name string
		// corrupt receives the chain of STAGE3.BIN.
		corrupt func(img *fatimage.Image, chain []uint32)
		// entry modifies the directory entry.
		entry     func(e *DirEntry)
		wantCount int
	}{
		{
			name:      "link to a free cluster",
			corrupt:   func(img *fatimage.Image, chain []uint32) { img.SetFATEntry(chain[0], 0) },
			wantCount: 1,
		},
		{
			name:      "link to the reserved cluster",
			corrupt:   func(img *fatimage.Image, chain []uint32) { img.SetFATEntry(chain[1], 1) },
			wantCount: 2,
		},
		{
			name:      "link to a bad cluster",
			corrupt:   func(img *fatimage.Image, chain []uint32) { img.SetFATEntry(chain[0], 0xFF7) },
			wantCount: 1,
		},
		{
			name: "link outside of the volume",
			corrupt: func(img *fatimage.Image, chain []uint32) {
				img.SetFATEntry(chain[0], img.Clusters()+2)
			},
			wantCount: 1,
		},
		{
			name: "chain ends before the file",
			corrupt: func(img *fatimage.Image, chain []uint32) {
				img.SetFATEntry(chain[1], img.EndOfChain())
			},
			wantCount: 2,
		},
		{
			name:      "no first cluster",
			entry:     func(e *DirEntry) { e.FirstCluster = 0 },
			wantCount: 0,
		},
		{
			name: "endless loop",
			corrupt: func(img *fatimage.Image, chain []uint32) {
				img.SetFATEntry(chain[2], chain[0])
			},
			entry:     func(e *DirEntry) { e.Size = 0xFFFFFFFF },
			wantCount: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := testingImage(t, fatimage.Volume{Type: 12, Files: file})
			if tt.corrupt != nil {
				tt.corrupt(img, img.Chains["STAGE3.BIN"])
			}
			fs, buf := testingParse(t, img)
			entry, err := fs.FindFileInRootDir("STAGE3.BIN", buf)
			if err != nil {
				t.Fatal(err)
			}
			if tt.entry != nil {
				tt.entry(&entry)
			}

			c := fs.FileClusters(entry, buf)
			got := collectExtents(c)
			if !errors.Is(c.Err(), ErrClusterChainCorrupt) {
				t.Fatalf("Err() = %v, want %v", c.Err(), ErrClusterChainCorrupt)
			}
			if code := checkpoint.Code(c.Err()); code != 'C' {
				t.Errorf("Code() = %q, want 'C'", code)
			}

			wantCount := tt.wantCount
			if wantCount < 0 {
				wantCount = int(fs.Clusters())
			}
			if len(got) != wantCount {
				t.Errorf("got %d extents before the error, want %d", len(got), wantCount)
			}

			// Failed iterators stay failed.
			if c.Next() || c.Extent() != (Extent{}) || c.Err() == nil {
				t.Errorf("iterator left the error state")
			}
		})
	}
}

func TestFileSystem_FileClusters_ReadError(t *testing.T) {
	img := testingImage(t, fatimage.Volume{Type: 16, Files: []fatimage.File{{Name: "A.BIN", Data: make([]byte, 2000)}}})
	d, r := testingAccess(img.Data)
	buf := testingBuffer(t)
	fs, err := Parse(d, buf)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := fs.FindFileInRootDir("A.BIN", buf)
	if err != nil {
		t.Fatal(err)
	}

	r.broken = true
	c := fs.FileClusters(entry, buf)
	if c.Next() {
		t.Fatalf("Next() = true with a broken disk")
	}
	if !errors.Is(c.Err(), disk.ErrRead) {
		t.Errorf("Err() = %v, want %v", c.Err(), disk.ErrRead)
	}
	if code := checkpoint.Code(c.Err()); code != 'D' {
		t.Errorf("Code() = %q, want 'D'", code)
	}
}
