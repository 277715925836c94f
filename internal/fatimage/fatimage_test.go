package fatimage

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVolume_Build(t *testing.T) {
	tests := []struct {
		name    string
		vol     Volume
		wantErr bool
	}{
		{name: "FAT12", vol: Volume{Type: 12}},
		{name: "FAT16", vol: Volume{Type: 16}},
		{name: "FAT32", vol: Volume{Type: 32, RootClusters: 2}},
		{name: "FAT16 too small", vol: Volume{Type: 16, Sectors: 2048}, wantErr: true},
		{name: "FAT12 too large", vol: Volume{Type: 12, Sectors: 20000}, wantErr: true},
		{name: "unknown type", vol: Volume{Type: 8}, wantErr: true},
		{
			name:    "root full",
			vol:     Volume{Type: 12, RootEntries: 16, Files: make([]File, 17)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := tt.vol.Build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if img.Data[510] != 0x55 || img.Data[511] != 0xAA {
				t.Errorf("boot signature missing")
			}
			if got := binary.LittleEndian.Uint16(img.Data[11:]); got != 512 {
				t.Errorf("bytes per sector = %d", got)
			}
		})
	}
}

func TestVolume_Build_Chains(t *testing.T) {
	files := []File{
		{Name: "A.BIN", Data: make([]byte, 1500)},
		{Name: "B.BIN", Data: make([]byte, 600)},
		{Name: "EMPTY.BIN"},
	}
	tests := []struct {
		name     string
		fragment bool
		want     map[string][]uint32
	}{
		{name: "contiguous", want: map[string][]uint32{"A.BIN": {2, 3, 4}, "B.BIN": {5, 6}}},
		{name: "fragmented", fragment: true, want: map[string][]uint32{"A.BIN": {2, 4, 6}, "B.BIN": {3, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Volume{Type: 16, Files: files, Fragment: tt.fragment}.Build()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, img.Chains); diff != "" {
				t.Errorf("Chains mismatch (-want +got):\n%s", diff)
			}

			// FAT16: every link is a little endian word.
			fat := img.Data[img.fatOffset:]
			for _, chain := range img.Chains {
				for i, c := range chain {
					want := img.EndOfChain()
					if i+1 < len(chain) {
						want = chain[i+1]
					}
					if got := uint32(binary.LittleEndian.Uint16(fat[2*c:])); got != want {
						t.Errorf("entry %d = %#x, want %#x", c, got, want)
					}
				}
			}
		})
	}
}

func TestImage_SetFATEntry_FAT12(t *testing.T) {
	img, err := Volume{Type: 12}.Build()
	if err != nil {
		t.Fatal(err)
	}
	// Both entries share the middle byte.
	img.SetFATEntry(3, 0xABC)
	img.SetFATEntry(2, 0x003)

	for i := 0; i < img.numFATs; i++ {
		fat := img.Data[img.fatOffset+i*img.fatSize:]
		if diff := cmp.Diff([]byte{0x03, 0xC0, 0xAB}, fat[3:6]); diff != "" {
			t.Errorf("FAT %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDisk_Build(t *testing.T) {
	vol, err := Volume{Type: 16}.Build()
	if err != nil {
		t.Fatal(err)
	}

	img, err := Disk{ReservedSlot: 1}.Build(vol)
	if err != nil {
		t.Fatal(err)
	}
	if img.FATLBA != 64 {
		t.Errorf("FATLBA = %d, want 64", img.FATLBA)
	}
	table := img.Table()
	if table[16+4] != ReservedType || table[32+4] != 0x06 {
		t.Errorf("partition types = %#x, %#x", table[16+4], table[32+4])
	}
	if got := binary.LittleEndian.Uint32(table[32+12:]); got != uint32(len(vol.Data)/sectorSize) {
		t.Errorf("FAT partition length = %d", got)
	}
	if diff := cmp.Diff(vol.Data[:sectorSize], img.Data[64*sectorSize:65*sectorSize]); diff != "" {
		t.Errorf("boot sector mismatch (-want +got):\n%s", diff)
	}

	if _, err := (Disk{ReservedSlot: 3}).Build(vol); err == nil {
		t.Errorf("Build() with the reserved partition in the last slot succeeded")
	}
}
