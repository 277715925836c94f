package main

import (
	"bytes"
	"testing"

	"github.com/aligator/stage2/bridge"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/loader"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "minimal",
			args: []string{"--stage3", "s3", "--stage4", "s4", "--kernel", "k"},
			want: options{out: "disk.img", fatType: 16, stage3: "s3", stage4: "s4", kernel: "k", reservedLBA: 1, reservedSectors: 63},
		},
		{
			name: "everything",
			args: []string{"-o", "boot.img", "--fat", "32", "--sectors=80000", "--label", "BOOT", "--stage3", "s3", "--stage4", "s4", "--kernel", "k",
				"--extra", "a.txt,b.txt", "--fragment", "--reserved-lba", "2048", "--reserved-sectors", "128"},
			want: options{out: "boot.img", fatType: 32, sectors: 80000, label: "BOOT", stage3: "s3", stage4: "s4", kernel: "k",
				extra: []string{"a.txt", "b.txt"}, fragment: true, reservedLBA: 2048, reservedSectors: 128},
		},
		{name: "missing kernel", args: []string{"--stage3", "s3", "--stage4", "s4"}, wantErr: true},
		{name: "unknown flag", args: []string{"--stage5", "s5"}, wantErr: true},
		{name: "positional", args: []string{"--stage3", "s3", "--stage4", "s4", "--kernel", "k", "more"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(options{})); diff != "" {
				t.Errorf("parseFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string][]byte{
		"build/stage3.bin": bytes.Repeat([]byte{3}, 1500),
		"build/stage4.bin": bytes.Repeat([]byte{4}, 600),
		"build/kernel.bin": bytes.Repeat([]byte{5}, 9000),
		"notes.txt":        []byte("notes"),
	}
	for name, data := range files {
		if err := afero.WriteFile(fs, name, data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	opts := options{
		out:             "disk.img",
		fatType:         12,
		stage3:          "build/stage3.bin",
		stage4:          "build/stage4.bin",
		kernel:          "build/kernel.bin",
		extra:           []string{"notes.txt"},
		fragment:        true,
		reservedLBA:     1,
		reservedSectors: 63,
	}
	diskImage, err := run(fs, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := diskImage.Volume.Chains["NOTES.TXT"]; !ok {
		t.Errorf("extra file missing from the volume")
	}

	written, err := afero.ReadFile(fs, "disk.img")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, diskImage.Data) {
		t.Fatalf("written image differs")
	}

	// The image has to boot.
	bios := disk.NewImageBIOS()
	bios.Attach(0x80, bytes.NewReader(written))
	buf, err := disk.NewBuffer(disk.DefaultBufferSize, 0x10000)
	if err != nil {
		t.Fatal(err)
	}
	mem := bridge.NewSimMemory()
	l, err := loader.New(loader.DefaultConfig(), bios, mem, &bytes.Buffer{}, buf)
	if err != nil {
		t.Fatal(err)
	}
	report, err := l.Run(0x80, diskImage.Table())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(mem.Read(report.Stages[loader.Kernel].Dst, 9000), files["build/kernel.bin"]) {
		t.Errorf("kernel differs after booting")
	}
}

func TestRun_MissingInput(t *testing.T) {
	opts := options{out: "disk.img", fatType: 16, stage3: "s3", stage4: "s4", kernel: "k"}
	if _, err := run(afero.NewMemMapFs(), opts); err == nil {
		t.Errorf("run() without input files succeeded")
	}
}
