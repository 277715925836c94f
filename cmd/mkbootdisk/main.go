// Command mkbootdisk builds a disk image the second stage can boot from: a
// reserved partition of type 0x20 followed by a FAT partition holding the
// stages and the kernel.
//
//  mkbootdisk --out disk.img --fat 16 --stage3 stage3.bin --stage4 stage4.bin --kernel kernel.bin
package main

import (
	goflag "flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aligator/stage2/internal/fatimage"
	"github.com/aligator/stage2/loader"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

type options struct {
	out      string
	fatType  int
	sectors  uint32
	label    string
	stage3   string
	stage4   string
	kernel   string
	extra    []string
	fragment bool

	reservedLBA     uint32
	reservedSectors uint32
}

func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := flag.NewFlagSet("mkbootdisk", flag.ContinueOnError)
	flagSet.SetOutput(ioutil.Discard)
	flagSet.StringVarP(&opts.out, "out", "o", "disk.img", "path of the image to write")
	flagSet.IntVar(&opts.fatType, "fat", 16, "FAT type of the boot partition: 12, 16 or 32")
	flagSet.Uint32Var(&opts.sectors, "sectors", 0, "size of the FAT partition in sectors, 0 picks a default for the FAT type")
	flagSet.StringVar(&opts.label, "label", "", "volume label")
	flagSet.StringVar(&opts.stage3, "stage3", "", "stage 3 binary")
	flagSet.StringVar(&opts.stage4, "stage4", "", "stage 4 binary")
	flagSet.StringVar(&opts.kernel, "kernel", "", "kernel binary")
	flagSet.StringSliceVar(&opts.extra, "extra", nil, "additional files for the root directory")
	flagSet.BoolVar(&opts.fragment, "fragment", false, "interleave the clusters of all files")
	flagSet.Uint32Var(&opts.reservedLBA, "reserved-lba", 1, "first sector of the reserved partition")
	flagSet.Uint32Var(&opts.reservedSectors, "reserved-sectors", 63, "size of the reserved partition in sectors")
	// glog's --v and --logtostderr
	flagSet.AddGoFlagSet(goflag.CommandLine)

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	// glog complains about logging before flag.Parse otherwise.
	_ = goflag.CommandLine.Parse(nil)
	if flagSet.NArg() != 0 {
		return opts, fmt.Errorf("unexpected arguments %q", flagSet.Args())
	}
	for _, required := range []struct{ flag, value string }{
		{"stage3", opts.stage3},
		{"stage4", opts.stage4},
		{"kernel", opts.kernel},
	} {
		if required.value == "" {
			return opts, fmt.Errorf("--%s is required", required.flag)
		}
	}
	return opts, nil
}

// volume reads all input files.
func volume(fs afero.Fs, opts options) (fatimage.Volume, error) {
	cfg := loader.DefaultConfig()
	vol := fatimage.Volume{
		Type:     opts.fatType,
		Sectors:  opts.sectors,
		Label:    opts.label,
		Fragment: opts.fragment,
	}

	inputs := []struct{ name, path string }{
		{cfg.Stage3Name, opts.stage3},
		{cfg.Stage4Name, opts.stage4},
		{cfg.KernelName, opts.kernel},
	}
	for _, path := range opts.extra {
		inputs = append(inputs, struct{ name, path string }{strings.ToUpper(filepath.Base(path)), path})
	}

	for _, in := range inputs {
		data, err := afero.ReadFile(fs, in.path)
		if err != nil {
			return vol, err
		}
		var mod time.Time
		if info, err := fs.Stat(in.path); err == nil {
			mod = info.ModTime()
		}
		glog.V(1).Infof("%s: %s from %s", in.name, humanize.IBytes(uint64(len(data))), in.path)
		vol.Files = append(vol.Files, fatimage.File{Name: in.name, Data: data, Time: mod})
	}
	return vol, nil
}

func run(fs afero.Fs, opts options) (*fatimage.DiskImage, error) {
	vol, err := volume(fs, opts)
	if err != nil {
		return nil, err
	}
	img, err := vol.Build()
	if err != nil {
		return nil, err
	}
	diskImage, err := fatimage.Disk{ReservedLBA: opts.reservedLBA, ReservedSectors: opts.reservedSectors}.Build(img)
	if err != nil {
		return nil, err
	}
	if err := afero.WriteFile(fs, opts.out, diskImage.Data, 0644); err != nil {
		return nil, err
	}
	return diskImage, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkbootdisk: %v\n", err)
		os.Exit(2)
	}

	diskImage, err := run(afero.NewOsFs(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkbootdisk: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %s, FAT%d partition at LBA %d, %s clusters\n",
		opts.out, humanize.IBytes(uint64(len(diskImage.Data))), opts.fatType, diskImage.FATLBA,
		humanize.Comma(int64(diskImage.Volume.Clusters())))
	glog.Flush()
}
