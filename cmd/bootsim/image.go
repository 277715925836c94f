package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/fat"
	"github.com/aligator/stage2/mbr"
	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// stagingBase is where the simulated stage keeps its disk buffer.
const stagingBase = 0x10000

// driveFlag is a BIOS drive number accepting 0x80 style values.
type driveFlag uint16

func (d *driveFlag) String() string {
	return fmt.Sprintf("%#x", uint16(*d))
}

func (d *driveFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return err
	}
	*d = driveFlag(v)
	return nil
}

// imageFlags are shared by all commands.
type imageFlags struct {
	image string
	drive driveFlag
}

func (f *imageFlags) register(fs *flag.FlagSet) {
	f.drive = 0x80
	fs.StringVar(&f.image, "image", "", "path of the disk image")
	fs.Var(&f.drive, "drive", "BIOS drive number of the image")
}

// diskImage is an opened disk image with its partition table.
type diskImage struct {
	file  afero.File
	bios  *disk.ImageBIOS
	table []byte
}

func openImage(fs afero.Fs, flags imageFlags) (*diskImage, error) {
	if flags.image == "" {
		return nil, fmt.Errorf("no -image given")
	}
	file, err := fs.Open(flags.image)
	if err != nil {
		return nil, err
	}
	table, err := mbr.ReadTable(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", flags.image, err)
	}
	glog.V(1).Infof("opened %s as drive %v", flags.image, &flags.drive)

	bios := disk.NewImageBIOS()
	bios.Attach(uint16(flags.drive), file)
	return &diskImage{file: file, bios: bios, table: table}, nil
}

func (d *diskImage) Close() error {
	return d.file.Close()
}

// fileSystem mounts the FAT partition following the reserved one read-only.
func (d *diskImage) fileSystem(drive uint16) (*fat.Fs, error) {
	entries, err := mbr.ParseEntries(d.table)
	if err != nil {
		return nil, err
	}
	partition, err := mbr.FATPartition(entries, mbr.BootloaderPartitionType)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("FAT partition: %v", partition)

	buf, err := disk.NewBuffer(disk.DefaultBufferSize, stagingBase)
	if err != nil {
		return nil, err
	}
	fs, err := fat.Parse(disk.Access{
		BIOS:   d.bios,
		Drive:  drive,
		Base:   uint64(partition.LBA) * disk.SectorSize,
		Length: uint64(partition.Length) * disk.SectorSize,
	}, buf)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("mounted %v", fs)
	return fat.NewFs(fs, buf), nil
}
