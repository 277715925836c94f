package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/spf13/afero"
)

// CatCommand prints files of the FAT partition.
type CatCommand struct {
	fs  afero.Fs
	out io.Writer

	flags imageFlags
}

func (*CatCommand) Name() string {
	return "cat"
}

func (*CatCommand) Usage() string {
	return "cat -image disk.img NAME...\n"
}

func (*CatCommand) Synopsis() string {
	return "prints root directory files of the FAT partition"
}

func (cmd *CatCommand) SetFlags(f *flag.FlagSet) {
	cmd.flags.register(f)
}

func (cmd *CatCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if err := cmd.execute(f.Args()); err != nil {
		glog.Error(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *CatCommand) execute(names []string) error {
	img, err := openImage(cmd.fs, cmd.flags)
	if err != nil {
		return err
	}
	defer img.Close()

	fatFs, err := img.fileSystem(uint16(cmd.flags.drive))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := cmd.copy(fatFs, name); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *CatCommand) copy(fs afero.Fs, name string) error {
	file, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(cmd.out, file); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
