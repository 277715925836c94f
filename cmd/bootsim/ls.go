package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/spf13/afero"
)

// ListCommand lists the root directory of the FAT partition.
type ListCommand struct {
	fs  afero.Fs
	out io.Writer

	flags imageFlags
}

func (*ListCommand) Name() string {
	return "ls"
}

func (*ListCommand) Usage() string {
	return "ls -image disk.img\n"
}

func (*ListCommand) Synopsis() string {
	return "lists the files the loader can see"
}

func (cmd *ListCommand) SetFlags(f *flag.FlagSet) {
	cmd.flags.register(f)
}

func (cmd *ListCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := cmd.execute(); err != nil {
		glog.Error(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *ListCommand) execute() error {
	img, err := openImage(cmd.fs, cmd.flags)
	if err != nil {
		return err
	}
	defer img.Close()

	fatFs, err := img.fileSystem(uint16(cmd.flags.drive))
	if err != nil {
		return err
	}
	infos, err := afero.ReadDir(fatFs, "/")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.out, 0, 8, 1, ' ', 0)
	for _, info := range infos {
		size := humanize.IBytes(uint64(info.Size()))
		if info.IsDir() {
			size = "<DIR>"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Mode(), size, info.ModTime().Format("2006-01-02 15:04"), info.Name())
	}
	return w.Flush()
}
