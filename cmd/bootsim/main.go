// Command bootsim runs the second stage against a disk image on the host.
//
//  bootsim boot -image disk.img
//  bootsim ls -image disk.img
//  bootsim cat -image disk.img KERNEL.BIN
//
// Logging goes through glog, pass -logtostderr -v=2 to trace every BIOS call.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/spf13/afero"
)

func main() {
	fs := afero.NewOsFs()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&BootCommand{fs: fs, out: os.Stdout}, "")
	subcommands.Register(&ListCommand{fs: fs, out: os.Stdout}, "inspect")
	subcommands.Register(&CatCommand{fs: fs, out: os.Stdout}, "inspect")

	flag.Parse()
	status := subcommands.Execute(context.Background())
	glog.Flush()
	os.Exit(int(status))
}
