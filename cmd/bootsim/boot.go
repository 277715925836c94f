package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path"

	"github.com/aligator/stage2/bridge"
	"github.com/aligator/stage2/disk"
	"github.com/aligator/stage2/loader"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/spf13/afero"
)

// BootCommand runs the loader against simulated memory.
type BootCommand struct {
	fs  afero.Fs
	out io.Writer

	flags      imageFlags
	verify     bridge.Verification
	attempts   int
	verbose    bool
	dump       string
	loseUnreal bool
	stage3Dst  uint
	kernelDst  uint
	kernelName string
}

func (*BootCommand) Name() string {
	return "boot"
}

func (*BootCommand) Usage() string {
	return "boot -image disk.img [flags]\n"
}

func (*BootCommand) Synopsis() string {
	return "loads stage 3, stage 4 and the kernel from a disk image"
}

func (cmd *BootCommand) SetFlags(f *flag.FlagSet) {
	def := loader.DefaultConfig()

	cmd.flags.register(f)
	cmd.verify = def.Verify
	f.Var(&cmd.verify, "verify", "read back after every copy: first, all or none")
	f.IntVar(&cmd.attempts, "attempts", def.Attempts, "attempts per BIOS read")
	f.BoolVar(&cmd.verbose, "v", false, "print every chunk")
	f.StringVar(&cmd.dump, "dump", "", "directory to write the loaded memory regions to")
	f.BoolVar(&cmd.loseUnreal, "lose-unreal", false, "simulate a CPU which does not keep the unreal mode segment limit")
	f.UintVar(&cmd.stage3Dst, "stage3-dst", uint(def.Stage3Dst), "load address of stage 3")
	f.UintVar(&cmd.kernelDst, "kernel-dst", uint(def.KernelDst), "load address of the kernel")
	f.StringVar(&cmd.kernelName, "kernel", def.KernelName, "file name of the kernel")
}

func (cmd *BootCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := cmd.execute(ctx); err != nil {
		glog.Error(err)
		fmt.Fprintf(cmd.out, "!%c %v\n", loader.DiagnosticCode(err), err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *BootCommand) config() loader.Config {
	cfg := loader.DefaultConfig()
	cfg.Verify = cmd.verify
	cfg.Attempts = cmd.attempts
	cfg.Verbose = cmd.verbose
	cfg.Stage3Dst = uint32(cmd.stage3Dst)
	cfg.KernelDst = uint32(cmd.kernelDst)
	cfg.KernelName = cmd.kernelName
	return cfg
}

func (cmd *BootCommand) execute(ctx context.Context) error {
	img, err := openImage(cmd.fs, cmd.flags)
	if err != nil {
		return err
	}
	defer img.Close()

	buf, err := disk.NewBuffer(disk.DefaultBufferSize, stagingBase)
	if err != nil {
		return err
	}
	mem := bridge.NewSimMemory()
	mem.IgnoreUnreal = cmd.loseUnreal

	l, err := loader.New(cmd.config(), img.bios, mem, cmd.out, buf)
	if err != nil {
		return err
	}
	report, err := l.Run(uint16(cmd.flags.drive), img.table)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "\n%v partition at LBA %d, %s\n", report.FileSystem, report.Partition.LBA,
		humanize.IBytes(uint64(report.Partition.Length)*disk.SectorSize))
	for _, stage := range report.Stages {
		fmt.Fprintf(cmd.out, "%-8s %-12s %#010x-%#010x %s\n", stage.Label, stage.Name, stage.Dst, stage.End(), humanize.IBytes(uint64(stage.Size)))
	}
	fmt.Fprintf(cmd.out, "entered protected mode at %#x, %d pages touched\n", mem.Entry, mem.Pages())

	if cmd.dump != "" {
		return cmd.dumpStages(report, mem)
	}
	return nil
}

func (cmd *BootCommand) dumpStages(report loader.Report, mem *bridge.SimMemory) error {
	if err := cmd.fs.MkdirAll(cmd.dump, 0755); err != nil {
		return err
	}
	for _, stage := range report.Stages {
		name := path.Join(cmd.dump, fmt.Sprintf("%#x.bin", stage.Dst))
		if err := afero.WriteFile(cmd.fs, name, mem.Read(stage.Dst, int(stage.Size)), 0644); err != nil {
			return err
		}
		glog.V(1).Infof("wrote %v to %s", stage, name)
	}
	return nil
}
