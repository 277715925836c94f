package loader

import (
	"io"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/screen"
)

// DiagnosticCode returns the character printed when err halts the boot:
//  P  partition not found
//  T  unexpected partition type
//  B  invalid BPB
//  F  file not found or invalid file name
//  D  disk read error
//  C  cluster chain corrupt
//  V  high memory verification mismatch
//  O  overlapping destinations
//  M  CPU mode or address range violated
//  ?  anything else
func DiagnosticCode(err error) byte {
	return checkpoint.Code(err)
}

// Boot runs the stage and halts the machine if anything fails, after
// printing the diagnostic code and the error.
//
// On hardware Boot never returns: either stage 3 runs or the CPU is halted.
func (l *Loader) Boot(drive uint16, table []byte) {
	if _, err := l.Run(drive, table); err != nil {
		Halt(l.out, err)
	}
}

// Halt prints the diagnostic code and message of err to out and stops the
// CPU.
func Halt(out io.Writer, err error) {
	screen.Fprintf(out, "\n!%c %s\n", DiagnosticCode(err), err.Error())
	haltFn()
}
