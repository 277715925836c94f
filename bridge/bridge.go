// Package bridge moves data from the real mode world of the BIOS into memory
// above 1 MiB and finally hands control to 32-bit protected mode code.
//
// The CPU starts in real mode. After EnterUnrealMode the data segment limit
// is 4 GiB while BIOS services keep working, which allows copying from the
// staging buffer to any physical address. Jump is a one way transition.
package bridge

import (
	"fmt"
	"math"

	"github.com/aligator/stage2/checkpoint"
)

// These errors may occur while using the bridge.
var (
	ErrInvalidMode          = checkpoint.Coded('M', "operation not allowed in the current CPU mode")
	ErrAddressRange         = checkpoint.Coded('M', "copy beyond the 4 GiB address space")
	ErrVerificationMismatch = checkpoint.Coded('V', "high memory verification mismatch")
)

// Memory is the hardware side of the bridge.
type Memory interface {
	// EnterUnrealMode loads a flat data segment descriptor and returns to
	// real mode, keeping the 4 GiB limit in the segment cache.
	EnterUnrealMode()
	// CopyToProtectedMode copies src to the physical address dst.
	CopyToProtectedMode(dst uint32, src []byte)
	// ReadFromProtectedMode reads the byte at the physical address addr.
	ReadFromProtectedMode(addr uint32) byte
	// EnterProtectedModeAndJump loads the flat GDT, sets CR0.PE and far
	// jumps to entry. It does not return on real hardware.
	EnterProtectedModeAndJump(entry uint32)
}

// Mode is the CPU mode as seen by the bridge.
type Mode uint8

const (
	RealMode Mode = iota
	UnrealMode
	ProtectedMode
)

func (m Mode) String() string {
	switch m {
	case RealMode:
		return "real mode"
	case UnrealMode:
		return "unreal mode"
	case ProtectedMode:
		return "protected mode"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Verification selects what is read back after a copy.
type Verification uint8

const (
	// VerifyFirstByte compares the first byte of every copy.
	VerifyFirstByte Verification = iota
	// VerifyNone trusts the copy.
	VerifyNone
	// VerifyAll compares every byte.
	VerifyAll
)

func (v Verification) String() string {
	switch v {
	case VerifyFirstByte:
		return "first"
	case VerifyNone:
		return "none"
	case VerifyAll:
		return "all"
	default:
		return fmt.Sprintf("Verification(%d)", uint8(v))
	}
}

// Set implements flag.Value.
func (v *Verification) Set(s string) error {
	switch s {
	case "first":
		*v = VerifyFirstByte
	case "none":
		*v = VerifyNone
	case "all":
		*v = VerifyAll
	default:
		return fmt.Errorf("unknown verification %q, use first, all or none", s)
	}
	return nil
}

// Bridge guards a Memory with the order of mode transitions.
type Bridge struct {
	mem    Memory
	mode   Mode
	verify Verification
}

// New creates a Bridge for a CPU which is still in real mode.
func New(mem Memory, verify Verification) *Bridge {
	return &Bridge{mem: mem, verify: verify}
}

// Mode returns the current mode.
func (b *Bridge) Mode() Mode {
	return b.mode
}

func (b *Bridge) require(mode Mode, op string) error {
	if b.mode != mode {
		return checkpoint.Wrap(fmt.Errorf("%s in %v, needs %v", op, b.mode, mode), ErrInvalidMode)
	}
	return nil
}

// EnterUnrealMode switches from real to unreal mode.
func (b *Bridge) EnterUnrealMode() error {
	if err := b.require(RealMode, "enter unreal mode"); err != nil {
		return err
	}
	b.mem.EnterUnrealMode()
	b.mode = UnrealMode
	return nil
}

// Copy copies src to the physical address dst and reads it back as
// configured.
func (b *Bridge) Copy(dst uint32, src []byte) error {
	if err := b.require(UnrealMode, "copy"); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	if uint64(dst)+uint64(len(src)) > math.MaxUint32+1 {
		return checkpoint.Wrap(fmt.Errorf("%d bytes at %#x", len(src), dst), ErrAddressRange)
	}

	b.mem.CopyToProtectedMode(dst, src)

	n := 0
	switch b.verify {
	case VerifyFirstByte:
		n = 1
	case VerifyAll:
		n = len(src)
	}
	for i := 0; i < n; i++ {
		if got := b.mem.ReadFromProtectedMode(dst + uint32(i)); got != src[i] {
			return checkpoint.Wrap(fmt.Errorf("%#x: wrote 0x%02x, read 0x%02x", dst+uint32(i), src[i], got), ErrVerificationMismatch)
		}
	}
	return nil
}

// Jump enters protected mode and jumps to entry. On real hardware it does not
// return.
func (b *Bridge) Jump(entry uint32) error {
	if err := b.require(UnrealMode, "jump"); err != nil {
		return err
	}
	b.mode = ProtectedMode
	b.mem.EnterProtectedModeAndJump(entry)
	return nil
}
