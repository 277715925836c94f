//go:build baremetal
// +build baremetal

package bridge

import "unsafe"

// The routines below live in the stage's assembly and switch the CPU mode
// around each access. The two mode switches lgdt the 6 byte operand they get.

//go:linkname enterUnrealMode bridge_enter_unreal_mode
//go:noescape
func enterUnrealMode(gdtr *[6]byte)

//go:linkname copyToProtectedMode bridge_copy_to_protected_mode
//go:noescape
func copyToProtectedMode(dst uint32, src *byte, n uint32)

//go:linkname readFromProtectedMode bridge_read_from_protected_mode
func readFromProtectedMode(addr uint32) byte

//go:linkname enterProtectedModeAndJump bridge_enter_protected_mode_and_jump
//go:noescape
func enterProtectedModeAndJump(gdtr *[6]byte, entry uint32)

//go:linkname halt bridge_halt
func halt()

// Hardware is the Memory of the machine the stage runs on. It carries the
// descriptor tables the CPU reads while switching modes, so it must not be
// copied or moved once EnterUnrealMode ran.
type Hardware struct {
	tables Tables
	flat   [6]byte
	unreal [6]byte
}

func (h *Hardware) EnterUnrealMode() {
	h.tables = NewTables()
	// Real mode addresses are physical.
	base := uint32(uintptr(unsafe.Pointer(&h.tables[0])))
	h.flat = h.tables.FlatPointer(base).Encode()
	h.unreal = h.tables.UnrealPointer(base).Encode()
	enterUnrealMode(&h.unreal)
}

func (*Hardware) CopyToProtectedMode(dst uint32, src []byte) {
	if len(src) == 0 {
		return
	}
	copyToProtectedMode(dst, &src[0], uint32(len(src)))
}

func (*Hardware) ReadFromProtectedMode(addr uint32) byte {
	return readFromProtectedMode(addr)
}

func (h *Hardware) EnterProtectedModeAndJump(entry uint32) {
	enterProtectedModeAndJump(&h.flat, entry)
}

// Halt disables interrupts and stops the CPU for good.
func Halt() {
	halt()
}
