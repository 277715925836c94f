//go:build baremetal
// +build baremetal

package screen

import _ "unsafe" // for go:linkname

// putChar issues int 10h AH=0Eh with AL=c on page 0. It is provided by the
// stage's real mode thunks.
//
//go:linkname putChar bios_teletype
func putChar(c byte)

// BIOSTeletype is the video service of the firmware.
type BIOSTeletype struct{}

func (BIOSTeletype) PutChar(c byte) {
	putChar(c)
}
