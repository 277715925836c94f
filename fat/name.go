package fat

import (
	"fmt"
	"strings"

	"github.com/aligator/stage2/checkpoint"
)

// ShortName converts a name like "kernel.bin" into the space padded, upper
// case 8.3 form stored in directory entries.
func ShortName(name string) ([11]byte, error) {
	var short [11]byte
	for i := range short {
		short[i] = ' '
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	if len(base) == 0 || len(base) > 8 || len(ext) > 3 {
		return short, checkpoint.Wrap(fmt.Errorf("%q", name), ErrInvalidName)
	}

	for i := 0; i < len(base); i++ {
		c, ok := shortNameChar(base[i])
		if !ok {
			return short, checkpoint.Wrap(fmt.Errorf("%q: character %q", name, base[i]), ErrInvalidName)
		}
		short[i] = c
	}
	for i := 0; i < len(ext); i++ {
		c, ok := shortNameChar(ext[i])
		if !ok {
			return short, checkpoint.Wrap(fmt.Errorf("%q: character %q", name, ext[i]), ErrInvalidName)
		}
		short[8+i] = c
	}
	return short, nil
}

func shortNameChar(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A', true
	case c <= ' ' || c >= 0x7F:
		return 0, false
	case strings.IndexByte(`"*+,./:;<=>?[\]|`, c) >= 0:
		return 0, false
	}
	return c, true
}

// sameName compares two short names ignoring ASCII case.
func sameName(a, b [11]byte) bool {
	for i := range a {
		if upper(a[i]) != upper(b[i]) {
			return false
		}
	}
	return true
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// displayName formats a short name as NAME.EXT.
func displayName(short [11]byte) string {
	name := strings.TrimRight(string(short[:8]), " ")
	ext := strings.TrimRight(string(short[8:11]), " ")

	if ext != "" {
		name += "."
	}

	return name + ext
}
