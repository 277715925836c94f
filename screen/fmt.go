// Package screen writes diagnostics while nothing but the BIOS is around.
//
// The boot path cannot rely on the heap, so Fprintf formats without
// allocating and Console forwards bytes to a character device one at a time.
package screen

import (
	"io"
	"unsafe"
)

// maxWidth bounds padding and the digits of a formatted number.
const maxWidth = 32

const digits = "0123456789abcdef"

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")

	numBuf  [maxWidth]byte
	oneByte [1]byte
)

// Fprintf writes a formatted message to w. It understands a small subset of
// the fmt verbs:
//  %s  string or []byte
//  %d  decimal integer
//  %x  hexadecimal integer, lower case
//  %c  a single byte
//  %%  a percent sign
// An optional width pads with spaces on the left, or with zeros for numbers
// if the width starts with 0. Arguments are not checked for Stringer or
// error, only the built-in string and integer types are accepted.
//
// Fprintf shares its scratch buffers between calls and must not be used
// concurrently. Write errors are ignored.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	next := 0

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			putByte(w, format[i])
			continue
		}

		i++
		zero := i < len(format) && format[i] == '0'
		width := 0
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}
		if width > maxWidth {
			width = maxWidth
		}

		if i == len(format) {
			write(w, errNoVerb)
			break
		}

		verb := format[i]
		switch verb {
		case '%':
			putByte(w, '%')
			continue
		case 's', 'd', 'x', 'c':
		default:
			write(w, errNoVerb)
			continue
		}

		if next >= len(args) {
			write(w, errMissingArg)
			continue
		}
		arg := args[next]
		next++

		switch verb {
		case 's':
			fmtString(w, arg, width)
		case 'd':
			fmtInt(w, arg, 10, width, zero)
		case 'x':
			fmtInt(w, arg, 16, width, zero)
		case 'c':
			fmtChar(w, arg, width)
		}
	}

	for ; next < len(args); next++ {
		write(w, errExtraArg)
	}
}

func fmtString(w io.Writer, arg interface{}, width int) {
	switch s := arg.(type) {
	case string:
		repeat(w, ' ', width-len(s))
		// A string to []byte conversion would allocate.
		for i := 0; i < len(s); i++ {
			putByte(w, s[i])
		}
	case []byte:
		repeat(w, ' ', width-len(s))
		write(w, s)
	default:
		write(w, errWrongArgType)
	}
}

func fmtChar(w io.Writer, arg interface{}, width int) {
	var c byte
	switch v := arg.(type) {
	case byte:
		c = v
	case rune:
		if v < 0 || v > 0x7F {
			c = '?'
		} else {
			c = byte(v)
		}
	default:
		write(w, errWrongArgType)
		return
	}
	repeat(w, ' ', width-1)
	putByte(w, c)
}

func fmtInt(w io.Writer, arg interface{}, base uint64, width int, zero bool) {
	var (
		v   uint64
		neg bool
		s   int64
	)

	switch n := arg.(type) {
	case uint8:
		v = uint64(n)
	case uint16:
		v = uint64(n)
	case uint32:
		v = uint64(n)
	case uint64:
		v = n
	case uint:
		v = uint64(n)
	case uintptr:
		v = uint64(n)
	case int8:
		s = int64(n)
	case int16:
		s = int64(n)
	case int32:
		s = int64(n)
	case int64:
		s = n
	case int:
		s = int64(n)
	default:
		write(w, errWrongArgType)
		return
	}
	if s < 0 {
		neg = true
		v = uint64(-s)
	} else if s > 0 {
		v = uint64(s)
	}

	pos := len(numBuf)
	for {
		pos--
		numBuf[pos] = digits[v%base]
		v /= base
		if v == 0 {
			break
		}
	}

	// The sign goes in front of zero padding but after space padding.
	length := len(numBuf) - pos
	if neg {
		length++
	}
	if zero {
		if neg {
			putByte(w, '-')
		}
		repeat(w, '0', width-length)
	} else {
		repeat(w, ' ', width-length)
		if neg {
			putByte(w, '-')
		}
	}
	write(w, numBuf[pos:])
}

func repeat(w io.Writer, c byte, count int) {
	for ; count > 0; count-- {
		putByte(w, c)
	}
}

func putByte(w io.Writer, c byte) {
	oneByte[0] = c
	write(w, oneByte[:])
}

// write hides p from escape analysis. Passing it to an unknown io.Writer
// would otherwise move every argument of Fprintf to the heap.
func write(w io.Writer, p []byte) {
	realWrite(w, noEscape(unsafe.Pointer(&p)))
}

func realWrite(w io.Writer, p unsafe.Pointer) {
	if w != nil {
		_, _ = w.Write(*(*[]byte)(p))
	}
}

// noEscape is runtime.noescape.
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
