// Package checkpoint decorates errors with the caller position and an
// optional one-byte halt code.
//
// Boot stages have a single line of screen to report what went wrong, so a
// checkpoint renders as "file.go:line: description: cause" and sentinel
// errors carry a diagnostic character that survives any amount of wrapping.
// Each error added to a checkpoint can be checked by errors.Is and retrieved
// by errors.As.
package checkpoint

import (
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
)

// Unknown is returned by Code for errors that carry no halt code.
const Unknown byte = '?'

// CodedError is a sentinel error with a halt code. Declare them as package level
// variables so they are allocated once:
//  var ErrFileNotFound = checkpoint.Coded('F', "file not found")
type CodedError struct {
	code byte
	msg  string
}

// Coded creates a new sentinel error carrying the given halt code.
func Coded(code byte, msg string) *CodedError {
	return &CodedError{code: code, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

// Code returns the halt code of the sentinel.
func (e *CodedError) Code() byte {
	return e.code
}

// Code returns the halt code of the outermost coded error in err's chain or
// Unknown if there is none.
func Code(err error) byte {
	var coded interface{ Code() byte }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return Unknown
}

// From wraps err by a new checkpoint which only adds caller information.
// It returns nil if err == nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}
	if err == nil {
		return nil
	}

	return newCheckpoint(err, nil)
}

// Wrap adds a checkpoint on top of prev which is further described by err.
// It returns nil if prev == nil, so a sentinel can be attached to the result
// of a call without an extra branch:
//  n, err := d.ReadExact(2, buf)
//  if err != nil {
//  	return checkpoint.Wrap(err, ErrClusterChainCorrupt)
//  }
// errors.Is matches both the sentinel and whatever prev wraps.
func Wrap(prev, err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if prev == io.EOF {
		return io.EOF
	}
	if prev == nil {
		return nil
	}

	return newCheckpoint(prev, err)
}

// newCheckpoint must be called directly by From or Wrap, the caller skip
// count depends on it.
func newCheckpoint(prev, err error) *checkpoint {
	_, file, line, ok := runtime.Caller(2)
	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	var msg string
	if e.callerOk {
		msg = e.file + ":" + strconv.Itoa(e.line) + ": "
	}
	if e.err != nil {
		msg += e.err.Error() + ": "
	}
	return msg + e.prev.Error()
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
