package fat

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"syscall"

	"github.com/aligator/stage2/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// File is an open file or directory of an Fs.
type File struct {
	fs    *Fs
	root  bool
	entry DirEntry
	info  os.FileInfo

	offset int64
	// listing holds the remaining directory entries after the first Readdir.
	listing []os.FileInfo
	listed  bool
	closed  bool
}

var (
	_ afero.File       = (*File)(nil)
	_ iofs.ReadDirFile = (*File)(nil)
)

func (f *File) Close() error {
	if f.closed {
		return checkpoint.From(os.ErrClosed)
	}
	f.closed = true
	f.listing = nil
	return nil
}

func (f *File) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes at off. It follows the cluster chain from the
// start of the file on every call.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, checkpoint.From(os.ErrClosed)
	}
	if f.info.IsDir() {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}
	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v", syscall.EINVAL, off), ErrReadFile)
	}
	if len(p) == 0 {
		return 0, nil
	}

	size := int64(f.entry.Size)
	if off >= size {
		return 0, io.EOF
	}
	want := len(p)
	if int64(want) > size-off {
		want = int(size - off)
	}

	n, err := f.readClusters(p[:want], off)
	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *File) readClusters(p []byte, off int64) (int, error) {
	fsys, buf := f.fs.fs, f.fs.buf
	chunk := buf.Cap()

	n := 0
	var pos int64
	c := fsys.FileClusters(f.entry, buf)
	for n < len(p) && c.Next() {
		ext := c.Extent()
		end := pos + int64(ext.Len)
		if end <= off {
			pos = end
			continue
		}

		from := off + int64(n) - pos
		d := fsys.disk
		if _, err := d.Seek(int64(ext.Offset)+from, io.SeekStart); err != nil {
			return n, err
		}
		for left := int(int64(ext.Len) - from); left > 0 && n < len(p); {
			k := left
			if k > chunk {
				k = chunk
			}
			if k > len(p)-n {
				k = len(p) - n
			}
			raw, err := d.ReadExact(k, buf)
			if err != nil {
				return n, err
			}
			n += copy(p[n:], raw)
			left -= k
		}
		pos = end
	}
	return n, c.Err()
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	size := int64(f.entry.Size)
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = size + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > size {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Name() string {
	return f.info.Name()
}

// Readdir reads the contents of the root directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.info.IsDir() {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}
	if !f.root {
		return nil, checkpoint.Wrap(ErrNotSupported, ErrReadDir)
	}

	if !f.listed {
		entries, err := f.fs.fs.RootDir(f.fs.buf)
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrReadDir)
		}
		f.listing = make([]os.FileInfo, len(entries))
		for i := range entries {
			f.listing[i] = entryInfo{entries[i]}
		}
		f.listed = true
	}

	if count <= 0 {
		result := f.listing
		f.listing = nil
		return result, nil
	}
	if len(f.listing) == 0 {
		return nil, io.EOF
	}
	if count > len(f.listing) {
		count = len(f.listing)
	}
	result := f.listing[:count:count]
	f.listing = f.listing[count:]
	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

// ReadDir implements fs.ReadDirFile.
func (f *File) ReadDir(count int) ([]iofs.DirEntry, error) {
	content, err := f.Readdir(count)

	entries := make([]iofs.DirEntry, len(content))
	for i, e := range content {
		entries[i] = iofs.FileInfoToDirEntry(e)
	}

	return entries, err
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.info, nil
}

func (f *File) Write(_ []byte) (int, error) {
	return 0, readOnly("write", f.Name())
}

func (f *File) WriteAt(_ []byte, _ int64) (int, error) {
	return 0, readOnly("write", f.Name())
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *File) Sync() error {
	return readOnly("sync", f.Name())
}

func (f *File) Truncate(_ int64) error {
	return readOnly("truncate", f.Name())
}
