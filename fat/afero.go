package fat

import (
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
	"github.com/spf13/afero"
)

// These errors are returned by the afero adapter.
var (
	ErrReadOnly     = checkpoint.Coded(checkpoint.Unknown, "filesystem is read only")
	ErrNotSupported = checkpoint.Coded(checkpoint.Unknown, "only the root directory is supported")
)

// Fs exposes the root directory of a FileSystem as a read only afero.Fs.
//
// All files share the staging buffer, so an Fs and its files must not be
// used concurrently.
type Fs struct {
	fs  *FileSystem
	buf *disk.Buffer
}

// NewFs creates an afero.Fs reading through buf.
func NewFs(fs *FileSystem, buf *disk.Buffer) *Fs {
	return &Fs{fs: fs, buf: buf}
}

var _ afero.Fs = (*Fs)(nil)

func isRoot(name string) bool {
	return name == "" || name == "." || name == "/"
}

// lookup finds name in the root directory. Directories are found as well.
func (f *Fs) lookup(name string) (DirEntry, error) {
	name = strings.TrimPrefix(name, "/")
	if strings.ContainsAny(name, `/\`) {
		return DirEntry{}, checkpoint.Wrap(&os.PathError{Op: "open", Path: name, Err: syscall.ENOENT}, ErrNotSupported)
	}

	short, err := ShortName(name)
	if err != nil {
		return DirEntry{}, checkpoint.Wrap(&os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}, err)
	}

	var found DirEntry
	ok, err := f.fs.walkRoot(f.buf, func(e DirEntry) bool {
		if !sameName(e.Name, short) {
			return false
		}
		found = e
		return true
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !ok {
		return DirEntry{}, checkpoint.Wrap(&os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}, ErrFileNotFound)
	}
	return found, nil
}

func (f *Fs) Open(name string) (afero.File, error) {
	if isRoot(name) {
		return &File{fs: f, root: true, info: rootInfo{}}, nil
	}

	entry, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	return &File{fs: f, entry: entry, info: entryInfo{entry}}, nil
}

// OpenFile only allows opening files for reading.
func (f *Fs) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, readOnly("open", name)
	}
	return f.Open(name)
}

func (f *Fs) Stat(name string) (os.FileInfo, error) {
	if isRoot(name) {
		return rootInfo{}, nil
	}
	entry, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	return entryInfo{entry}, nil
}

func (f *Fs) Name() string {
	return f.fs.fatType.String()
}

func readOnly(op, name string) error {
	return checkpoint.Wrap(&os.PathError{Op: op, Path: name, Err: syscall.EPERM}, ErrReadOnly)
}

func (f *Fs) Create(name string) (afero.File, error) {
	return nil, readOnly("create", name)
}

func (f *Fs) Mkdir(name string, _ os.FileMode) error {
	return readOnly("mkdir", name)
}

func (f *Fs) MkdirAll(path string, _ os.FileMode) error {
	return readOnly("mkdir", path)
}

func (f *Fs) Remove(name string) error {
	return readOnly("remove", name)
}

func (f *Fs) RemoveAll(path string) error {
	return readOnly("remove", path)
}

func (f *Fs) Rename(oldname, _ string) error {
	return readOnly("rename", oldname)
}

func (f *Fs) Chmod(name string, _ os.FileMode) error {
	return readOnly("chmod", name)
}

func (f *Fs) Chown(name string, _, _ int) error {
	return readOnly("chown", name)
}

func (f *Fs) Chtimes(name string, _ time.Time, _ time.Time) error {
	return readOnly("chtimes", name)
}
