package fat

import (
	"errors"
	iofs "io/fs"

	"github.com/aligator/stage2/disk"
)

// GoFs wraps the afero implementation to be compatible with fs.FS.
type GoFs struct {
	*Fs
}

// NewGoFS exposes the root directory of fs as fs.FS reading through buf.
func NewGoFS(fs *FileSystem, buf *disk.Buffer) GoFs {
	return GoFs{NewFs(fs, buf)}
}

func (g GoFs) Open(name string) (iofs.File, error) {
	if !iofs.ValidPath(name) {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}
	return f, nil
}
