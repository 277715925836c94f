package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
)

// DirEntry is a decoded directory entry of a file or directory.
type DirEntry struct {
	Name         [11]byte
	Attribute    byte
	FirstCluster uint32
	Size         uint32
	WriteDate    uint16
	WriteTime    uint16
}

// IsDir reports whether the entry is a directory.
func (e DirEntry) IsDir() bool {
	return e.Attribute&AttrDirectory != 0
}

// FileName returns the name in the NAME.EXT form.
func (e DirEntry) FileName() string {
	return displayName(e.Name)
}

func (e DirEntry) String() string {
	return fmt.Sprintf("%s cluster=%#x size=%d", e.FileName(), e.FirstCluster, e.Size)
}

// FindFileInRootDir looks up a file in the root directory. Directories never
// match.
func (fs *FileSystem) FindFileInRootDir(name string, buf *disk.Buffer) (DirEntry, error) {
	short, err := ShortName(name)
	if err != nil {
		return DirEntry{}, err
	}

	var found DirEntry
	ok, err := fs.walkRoot(buf, func(e DirEntry) bool {
		if e.IsDir() || !sameName(e.Name, short) {
			return false
		}
		found = e
		return true
	})
	if err != nil {
		return DirEntry{}, err
	}
	if !ok {
		return DirEntry{}, checkpoint.Wrap(fmt.Errorf("%q", name), ErrFileNotFound)
	}
	return found, nil
}

// RootDir lists all files and directories of the root directory.
func (fs *FileSystem) RootDir(buf *disk.Buffer) ([]DirEntry, error) {
	var entries []DirEntry
	_, err := fs.walkRoot(buf, func(e DirEntry) bool {
		entries = append(entries, e)
		return false
	})
	return entries, err
}

// walkRoot calls visit for every entry of the root directory until visit
// returns true. It reports whether visit stopped the walk.
func (fs *FileSystem) walkRoot(buf *disk.Buffer, visit func(DirEntry) bool) (bool, error) {
	if fs.fatType != FAT32 {
		return fs.walkEntries(Extent{Offset: fs.rootOffset, Len: fs.rootSize}, buf, visit)
	}

	// The FAT32 root directory is a cluster chain without a size.
	c := fs.chain(fs.rootCluster, buf)
	for c.Next() {
		stopped, err := fs.walkEntries(c.Extent(), buf, visit)
		if err != nil || stopped {
			return stopped, err
		}
	}
	return false, c.Err()
}

func (fs *FileSystem) walkEntries(ext Extent, buf *disk.Buffer, visit func(DirEntry) bool) (bool, error) {
	d := fs.disk
	if _, err := d.Seek(int64(ext.Offset), io.SeekStart); err != nil {
		return false, err
	}

	chunk := buf.Cap() - buf.Cap()%entrySize
	for left := int(ext.Len); left > 0; {
		n := left
		if n > chunk {
			n = chunk
		}
		raw, err := d.ReadExact(n, buf)
		if err != nil {
			return false, err
		}

		for off := 0; off+entrySize <= n; off += entrySize {
			e, ok, err := fs.decodeEntry(raw[off : off+entrySize])
			if err != nil {
				return false, err
			}
			if ok && visit(e) {
				return true, nil
			}
		}
		left -= n
	}
	return false, nil
}

// decodeEntry decodes a raw directory entry. It returns false for entries
// which do not describe a file or directory.
func (fs *FileSystem) decodeEntry(raw []byte) (DirEntry, bool, error) {
	switch raw[0] {
	case entryFree, entryDeleted:
		return DirEntry{}, false, nil
	}

	attr := raw[11]
	if attr&AttrLongName == AttrLongName || attr&AttrVolumeID != 0 {
		return DirEntry{}, false, nil
	}

	header := EntryHeader{}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
		return DirEntry{}, false, checkpoint.From(err)
	}
	if header.Name[0] == entryKanji {
		header.Name[0] = entryDeleted
	}

	first := uint32(header.FirstClusterLO)
	if fs.fatType == FAT32 {
		first |= uint32(header.FirstClusterHI) << 16
	}

	return DirEntry{
		Name:         header.Name,
		Attribute:    header.Attribute,
		FirstCluster: first,
		Size:         header.FileSize,
		WriteDate:    header.WriteDate,
		WriteTime:    header.WriteTime,
	}, true, nil
}
