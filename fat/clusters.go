package fat

import (
	"fmt"

	"github.com/aligator/stage2/checkpoint"
	"github.com/aligator/stage2/disk"
)

// Extent is a contiguous run of file data.
type Extent struct {
	// Offset is relative to the start of the partition.
	Offset uint64
	Len    uint32
}

func (e Extent) String() string {
	return fmt.Sprintf("[%#x, %#x)", e.Offset, e.Offset+uint64(e.Len))
}

// Clusters iterates over the data clusters of a file, one Extent per cluster:
//  c := fs.FileClusters(entry, buf)
//  for c.Next() {
//  	use(c.Extent())
//  }
//  if err := c.Err(); err != nil {
//  	...
//  }
// The FAT is read through buf inside of Next, so the buffer is free for other
// reads until Next is called again.
type Clusters struct {
	fs  *FileSystem
	buf *disk.Buffer

	next uint32
	// remaining is the number of file bytes not yet covered by an extent.
	remaining uint64
	// sized is false for directories, which end with their chain only.
	sized  bool
	steps  uint32
	eoc    bool
	done   bool
	extent Extent
	err    error
}

// FileClusters returns the extents of a file. Each extent covers a whole
// cluster except the last one, which ends with the file.
func (fs *FileSystem) FileClusters(entry DirEntry, buf *disk.Buffer) *Clusters {
	return &Clusters{
		fs:        fs,
		buf:       buf,
		next:      entry.FirstCluster,
		remaining: uint64(entry.Size),
		sized:     true,
	}
}

// chain returns the extents of the whole chain starting at first.
func (fs *FileSystem) chain(first uint32, buf *disk.Buffer) *Clusters {
	return &Clusters{
		fs:   fs,
		buf:  buf,
		next: first,
	}
}

// Next advances to the next extent. It returns false once the file is
// covered or an error occurred.
func (c *Clusters) Next() bool {
	if c.done {
		return false
	}
	if c.eoc {
		if c.sized && c.remaining > 0 {
			return c.fail(fmt.Errorf("chain ends %d bytes before the end of the file", c.remaining))
		}
		c.done = true
		return false
	}
	if c.sized && c.remaining == 0 {
		c.done = true
		return false
	}

	if err := c.fs.checkLink(c.next); err != nil {
		if c.steps == 0 {
			return c.fail(fmt.Errorf("first cluster %#x: %w", c.next, err))
		}
		return c.fail(fmt.Errorf("cluster %d of the chain %w", c.steps, err))
	}
	c.steps++
	if c.steps > c.fs.clusters {
		return c.fail(fmt.Errorf("chain longer than %d clusters", c.fs.clusters))
	}

	size := c.fs.clusterSize
	if c.sized {
		if c.remaining < uint64(size) {
			size = uint32(c.remaining)
		}
		c.remaining -= uint64(size)
	}
	c.extent = Extent{Offset: c.fs.clusterOffset(c.next), Len: size}

	if !c.sized || c.remaining > 0 {
		value, err := c.fs.nextCluster(c.next, c.buf)
		if err != nil {
			return c.stop(err)
		}
		if c.fs.isEndOfChain(value) {
			c.eoc = true
		}
		c.next = value
	}
	return true
}

func (c *Clusters) fail(err error) bool {
	return c.stop(checkpoint.Wrap(err, ErrClusterChainCorrupt))
}

func (c *Clusters) stop(err error) bool {
	c.err = err
	c.done = true
	c.extent = Extent{}
	return false
}

// Extent returns the extent found by the last call to Next.
func (c *Clusters) Extent() Extent {
	return c.extent
}

// Err returns the error which stopped the iteration, if any.
func (c *Clusters) Err() error {
	return c.err
}
