// File model contains the structs which match the direct structures of the FAT filesystem.

package fat

// Directory entry attributes.
const (
	AttrReadOnly  byte = 0x01
	AttrHidden    byte = 0x02
	AttrSystem    byte = 0x04
	AttrVolumeID  byte = 0x08
	AttrDirectory byte = 0x10
	AttrArchive   byte = 0x20

	// AttrLongName marks a long filename entry. They are never used by the
	// loader.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// Markers in the first name byte of a directory entry.
const (
	entryFree    = 0x00
	entryDeleted = 0xE5
	// entryKanji stands for a real 0xE5 as first character.
	entryKanji = 0x05
)

const (
	bpbSize   = 90
	entrySize = 32
)

type BPB struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSpecificData     [54]byte
}

type FAT16SpecificData struct {
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSignature  byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

type FAT32SpecificData struct {
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BkBootSector     uint16
	Reserved         [12]byte
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSignature  byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

// EntryHeader is the raw 32 byte directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}
