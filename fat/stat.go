package fat

import (
	"os"
	"time"
)

type entryInfo struct {
	entry DirEntry
}

func (e entryInfo) Name() string {
	return e.entry.FileName()
}

func (e entryInfo) Size() int64 {
	if e.IsDir() {
		return 0
	}
	return int64(e.entry.Size)
}

func (e entryInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (e entryInfo) ModTime() time.Time {
	return modTime(e.entry.WriteDate, e.entry.WriteTime)
}

func (e entryInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryInfo) Sys() interface{} {
	return e.entry
}

// rootInfo describes the root directory, which has no entry of its own.
type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() os.FileMode  { return os.ModeDir | 0555 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() interface{}   { return nil }

// modTime combines a FAT date and time stamp.
//
// The date counts years from 1980 in bits 9-15, the month in bits 5-8 and
// the day in bits 0-4. The time has hours in bits 11-15, minutes in bits
// 5-10 and seconds/2 in bits 0-4. A zero day or month is invalid and gives
// time.Time{}. Out of range time fields are clamped to 23:59:58.
func modTime(date, clock uint16) time.Time {
	day := int(date & 0x1F)
	month := time.Month((date >> 5) & 0x0F)
	year := 1980 + int(date>>9)
	if day == 0 || month == 0 {
		return time.Time{}
	}

	hour := int(clock >> 11)
	minute := int((clock >> 5) & 0x3F)
	second := int(clock&0x1F) * 2
	if hour > 23 || minute > 59 || second > 58 {
		hour, minute, second = 23, 59, 58
	}

	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}
