package models

import (
	"path/filepath"
	"strings"
	"time"
)

// DeletionMarker is prepended to the name of files staged for removal.
const DeletionMarker = "z_DELETE_"

// TimestampLayout is the EXIF date/time format.
const TimestampLayout = "2006:01:02 15:04:05"

// MediaFile is a file found by discovery. Hidden entries are never emitted, so there is
// no hidden flag: every MediaFile is visible.
type MediaFile struct {
	Path      string
	Ext       string
	CreatedAt time.Time
	Err       error `json:"-"`
}

// Marked reports whether the file name already carries the deletion marker.
func (m MediaFile) Marked() bool {
	return IsMarked(m.Path)
}

type TimestampRecord struct {
	Time time.Time
}

// String returns the record in EXIF format, which is the value written back to the file.
func (t TimestampRecord) String() string {
	return t.Time.Format(TimestampLayout)
}

type DurationRecord struct {
	Seconds float64
}

type RenamePlan struct {
	Source      string
	Destination string
	Reason      string
}

// Noop reports whether executing the plan would leave the file where it is.
func (p RenamePlan) Noop() bool {
	return p.Source == p.Destination
}

type JournalEntry struct {
	Source      string
	Destination string
	Hash        string
	Pipeline    string
	At          time.Time
}

type Run struct {
	ID       string
	Pipeline string
	Entries  int
}

func IsMarked(path string) bool {
	return strings.HasPrefix(filepath.Base(path), DeletionMarker)
}
