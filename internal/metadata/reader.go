// Package metadata reads candidate capture dates from photo metadata, video
// container atoms and filesystem attributes.
//
// Reading is best-effort: any decode fault leaves the corresponding field
// empty and never surfaces as an error.
package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

type format int

const (
	formatUnknown format = iota
	formatJPEG
	formatPNG
	formatHEIC
	formatMP4
	formatMKV
	formatAVI
)

var formats = map[string]format{
	".jpg":  formatJPEG,
	".jpeg": formatJPEG,
	".png":  formatPNG,
	".heic": formatHEIC,
	".mp4":  formatMP4,
	".mov":  formatMP4,
	".mkv":  formatMKV,
	".avi":  formatAVI,
}

func formatOf(path string) format {
	return formats[strings.ToLower(filepath.Ext(path))]
}

// IsVideo reports whether path has a video container extension.
func IsVideo(path string) bool {
	switch formatOf(path) {
	case formatMP4, formatMKV, formatAVI:
		return true
	}
	return false
}

// embeddedDates are the three EXIF timestamps of a photo.
type embeddedDates struct {
	original  *time.Time
	digitized *time.Time
	modified  *time.Time
}

// Reader extracts source dates from files.
type Reader struct{}

// New creates a Reader.
func New() *Reader {
	return &Reader{}
}

// ReadDates returns every date the file carries. The filesystem fields are
// always set when the file can be stat'ed.
func (r *Reader) ReadDates(path string) types.SourceDates {
	var out types.SourceDates

	if info, err := os.Stat(path); err == nil {
		out.FilesystemModified = normalize(info.ModTime())
		out.FilesystemCreated = out.FilesystemModified
		if born, ok := birthTime(path, info); ok {
			out.FilesystemCreated = normalize(born)
		}
	}

	var emb embeddedDates
	switch formatOf(path) {
	case formatJPEG:
		emb = readJPEG(path)
	case formatPNG:
		emb = readPNG(path)
	case formatHEIC:
		emb = readHEIC(path)
	case formatMP4:
		emb.original = utcToLocal(readMP4(path))
	case formatMKV:
		emb.original = utcToLocal(readMKV(path))
	case formatAVI:
		emb.original = utcToLocal(readAVI(path))
	}

	out.CaptureDate = emb.original
	out.DigitizedDate = emb.digitized
	out.ModifiedDate = emb.modified
	return out
}

// normalize returns the local wall-clock reading of the instant t.
func normalize(t time.Time) time.Time {
	return types.WallClock(t.In(time.Local))
}

// utcToLocal converts a container UTC time to local wall time.
func utcToLocal(t time.Time, ok bool) *time.Time {
	if !ok || t.IsZero() {
		return nil
	}
	local := normalize(t)
	return &local
}

// wallClock keeps the reading of t and drops any zone attached to it.
func wallClock(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	naive := types.WallClock(t)
	return &naive
}
