// Package writer persists a resolved date into a file's EXIF tags and its
// filesystem timestamps.
package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/exifcodec"
	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

var ErrInvalidDate = errors.New("invalid date")

// writable lists the formats whose EXIF date tags can be rewritten.
var writable = map[string]bool{
	".jpg":  true,
	".jpeg": true,
}

// Filesystem updates file timestamps.
type Filesystem interface {
	Chtimes(path string, atime, mtime time.Time) error
}

// CreationTimeWriter is implemented by filesystems that expose a settable
// creation time.
type CreationTimeWriter interface {
	SetCreationTime(path string, t time.Time) error
}

type osFS struct{}

func (osFS) Chtimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}

// Writer applies a date to a file.
type Writer struct {
	fs Filesystem
}

// New returns a Writer for the host platform.
func New() *Writer {
	return &Writer{fs: platformFS()}
}

// SupportsMetadata reports whether WriteDate rewrites embedded tags for path.
func SupportsMetadata(path string) bool {
	return writable[strings.ToLower(filepath.Ext(path))]
}

// WriteDate sets DateTimeDigitized and DateTime for writable formats, then
// the access and modification times, then the creation time when the
// platform supports it. Other formats only get the filesystem update.
//
// d is a naive wall-clock time; it is placed on the local timeline only for
// the filesystem attributes.
func (w *Writer) WriteDate(path string, d time.Time) error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	d = d.Truncate(time.Second)

	if SupportsMetadata(path) {
		if err := exifcodec.UpdateJPEGFile(path, d); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}

	at := types.Instant(d)
	if err := w.fs.Chtimes(path, at, at); err != nil {
		return fmt.Errorf("set file times: %w", err)
	}

	if cw, ok := w.fs.(CreationTimeWriter); ok {
		if err := cw.SetCreationTime(path, at); err != nil {
			return fmt.Errorf("set creation time: %w", err)
		}
	}
	return nil
}
