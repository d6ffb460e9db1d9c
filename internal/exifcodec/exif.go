// Package exifcodec reads and rewrites the timestamp tags of the EXIF
// (TIFF tag-dictionary) block embedded in JPEG files.
//
// Only DateTime (IFD0) and DateTimeDigitized (Exif IFD) are ever written.
// DateTimeOriginal is treated as read-only ground truth. Every other tag is
// passed through byte for byte: updates either overwrite a value in place or
// append new structures at the end of the block.
package exifcodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tag IDs of the timestamp-relevant EXIF fields.
const (
	TagDateTime          uint16 = 0x0132
	TagExifIFDPointer    uint16 = 0x8769
	TagDateTimeOriginal  uint16 = 0x9003
	TagDateTimeDigitized uint16 = 0x9004
)

// DateLayout is the fixed EXIF date/time text format.
const DateLayout = "2006:01:02 15:04:05"

var exifHeader = []byte("Exif\x00\x00")

var (
	ErrNotJPEG         = errors.New("not a JPEG file")
	ErrCorruptJPEG     = errors.New("corrupt JPEG marker structure")
	ErrInvalidTIFF     = errors.New("invalid TIFF header")
	ErrSegmentTooLarge = errors.New("EXIF segment exceeds 64KB")
)

// Dates holds the raw text of the three timestamp tags.
type Dates struct {
	Original  string
	Digitized string
	Modified  string
}

// FormatDate renders t in the EXIF date layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an EXIF date string as a naive wall-clock time (UTC
// location). Blank and all-zero values ("0000:00:00 00:00:00") are rejected.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// SetDateTags returns a copy of the TIFF block with DateTime and
// DateTimeDigitized set to d. The Exif IFD is created when missing.
func SetDateTags(tiff []byte, d time.Time) ([]byte, error) {
	t, err := parseTIFF(tiff)
	if err != nil {
		return nil, err
	}
	if err := t.setDates(FormatDate(d)); err != nil {
		return nil, err
	}
	return t.buf, nil
}

func (t *tiffBlock) setDates(val string) error {
	if err := t.setASCII(ifd0Pointer, TagDateTime, val); err != nil {
		return fmt.Errorf("set DateTime: %w", err)
	}
	ptr, err := t.exifIFDPointer()
	if err != nil {
		return fmt.Errorf("locate Exif IFD: %w", err)
	}
	if err := t.setASCII(ptr, TagDateTimeDigitized, val); err != nil {
		return fmt.Errorf("set DateTimeDigitized: %w", err)
	}
	return nil
}

// ReadDates returns the raw timestamp tags of a TIFF block.
func ReadDates(tiff []byte) (Dates, error) {
	t, err := parseTIFF(tiff)
	if err != nil {
		return Dates{}, err
	}
	var d Dates
	d.Modified, _ = t.asciiTag(ifd0Pointer, TagDateTime)
	if ptr, ok, err := t.findPointer(ifd0Pointer, TagExifIFDPointer); err == nil && ok {
		d.Original, _ = t.asciiTag(ptr, TagDateTimeOriginal)
		d.Digitized, _ = t.asciiTag(ptr, TagDateTimeDigitized)
	}
	return d, nil
}

// UpdateJPEG returns the JPEG stream with its digitized and modified date
// tags set to d. A JPEG without an EXIF segment gets a new one right after
// SOI (or after a leading JFIF APP0).
func UpdateJPEG(jpeg []byte, d time.Time) ([]byte, error) {
	segs, err := splitJPEG(jpeg)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, seg := range segs {
		if isExifSegment(seg) {
			idx = i
			break
		}
	}

	var t *tiffBlock
	if idx >= 0 {
		t, err = parseTIFF(segs[idx].data[len(exifHeader):])
		if err != nil {
			return nil, err
		}
	} else {
		t = newTIFF()
	}
	if err := t.setDates(FormatDate(d)); err != nil {
		return nil, err
	}

	payload := make([]byte, 0, len(exifHeader)+len(t.buf))
	payload = append(payload, exifHeader...)
	payload = append(payload, t.buf...)
	if len(payload) > maxSegmentPayload {
		return nil, ErrSegmentTooLarge
	}

	app1 := segment{marker: markerAPP1, data: payload}
	if idx >= 0 {
		segs[idx] = app1
	} else {
		at := 1
		if len(segs) > 1 && segs[1].marker == markerAPP0 {
			at = 2
		}
		segs = append(segs[:at], append([]segment{app1}, segs[at:]...)...)
	}
	return joinJPEG(segs), nil
}

// UpdateJPEGFile rewrites the date tags of the JPEG at path. The new content
// goes to a temp file in the same directory which then replaces the original,
// carrying over mode and, where permitted, owner. The replacement is a new
// inode: other hard links keep the old bytes and extended attributes are
// not copied.
func UpdateJPEGFile(path string, d time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := UpdateJPEG(data, d)
	if err != nil {
		return fmt.Errorf("update EXIF: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := copyOwner(path, tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copy owner: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
