package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	mp4 "github.com/abema/go-mp4"
)

var errDecoderPanic = errors.New("decoder panic")

// appleEpochOffset is the number of seconds between 1904-01-01 and the Unix
// epoch, the base of QuickTime/ISO BMFF times.
const appleEpochOffset = 2082844800

// readMP4 returns the moov/mvhd creation time of an ISO BMFF file.
func readMP4(path string) (t time.Time, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, false
	}
	for _, box := range boxes {
		mvhd, isMvhd := box.Payload.(*mp4.Mvhd)
		if !isMvhd {
			continue
		}
		secs := mvhd.GetCreationTime()
		if secs == 0 {
			return time.Time{}, false
		}
		created := time.Unix(int64(secs)-appleEpochOffset, 0).UTC()
		if created.Year() < 1970 {
			return time.Time{}, false
		}
		return created, true
	}
	return time.Time{}, false
}

// Matroska element IDs, marker bits included.
const (
	ebmlHeaderID = 0x1A45DFA3
	mkvSegmentID = 0x18538067
	mkvInfoID    = 0x1549A966
	mkvDateUTCID = 0x4461
	mkvClusterID = 0x1F43B675
)

// mkvEpoch is the Matroska DateUTC origin.
var mkvEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

const unknownSize = -1

// readMKV returns Segment/Info/DateUTC of a Matroska or WebM file.
func readMKV(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	id, size, err := readElementHeader(f)
	if err != nil || id != ebmlHeaderID || size == unknownSize {
		return time.Time{}, false
	}
	if _, err := f.Seek(size, io.SeekCurrent); err != nil {
		return time.Time{}, false
	}

	for {
		id, size, err = readElementHeader(f)
		if err != nil {
			return time.Time{}, false
		}
		if id == mkvSegmentID {
			break
		}
		if size == unknownSize {
			return time.Time{}, false
		}
		if _, err := f.Seek(size, io.SeekCurrent); err != nil {
			return time.Time{}, false
		}
	}

	info, ok := findChild(f, size, mkvInfoID)
	if !ok {
		return time.Time{}, false
	}
	date, ok := findChild(f, info, mkvDateUTCID)
	if !ok || date != 8 {
		return time.Time{}, false
	}
	var raw [8]byte
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		return time.Time{}, false
	}
	ns := int64(binary.BigEndian.Uint64(raw[:]))
	return mkvEpoch.Add(time.Duration(ns)), true
}

// findChild scans the children of the element whose payload starts at the
// current offset and leaves the reader at the payload of the first child
// with the wanted ID, returning its size.
func findChild(r io.ReadSeeker, parentSize int64, want uint32) (int64, bool) {
	var consumed int64
	for parentSize == unknownSize || consumed < parentSize {
		start, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		id, size, err := readElementHeader(r)
		if err != nil {
			return 0, false
		}
		if id == want {
			return size, true
		}
		// Info always precedes clusters; an unsized child cannot be skipped.
		if size == unknownSize || id == mkvClusterID {
			return 0, false
		}
		end, err := r.Seek(size, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		consumed += end - start
	}
	return 0, false
}

func readElementHeader(r io.Reader) (uint32, int64, error) {
	id, _, err := readVint(r, true)
	if err != nil {
		return 0, 0, err
	}
	size, unknown, err := readVint(r, false)
	if err != nil {
		return 0, 0, err
	}
	if unknown {
		return uint32(id), unknownSize, nil
	}
	return uint32(id), int64(size), nil
}

// readVint reads an EBML variable-length integer. IDs keep their length
// marker; sizes drop it and report the all-ones value as unknown.
func readVint(r io.Reader, keepMarker bool) (uint64, bool, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, false, err
	}
	length := 1
	for mask := byte(0x80); mask != 0 && first[0]&mask == 0; mask >>= 1 {
		length++
	}
	if length > 8 {
		return 0, false, errors.New("invalid EBML vint")
	}

	val := uint64(first[0])
	if !keepMarker {
		val &= uint64(0xFF >> length)
	}
	allOnes := val == uint64(0xFF>>length)

	rest := make([]byte, length-1)
	if _, err := io.ReadFull(r, rest); err != nil {
		return 0, false, err
	}
	for _, b := range rest {
		val = val<<8 | uint64(b)
		allOnes = allOnes && b == 0xFF
	}
	return val, !keepMarker && allOnes, nil
}

// iditLayouts are the date formats cameras write into the AVI IDIT chunk.
var iditLayouts = []string{
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan 02 15:04:05 2006",
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// readAVI returns the hdrl/IDIT timestamp of a RIFF AVI file.
func readAVI(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	var hdr [12]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return time.Time{}, false
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "AVI " {
		return time.Time{}, false
	}
	riffEnd := int64(binary.LittleEndian.Uint32(hdr[4:8])) + 8

	raw, ok := findRIFFChunk(f, riffEnd, "IDIT")
	if !ok {
		return time.Time{}, false
	}
	s := strings.TrimSpace(string(bytes.TrimRight(raw, "\x00")))
	for _, layout := range iditLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// findRIFFChunk searches chunks up to end, descending into hdrl LISTs.
func findRIFFChunk(r io.ReadSeeker, end int64, want string) ([]byte, bool) {
	var hdr [8]byte
	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil || pos+8 > end {
			return nil, false
		}
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, false
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))
		next := pos + 8 + size + size%2

		switch {
		case id == want:
			if size > maxChunkSize {
				return nil, false
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, false
			}
			return data, true
		case id == "LIST":
			var listType [4]byte
			if _, err := io.ReadFull(r, listType[:]); err != nil {
				return nil, false
			}
			if string(listType[:]) == "hdrl" {
				if data, ok := findRIFFChunk(r, pos+8+size, want); ok {
					return data, true
				}
			}
			if string(listType[:]) == "movi" {
				return nil, false
			}
		}
		if _, err := r.Seek(next, io.SeekStart); err != nil {
			return nil, false
		}
	}
}
