package metadata

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/Fahad-codecraft/exif-date-fixer/internal/exifcodec"
)

// readJPEG decodes with goexif and falls back to the in-house TIFF walker
// when goexif rejects the block.
func readJPEG(path string) embeddedDates {
	f, err := os.Open(path)
	if err != nil {
		return embeddedDates{}
	}
	emb, ok := decodeEXIF(f)
	f.Close()
	if ok {
		return emb
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return embeddedDates{}
	}
	tiff, found := exifcodec.ExtractTIFF(data)
	if !found {
		return embeddedDates{}
	}
	return decodeTIFF(tiff)
}

// decodeEXIF runs goexif over a JPEG stream or a bare TIFF block.
func decodeEXIF(r io.Reader) (out embeddedDates, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = embeddedDates{}, false
		}
	}()

	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return embeddedDates{}, false
	}

	return embeddedDates{
		original:  exifDate(x, exif.DateTimeOriginal),
		digitized: exifDate(x, exif.DateTimeDigitized),
		modified:  exifDate(x, exif.DateTime),
	}, true
}

func decodeTIFF(tiff []byte) (out embeddedDates) {
	defer func() {
		if recover() != nil {
			out = embeddedDates{}
		}
	}()

	d, err := exifcodec.ReadDates(tiff)
	if err != nil {
		return embeddedDates{}
	}
	return embeddedDates{
		original:  parseDateText(d.Original),
		digitized: parseDateText(d.Digitized),
		modified:  parseDateText(d.Modified),
	}
}

func exifDate(x *exif.Exif, name exif.FieldName) *time.Time {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	return parseDateText(s)
}

func parseDateText(s string) *time.Time {
	t, err := exifcodec.ParseDate(strings.TrimSpace(strings.TrimRight(s, "\x00")))
	if err != nil {
		return nil
	}
	return &t
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// maxChunkSize bounds metadata chunk allocations on corrupt input.
const maxChunkSize = 16 << 20

// readPNG decodes the eXIf chunk, which holds a bare TIFF block.
func readPNG(path string) embeddedDates {
	f, err := os.Open(path)
	if err != nil {
		return embeddedDates{}
	}
	defer f.Close()

	tiff, ok := findPNGChunk(f, "eXIf")
	if !ok {
		return embeddedDates{}
	}
	if emb, ok := decodeEXIF(bytes.NewReader(tiff)); ok {
		return emb
	}
	return decodeTIFF(tiff)
}

func findPNGChunk(r io.ReadSeeker, want string) ([]byte, bool) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, false
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, false
		}
		size := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:8])

		switch typ {
		case want:
			if size > maxChunkSize {
				return nil, false
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, false
			}
			return data, true
		case "IEND":
			return nil, false
		}
		// skip data and CRC
		if _, err := r.Seek(int64(size)+4, io.SeekCurrent); err != nil {
			return nil, false
		}
	}
}
