package exifcodec

import (
	"bytes"
	"encoding/binary"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	// markerRaw tags the entropy-coded tail after SOS, kept verbatim.
	markerRaw = 0x00
)

// maxSegmentPayload is the largest payload a JPEG marker segment can hold
// (the 16-bit length field counts itself).
const maxSegmentPayload = 0xFFFF - 2

type segment struct {
	marker byte
	data   []byte
}

func standalone(marker byte) bool {
	return marker == markerSOI || marker == markerEOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7)
}

// splitJPEG breaks a JPEG stream into marker segments. Everything after the
// SOS header is kept as one raw segment.
func splitJPEG(data []byte) ([]segment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}

	segs := []segment{{marker: markerSOI}}
	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, ErrCorruptJPEG
		}
		// fill bytes
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return nil, ErrCorruptJPEG
		}
		marker := data[i]
		i++

		if standalone(marker) {
			segs = append(segs, segment{marker: marker})
			if marker == markerEOI {
				if i < len(data) {
					segs = append(segs, segment{marker: markerRaw, data: data[i:]})
				}
				return segs, nil
			}
			continue
		}

		if i+2 > len(data) {
			return nil, ErrCorruptJPEG
		}
		n := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if n < 0 || i+n > len(data) {
			return nil, ErrCorruptJPEG
		}
		segs = append(segs, segment{marker: marker, data: data[i : i+n]})
		i += n

		if marker == markerSOS {
			if i < len(data) {
				segs = append(segs, segment{marker: markerRaw, data: data[i:]})
			}
			return segs, nil
		}
	}
	return segs, nil
}

func joinJPEG(segs []segment) []byte {
	var buf bytes.Buffer
	for _, seg := range segs {
		switch {
		case seg.marker == markerRaw:
			buf.Write(seg.data)
		case standalone(seg.marker):
			buf.Write([]byte{0xFF, seg.marker})
		default:
			buf.Write([]byte{0xFF, seg.marker})
			var l [2]byte
			binary.BigEndian.PutUint16(l[:], uint16(len(seg.data)+2))
			buf.Write(l[:])
			buf.Write(seg.data)
		}
	}
	return buf.Bytes()
}

func isExifSegment(seg segment) bool {
	return seg.marker == markerAPP1 && bytes.HasPrefix(seg.data, exifHeader)
}

// ExtractTIFF returns the TIFF block of the first EXIF APP1 segment in a JPEG
// stream, or false when there is none.
func ExtractTIFF(jpeg []byte) ([]byte, bool) {
	segs, err := splitJPEG(jpeg)
	if err != nil {
		return nil, false
	}
	for _, seg := range segs {
		if isExifSegment(seg) {
			return seg.data[len(exifHeader):], true
		}
	}
	return nil, false
}
