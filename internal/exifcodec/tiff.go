package exifcodec

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	typeASCII uint16 = 2
	typeLong  uint16 = 4

	entrySize = 12
	// ifd0Pointer is where the TIFF header stores the IFD0 offset.
	ifd0Pointer uint32 = 4
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// raw holds the value/offset field exactly as stored.
	raw [4]byte
	// pos is the entry's position in the block; zero for new entries.
	pos uint32
}

// tiffBlock is a mutable TIFF structure. New data is only ever appended, so
// offsets held by untouched tags stay valid.
type tiffBlock struct {
	buf   []byte
	order binary.ByteOrder
}

func parseTIFF(b []byte) (*tiffBlock, error) {
	if len(b) < 8 {
		return nil, ErrInvalidTIFF
	}
	var order binary.ByteOrder
	switch string(b[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, ErrInvalidTIFF
	}
	if order.Uint16(b[2:4]) != 42 {
		return nil, ErrInvalidTIFF
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return &tiffBlock{buf: buf, order: order}, nil
}

// newTIFF returns a little-endian block holding one empty IFD0.
func newTIFF() *tiffBlock {
	buf := []byte{
		'I', 'I', 42, 0,
		8, 0, 0, 0,
		0, 0, // no entries
		0, 0, 0, 0, // no next IFD
	}
	return &tiffBlock{buf: buf, order: binary.LittleEndian}
}

func (t *tiffBlock) u32(pos uint32) uint32 {
	return t.order.Uint32(t.buf[pos : pos+4])
}

func (t *tiffBlock) putU32(pos, v uint32) {
	t.order.PutUint32(t.buf[pos:pos+4], v)
}

func (t *tiffBlock) readIFD(off uint32) ([]ifdEntry, uint32, error) {
	size := uint64(len(t.buf))
	if uint64(off)+2 > size {
		return nil, 0, fmt.Errorf("IFD offset %d out of range", off)
	}
	n := uint32(t.order.Uint16(t.buf[off : off+2]))
	end := uint64(off) + 2 + uint64(n)*entrySize
	if end+4 > size {
		return nil, 0, fmt.Errorf("IFD at %d truncated", off)
	}

	entries := make([]ifdEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		p := off + 2 + i*entrySize
		e := ifdEntry{
			tag:   t.order.Uint16(t.buf[p : p+2]),
			typ:   t.order.Uint16(t.buf[p+2 : p+4]),
			count: t.order.Uint32(t.buf[p+4 : p+8]),
			pos:   p,
		}
		copy(e.raw[:], t.buf[p+8:p+12])
		entries = append(entries, e)
	}
	return entries, t.u32(uint32(end)), nil
}

// appendData adds b at the next word boundary and returns its offset.
func (t *tiffBlock) appendData(b []byte) uint32 {
	if len(t.buf)%2 != 0 {
		t.buf = append(t.buf, 0)
	}
	off := uint32(len(t.buf))
	t.buf = append(t.buf, b...)
	return off
}

func (t *tiffBlock) encodeIFD(entries []ifdEntry, next uint32) []byte {
	b := make([]byte, 2+len(entries)*entrySize+4)
	t.order.PutUint16(b[0:2], uint16(len(entries)))
	for i, e := range entries {
		p := 2 + i*entrySize
		t.order.PutUint16(b[p:p+2], e.tag)
		t.order.PutUint16(b[p+2:p+4], e.typ)
		t.order.PutUint32(b[p+4:p+8], e.count)
		copy(b[p+8:p+12], e.raw[:])
	}
	t.order.PutUint32(b[len(b)-4:], next)
	return b
}

// upsert sets entry e in the IFD whose offset is stored at ptr. An existing
// entry is rewritten in its slot; a new one makes a copy of the IFD at the
// end of the block and repoints ptr at it.
func (t *tiffBlock) upsert(ptr uint32, e ifdEntry) error {
	if uint64(ptr)+4 > uint64(len(t.buf)) {
		return fmt.Errorf("IFD pointer %d out of range", ptr)
	}
	entries, next, err := t.readIFD(t.u32(ptr))
	if err != nil {
		return err
	}

	for _, old := range entries {
		if old.tag == e.tag {
			t.order.PutUint16(t.buf[old.pos+2:old.pos+4], e.typ)
			t.order.PutUint32(t.buf[old.pos+4:old.pos+8], e.count)
			copy(t.buf[old.pos+8:old.pos+12], e.raw[:])
			return nil
		}
	}

	entries = append(entries, e)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })
	off := t.appendData(t.encodeIFD(entries, next))
	t.putU32(ptr, off)
	return nil
}

// setASCII stores val as a NUL-terminated ASCII tag in the IFD referenced by
// ptr. A same-size or larger existing value is overwritten in place.
func (t *tiffBlock) setASCII(ptr uint32, tag uint16, val string) error {
	data := append([]byte(val), 0)
	count := uint32(len(data))

	entries, _, err := t.readIFD(t.u32(ptr))
	if err != nil {
		return err
	}
	for _, old := range entries {
		if old.tag != tag || old.typ != typeASCII || old.count < count || old.count <= 4 {
			continue
		}
		off := t.order.Uint32(old.raw[:])
		if uint64(off)+uint64(old.count) > uint64(len(t.buf)) {
			break
		}
		dst := t.buf[off : off+old.count]
		for i := range dst {
			dst[i] = 0
		}
		copy(dst, data)
		t.order.PutUint32(t.buf[old.pos+4:old.pos+8], count)
		return nil
	}

	e := ifdEntry{tag: tag, typ: typeASCII, count: count}
	if count <= 4 {
		copy(e.raw[:], data)
	} else {
		t.order.PutUint32(e.raw[:], t.appendData(data))
	}
	return t.upsert(ptr, e)
}

// findPointer returns the position of the value field of tag in the IFD
// referenced by ptr, which is where a sub-IFD offset lives.
func (t *tiffBlock) findPointer(ptr uint32, tag uint16) (uint32, bool, error) {
	entries, _, err := t.readIFD(t.u32(ptr))
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.tag == tag && e.count == 1 {
			return e.pos + 8, true, nil
		}
	}
	return 0, false, nil
}

// exifIFDPointer returns the location of the Exif sub-IFD offset, creating
// an empty Exif IFD linked from IFD0 when there is none.
func (t *tiffBlock) exifIFDPointer() (uint32, error) {
	pos, ok, err := t.findPointer(ifd0Pointer, TagExifIFDPointer)
	if err != nil {
		return 0, err
	}
	if ok {
		return pos, nil
	}

	off := t.appendData(t.encodeIFD(nil, 0))
	e := ifdEntry{tag: TagExifIFDPointer, typ: typeLong, count: 1}
	t.order.PutUint32(e.raw[:], off)
	if err := t.upsert(ifd0Pointer, e); err != nil {
		return 0, err
	}

	pos, ok, err = t.findPointer(ifd0Pointer, TagExifIFDPointer)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("exif IFD pointer missing after insert")
	}
	return pos, nil
}

// asciiTag reads an ASCII tag from the IFD referenced by ptr.
func (t *tiffBlock) asciiTag(ptr uint32, tag uint16) (string, bool) {
	entries, _, err := t.readIFD(t.u32(ptr))
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.tag != tag || e.typ != typeASCII {
			continue
		}
		var raw []byte
		if e.count <= 4 {
			raw = e.raw[:e.count]
		} else {
			off := t.order.Uint32(e.raw[:])
			if uint64(off)+uint64(e.count) > uint64(len(t.buf)) {
				return "", false
			}
			raw = t.buf[off : off+e.count]
		}
		for i, c := range raw {
			if c == 0 {
				raw = raw[:i]
				break
			}
		}
		return string(raw), true
	}
	return "", false
}
