package metadata

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Fahad-codecraft/exif-date-fixer/pkg/types"
)

// tiffWithTags builds a little-endian TIFF whose IFD0 holds the given ASCII tags.
func tiffWithTags(tags map[uint16]string) []byte {
	ids := make([]uint16, 0, len(tags))
	for id := range tags {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	le := binary.LittleEndian
	dataAt := uint32(8 + 2 + len(ids)*12 + 4)
	head := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	ifd := make([]byte, 2, 2+len(ids)*12+4)
	le.PutUint16(ifd, uint16(len(ids)))
	var data []byte
	for _, id := range ids {
		val := append([]byte(tags[id]), 0)
		e := make([]byte, 12)
		le.PutUint16(e[0:], id)
		le.PutUint16(e[2:], 2)
		le.PutUint32(e[4:], uint32(len(val)))
		le.PutUint32(e[8:], dataAt+uint32(len(data)))
		ifd = append(ifd, e...)
		data = append(data, val...)
	}
	ifd = append(ifd, 0, 0, 0, 0)
	return append(append(head, ifd...), data...)
}

func jpegWithTIFF(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&buf, binary.BigEndian, uint16(len(tiff)+6+2))
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func pngChunk(buf *bytes.Buffer, typ string, data []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	buf.Write([]byte{0, 0, 0, 0}) // CRC is not checked
}

func box(typ string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(b, uint32(8+len(payload)))
	copy(b[4:], typ)
	return append(b, payload...)
}

func mp4WithCreation(t time.Time) []byte {
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[4:], uint32(t.Unix()+appleEpochOffset))
	binary.BigEndian.PutUint32(mvhd[12:], 1000)    // timescale
	binary.BigEndian.PutUint32(mvhd[20:], 0x10000) // rate 1.0
	binary.BigEndian.PutUint16(mvhd[24:], 0x100)   // volume 1.0
	binary.BigEndian.PutUint32(mvhd[96:], 1)       // next track ID
	ftyp := box("ftyp", []byte("isom\x00\x00\x02\x00isommp41"))
	return append(ftyp, box("moov", box("mvhd", mvhd))...)
}

func mkvWithDate(t time.Time) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x84, 0x42, 0x86, 0x81, 0x01}) // EBML{EBMLVersion=1}
	buf.Write([]byte{0x18, 0x53, 0x80, 0x67, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	buf.Write([]byte{0x11, 0x4D, 0x9B, 0x74, 0x82, 0xEC, 0x80}) // SeekHead with a Void child
	buf.Write([]byte{0x15, 0x49, 0xA9, 0x66, 0x8B, 0x44, 0x61, 0x88})
	binary.Write(&buf, binary.BigEndian, t.Sub(mkvEpoch).Nanoseconds())
	return buf.Bytes()
}

func aviWithIDIT(idit string) []byte {
	chunk := func(id string, data []byte) []byte {
		b := make([]byte, 8, 8+len(data)+1)
		copy(b, id)
		binary.LittleEndian.PutUint32(b[4:], uint32(len(data)))
		b = append(b, data...)
		if len(data)%2 == 1 {
			b = append(b, 0)
		}
		return b
	}
	hdrl := append([]byte("hdrl"), chunk("avih", make([]byte, 56))...)
	hdrl = append(hdrl, chunk("IDIT", []byte(idit))...)
	body := append([]byte("AVI "), chunk("LIST", hdrl)...)
	body = append(body, chunk("LIST", []byte("movi"))...)
	return chunk("RIFF", body)
}

// heicWithExif lays out an ftyp box followed by a TIFF block: IFD0 holds
// DateTime and the Exif IFD pointer, the Exif IFD holds DateTimeOriginal,
// DateTimeDigitized and OffsetTimeOriginal. Values follow their IFD so the
// block reads front to back.
func heicWithExif(modified, original, digitized, offset string) []byte {
	le := binary.LittleEndian
	entry := func(tag, typ uint16, count, value uint32) []byte {
		e := make([]byte, 12)
		le.PutUint16(e[0:], tag)
		le.PutUint16(e[2:], typ)
		le.PutUint32(e[4:], count)
		le.PutUint32(e[8:], value)
		return e
	}
	ascii := func(v string, n int) []byte {
		b := make([]byte, n)
		copy(b, v)
		return b
	}

	const (
		modifiedAt  = 38
		exifIFDAt   = 58
		originalAt  = 100
		digitizedAt = 120
		offsetAt    = 140
	)
	tiff := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	tiff = append(tiff, 2, 0)
	tiff = append(tiff, entry(0x0132, 2, 20, modifiedAt)...)
	tiff = append(tiff, entry(0x8769, 4, 1, exifIFDAt)...)
	tiff = append(tiff, 0, 0, 0, 0)
	tiff = append(tiff, ascii(modified, 20)...)
	tiff = append(tiff, 3, 0)
	tiff = append(tiff, entry(0x9003, 2, 20, originalAt)...)
	tiff = append(tiff, entry(0x9004, 2, 20, digitizedAt)...)
	tiff = append(tiff, entry(0x9011, 2, 7, offsetAt)...)
	tiff = append(tiff, 0, 0, 0, 0)
	tiff = append(tiff, ascii(original, 20)...)
	tiff = append(tiff, ascii(digitized, 20)...)
	tiff = append(tiff, ascii(offset, 8)...)
	tiff = append(tiff, make([]byte, 64)...)

	ftyp := box("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))
	return append(ftyp, tiff...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func assertDate(t *testing.T, label string, got *time.Time, want time.Time) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected date, got nil", label)
	}
	if !got.Equal(want) {
		t.Fatalf("%s: want=%v got=%v", label, want, *got)
	}
}

// TestReadDates_JPEGReadsAllThreeTags는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_JPEGReadsAllThreeTags(t *testing.T) {
	path := writeFile(t, "IMG_0001.JPG", jpegWithTIFF(tiffWithTags(map[uint16]string{
		0x0132: "2022:02:02 10:00:00",
		0x9003: "2020:01:01 08:30:00",
		0x9004: "2021:01:01 09:00:00",
	})))

	got := New().ReadDates(path)

	assertDate(t, "capture", got.CaptureDate, time.Date(2020, 1, 1, 8, 30, 0, 0, time.UTC))
	assertDate(t, "digitized", got.DigitizedDate, time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC))
	assertDate(t, "modified", got.ModifiedDate, time.Date(2022, 2, 2, 10, 0, 0, 0, time.UTC))
}

// TestReadDates_ZeroDateIsEmpty는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_ZeroDateIsEmpty(t *testing.T) {
	// 0으로 채워진 EXIF 날짜는 없는 값으로 취급해야 한다.
	path := writeFile(t, "zero.jpg", jpegWithTIFF(tiffWithTags(map[uint16]string{
		0x9003: "0000:00:00 00:00:00",
		0x9004: "2021:01:01 09:00:00",
	})))

	got := New().ReadDates(path)
	if got.CaptureDate != nil {
		t.Fatalf("expected empty capture date, got %v", *got.CaptureDate)
	}
	assertDate(t, "digitized", got.DigitizedDate, time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC))
}

// TestReadDates_CorruptPhotoLeavesFieldsEmpty는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_CorruptPhotoLeavesFieldsEmpty(t *testing.T) {
	for _, name := range []string{"broken.jpg", "broken.png", "broken.heic", "broken.mp4", "broken.mkv", "broken.avi"} {
		path := writeFile(t, name, []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x10, 'E', 'x', 'i', 'f'})

		got := New().ReadDates(path)
		if got.CaptureDate != nil || got.DigitizedDate != nil || got.ModifiedDate != nil {
			t.Errorf("%s: expected no embedded dates, got %+v", name, got)
		}
		// 파일시스템 시간은 항상 채워져야 한다.
		if got.FilesystemModified.IsZero() || got.FilesystemCreated.IsZero() {
			t.Errorf("%s: filesystem times should always be set", name)
		}
	}
}

// TestDecodeTIFF_FallbackReadsModifiedDate는 테스트 코드 동작을 검증하거나 보조합니다.
func TestDecodeTIFF_FallbackReadsModifiedDate(t *testing.T) {
	// goexif가 거부한 블록도 내부 TIFF 파서로 날짜를 읽어야 한다.
	got := decodeTIFF(tiffWithTags(map[uint16]string{0x0132: "2016:06:06 06:06:06"}))
	assertDate(t, "modified", got.modified, time.Date(2016, 6, 6, 6, 6, 6, 0, time.UTC))
	if got.original != nil || got.digitized != nil {
		t.Fatalf("unexpected dates without an Exif IFD: %+v", got)
	}

	if empty := decodeTIFF([]byte("MM\x00")); empty.modified != nil {
		t.Fatal("truncated TIFF should yield no dates")
	}
}

// TestReadDates_PNGExifChunk는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_PNGExifChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	pngChunk(&buf, "IHDR", make([]byte, 13))
	pngChunk(&buf, "eXIf", tiffWithTags(map[uint16]string{0x9003: "2019:07:04 12:00:00"}))
	pngChunk(&buf, "IDAT", []byte{0x78, 0x9C})
	pngChunk(&buf, "IEND", nil)
	path := writeFile(t, "shot.png", buf.Bytes())

	got := New().ReadDates(path)
	assertDate(t, "capture", got.CaptureDate, time.Date(2019, 7, 4, 12, 0, 0, 0, time.UTC))
}

// TestReadDates_HEICExif는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_HEICExif(t *testing.T) {
	// HEIC의 세 날짜 태그가 레코드까지 전달되어야 한다.
	path := writeFile(t, "IMG_0420.HEIC", heicWithExif(
		"2022:02:02 10:00:00", "2020:01:01 08:30:00", "2021:01:01 09:00:00", ""))

	got := New().ReadDates(path)
	assertDate(t, "capture", got.CaptureDate, time.Date(2020, 1, 1, 8, 30, 0, 0, time.UTC))
	assertDate(t, "digitized", got.DigitizedDate, time.Date(2021, 1, 1, 9, 0, 0, 0, time.UTC))
	assertDate(t, "modified", got.ModifiedDate, time.Date(2022, 2, 2, 10, 0, 0, 0, time.UTC))
}

// TestReadDates_HEICDropsOffsetZone는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_HEICDropsOffsetZone(t *testing.T) {
	// OffsetTimeOriginal이 있어도 카메라가 기록한 벽시계 값만 남아야 한다.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load zone: %v", err)
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })

	path := writeFile(t, "IMG_0421.heic", heicWithExif(
		"2023:03:12 03:00:00", "2023:03:12 02:30:00", "2023:03:12 02:30:00", "+02:00"))

	got := New().ReadDates(path)
	want := time.Date(2023, 3, 12, 2, 30, 0, 0, time.UTC)
	assertDate(t, "capture", got.CaptureDate, want)
	if got.CaptureDate.Location() != time.UTC {
		t.Fatalf("zone should be dropped, got %v", got.CaptureDate.Location())
	}
}

// TestReadDates_MP4ConvertsUTCToLocal는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_MP4ConvertsUTCToLocal(t *testing.T) {
	created := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	path := writeFile(t, "clip.MOV", mp4WithCreation(created))

	got := New().ReadDates(path)
	assertDate(t, "capture", got.CaptureDate, types.WallClock(created.In(time.Local)))
	if got.DigitizedDate != nil || got.ModifiedDate != nil {
		t.Fatal("video containers only provide a capture date")
	}
}

// TestReadDates_MKVDateUTC는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_MKVDateUTC(t *testing.T) {
	created := time.Date(2018, 11, 12, 13, 14, 15, 0, time.UTC)
	path := writeFile(t, "clip.mkv", mkvWithDate(created))

	got := New().ReadDates(path)
	assertDate(t, "capture", got.CaptureDate, types.WallClock(created.In(time.Local)))
}

// TestReadDates_AVIIditChunk는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_AVIIditChunk(t *testing.T) {
	path := writeFile(t, "MOV00001.AVI", aviWithIDIT("SAT JAN 01 12:34:56 2005\n\x00"))

	got := New().ReadDates(path)
	assertDate(t, "capture", got.CaptureDate, types.WallClock(time.Date(2005, 1, 1, 12, 34, 56, 0, time.UTC).In(time.Local)))
}

// TestReadDates_FilesystemTimes는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_FilesystemTimes(t *testing.T) {
	path := writeFile(t, "notes.jpg", []byte("plain"))
	mtime := time.Date(2015, 5, 5, 5, 5, 5, 500, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	got := New().ReadDates(path)
	if want := types.WallClock(mtime); !got.FilesystemModified.Equal(want) {
		t.Fatalf("modified want=%v got=%v", want, got.FilesystemModified)
	}
	if got.FilesystemCreated.IsZero() {
		t.Fatal("created should fall back to modified when birth time is missing")
	}
	if got.FilesystemCreated.Nanosecond() != 0 {
		t.Fatal("filesystem times should have second precision")
	}
}

// TestReadDates_MissingFile는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReadDates_MissingFile(t *testing.T) {
	got := New().ReadDates(filepath.Join(t.TempDir(), "gone.jpg"))
	if got.CaptureDate != nil || !got.FilesystemModified.IsZero() {
		t.Fatalf("expected empty dates for a missing file, got %+v", got)
	}
}

// TestIsVideo는 테스트 코드 동작을 검증하거나 보조합니다.
func TestIsVideo(t *testing.T) {
	for name, want := range map[string]bool{
		"a.mp4": true, "a.MOV": true, "a.mkv": true, "a.avi": true,
		"a.jpg": false, "a.heic": false, "a.txt": false,
	} {
		if got := IsVideo(name); got != want {
			t.Errorf("%s: want=%v got=%v", name, want, got)
		}
	}
}
