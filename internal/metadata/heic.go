package metadata

import (
	"io"
	"os"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
)

func readHEIC(path string) embeddedDates {
	f, err := os.Open(path)
	if err != nil {
		return embeddedDates{}
	}
	defer f.Close()

	x, err := decodeHEIC(f)
	if err != nil {
		return embeddedDates{}
	}

	// imagemeta attaches a zone from OffsetTime tags when present; the model
	// only keeps the wall clock as recorded by the camera.
	return embeddedDates{
		original:  wallClock(x.DateTimeOriginal()),
		digitized: wallClock(x.CreateDate()),
		modified:  wallClock(x.ModifyDate()),
	}
}

// decodeHEIC guards against decoder panics on malformed files.
func decodeHEIC(r io.ReadSeeker) (x exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errDecoderPanic
		}
	}()
	return imagemeta.Decode(r)
}
