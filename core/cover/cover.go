// Package cover inspects cover art exported from a FLAC file before it is
// re-imported into a repaired candidate.
package cover

import (
	"bytes"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// Info describes an exported cover image.
type Info struct {
	Size   int64
	IsJPEG bool
	// HasGPS reports location EXIF in the cover. Embedded covers are often
	// phone photos with the GPS tags still intact, which is worth surfacing
	// before the picture gets written back.
	HasGPS bool
}

// Inspect sniffs the exported picture at path.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	var info Info
	if st, err := f.Stat(); err == nil {
		info.Size = st.Size()
	}

	magic := make([]byte, 3)
	if _, err := io.ReadFull(f, magic); err != nil {
		return info, nil
	}
	info.IsJPEG = bytes.Equal(magic, jpegMagic)
	if !info.IsJPEG {
		return info, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return info, nil
	}
	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF at all is the common case for cover art.
		return info, nil
	}
	if _, _, err := x.LatLong(); err == nil {
		info.HasGPS = true
	}
	return info, nil
}
