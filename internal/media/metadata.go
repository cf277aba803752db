package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
)

// Metadata is the subset of photo metadata the renaming pipeline consumes.
// LocalTime is the naive wall-clock capture reading exactly as the camera
// stored it; cameras write local time with no zone, so interpretation is
// deferred to the timezone resolver.
type Metadata struct {
	LocalTime   time.Time
	SubSec      string // first subsecond digit, "" when the camera wrote none
	CameraMake  string
	CameraModel string
	Artist      string
}

// ReadMetadata extracts capture time and device identity from an image file.
func ReadMetadata(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	exif, err := decodeExifSafe(file, path)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}

	ts := exif.DateTimeOriginal()
	if ts.IsZero() {
		ts = exif.CreateDate()
	}
	if ts.IsZero() {
		return Metadata{}, fmt.Errorf("capture time not found in metadata")
	}

	return Metadata{
		LocalTime:   ts,
		SubSec:      subSecDigit(ts),
		CameraMake:  strings.TrimSpace(exif.Make),
		CameraModel: strings.TrimSpace(exif.Model),
		Artist:      strings.TrimSpace(exif.Artist),
	}, nil
}

// subSecDigit keeps one digit of subsecond precision. More would be noise;
// one is enough to tell apart frames from the same second of a burst.
func subSecDigit(ts time.Time) string {
	ns := ts.Nanosecond()
	if ns == 0 {
		return ""
	}
	return strconv.Itoa(ns / 100_000_000)
}

// decodeExifSafe protects against panics from the decoder on malformed files.
func decodeExifSafe(r io.ReadSeeker, path string) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	ex, err = imagemeta.Decode(r)
	return ex, err
}

// SupportedImage reports whether the path has an extension the EXIF decoder
// handles.
func SupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExt[ext]
}

var imageExt = map[string]bool{
	// processed formats
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".heif": true,
	".hif":  true,
	".avif": true,
	// RAW formats
	".3fr": true, // Hasselblad
	".arw": true, // Sony
	".cr2": true, // Canon
	".cr3": true, // Canon
	".dng": true, // Adobe DNG
	".erf": true, // Epson
	".kdc": true, // Kodak
	".mrw": true, // Minolta
	".nef": true, // Nikon
	".nrw": true, // Nikon
	".orf": true, // Olympus
	".pef": true, // Pentax
	".raf": true, // Fujifilm
	".raw": true, // Panasonic/Leica generic
	".rw2": true, // Panasonic
	".rwl": true, // Leica
	".sr2": true, // Sony
	".srf": true, // Sony
	".srw": true, // Samsung
	".x3f": true, // Sigma
}
