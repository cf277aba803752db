package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta/exif2"
)

// Field is a single label/value pair for metadata display.
type Field struct {
	Group string
	Label string
	Value string
}

// Details holds flattened metadata for the show verb.
type Details struct {
	Path   string
	Fields []Field
}

// ReadDetails reads EXIF tags and formats a user-friendly subset, grouped
// the way the show output prints them.
func ReadDetails(path string) (*Details, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}
	if !SupportedImage(path) {
		return nil, fmt.Errorf("file type is not supported for metadata viewing")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	exif, err := decodeExifSafe(file, path)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	out := &Details{Path: path}

	add := func(group, label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		out.Fields = append(out.Fields, Field{Group: group, Label: label, Value: value})
	}

	add("File", "File name", filepath.Base(path))
	add("File", "Directory", filepath.Dir(path))
	add("File", "Size", humanSize(info.Size()))
	add("File", "Modified", info.ModTime().Local().Format(time.RFC3339))

	capture := exif.DateTimeOriginal()
	createDate := exif.CreateDate()
	modifyDate := exif.ModifyDate()

	if !capture.IsZero() {
		add("Capture", "Captured (local, zone unknown)", formatTS(capture))
	}
	if !createDate.IsZero() && !createDate.Equal(capture) {
		add("Capture", "Digitized", formatTS(createDate))
	}
	if !modifyDate.IsZero() && !modifyDate.Equal(capture) {
		add("Capture", "Modified (EXIF)", formatTS(modifyDate))
	}

	add("Camera", "Make", exif.Make)
	add("Camera", "Model", exif.Model)
	add("Camera", "Serial", exif.CameraSerial)
	add("Camera", "Owner", exif.OwnerName)
	add("Camera", "Artist", exif.Artist)
	add("Camera", "Copyright", exif.Copyright)
	add("Camera", "Software", exif.Software)
	if exif.ImageNumber != 0 {
		add("Camera", "Image number", fmt.Sprintf("%d", exif.ImageNumber))
	}

	add("Lens", "Lens", exif.LensModel)
	add("Lens", "Lens make", exif.LensMake)
	if lens := lensInfoLabel(exif.LensInfo); lens != "" {
		add("Lens", "Lens info", lens)
	}

	if exif.ExposureTime != 0 {
		add("Exposure", "Shutter", exif.ExposureTime.String()+" s")
	}
	if exif.FNumber != 0 {
		add("Exposure", "Aperture", fmt.Sprintf("f/%.1f", exif.FNumber))
	}
	if exif.ISO != 0 {
		add("Exposure", "ISO", fmt.Sprintf("%d", exif.ISO))
	} else if exif.ISOSpeed != 0 {
		add("Exposure", "ISO", fmt.Sprintf("%d", exif.ISOSpeed))
	}
	if exif.FocalLength != 0 {
		add("Exposure", "Focal length", exif.FocalLength.String())
	}
	if exif.Flash != 0 {
		add("Exposure", "Flash", exif.Flash.String())
	}

	if exif.ImageWidth != 0 && exif.ImageHeight != 0 {
		add("Image", "Resolution", fmt.Sprintf("%dx%d", exif.ImageWidth, exif.ImageHeight))
	}
	if exif.Orientation != 0 {
		add("Image", "Orientation", exif.Orientation.String())
	}

	return out, nil
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func lensInfoLabel(info exif2.LensInfo) string {
	if info == (exif2.LensInfo{}) {
		return ""
	}
	get := func(i int) float64 {
		num, den := info[i], info[i+1]
		if den == 0 {
			return 0
		}
		return float64(num) / float64(den)
	}
	minF, maxF := get(0), get(2)
	minA, maxA := get(4), get(6)

	focal := ""
	switch {
	case minF == 0 && maxF == 0:
	case maxF == 0 || minF == maxF:
		focal = fmt.Sprintf("%.1fmm", minF)
	default:
		focal = fmt.Sprintf("%.1f-%.1fmm", minF, maxF)
	}

	aperture := ""
	switch {
	case minA == 0 && maxA == 0:
	case maxA == 0 || minA == maxA:
		aperture = fmt.Sprintf("f/%.1f", minA)
	default:
		aperture = fmt.Sprintf("f/%.1f-%.1f", minA, maxA)
	}

	return strings.TrimSpace(focal + " " + aperture)
}
