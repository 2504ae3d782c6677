package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// exiftool names some EXIF fields differently from the EXIF specification.
var exiftoolNames = map[string]string{
	"DateTimeDigitized": "CreateDate",
}

var summary = regexp.MustCompile(`(\d+) image files (updated|unchanged)`)

// ExifTool reads and writes EXIF tags by shelling out to exiftool, one call per file.
type ExifTool struct {
	Binary  string
	Timeout time.Duration
}

func NewExifTool(timeout time.Duration) *ExifTool {
	return &ExifTool{Binary: "exiftool", Timeout: timeout}
}

// ReadTag returns the value of the EXIF tag, or an empty string when the file has none.
func (e *ExifTool) ReadTag(ctx context.Context, path string, tag string) (string, error) {
	out, err := run(ctx, e.Timeout, e.Binary, "-s3", "-EXIF:"+exiftoolName(tag), fileArg(path))
	if err != nil {
		return "", err
	}

	return firstLine(out), nil
}

// WriteTag sets the EXIF tag to value, rewriting the file in place.
func (e *ExifTool) WriteTag(ctx context.Context, path string, tag string, value string) error {
	arg := fmt.Sprintf("-EXIF:%s=%s", exiftoolName(tag), value)

	out, err := run(ctx, e.Timeout, e.Binary, "-overwrite_original", arg, fileArg(path))
	if err != nil {
		return err
	}

	if touched := ParseWriteSummary(out); touched == 0 {
		return fmt.Errorf("%v did not update %v: %v", e.Binary, path, firstLine(out))
	}

	return nil
}

// ParseWriteSummary returns how many files exiftool reports as updated or already up to date.
func ParseWriteSummary(out []byte) int {
	var n int
	for _, m := range summary.FindAllSubmatch(out, -1) {
		count, err := strconv.Atoi(string(m[1]))
		if err == nil {
			n += count
		}
	}
	return n
}

func exiftoolName(tag string) string {
	if name, ok := exiftoolNames[tag]; ok {
		return name
	}
	return tag
}
