package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// NativeReader reads EXIF tags in-process, without exiftool.
type NativeReader struct{}

func (NativeReader) ReadTag(_ context.Context, path string, tag string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", fmt.Errorf("unable to decode EXIF of %v: %w", path, err)
	}

	t, err := x.Get(exif.FieldName(tag))
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return "", nil
		}
		return "", err
	}

	v, err := t.StringVal()
	if err != nil {
		return "", fmt.Errorf("%v of %v is not a string: %w", tag, path, err)
	}

	return strings.TrimSpace(strings.TrimRight(v, "\x00")), nil
}
