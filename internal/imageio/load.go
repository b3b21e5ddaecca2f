// Package imageio converts between image files and the tightly packed rasters
// the warp engine works on.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tga", ".webp"}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Metadata captures lightweight file and pixel information.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, &Error{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupported(path) {
		return nil, Metadata{}, &Error{Operation: "load", Path: path, Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, Metadata{}, &Error{Operation: "load", Path: path, Err: err}
	}

	img, meta, err := Decode(data)
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			ie.Path = path
		}
		return nil, Metadata{}, err
	}
	meta.Path = path
	return img, meta, nil
}

// decoders are tried by magic number. TGA has no magic and is the fallback.
var decoders = []struct {
	format string
	match  func([]byte) bool
	decode func(io.Reader) (image.Image, error)
}{
	{"png", func(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")) }, png.Decode},
	{"jpeg", func(b []byte) bool { return bytes.HasPrefix(b, []byte{0xff, 0xd8}) }, jpeg.Decode},
	{"bmp", func(b []byte) bool { return bytes.HasPrefix(b, []byte("BM")) }, bmp.Decode},
	{"webp", func(b []byte) bool {
		return len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP"))
	}, webp.Decode},
	{"tga", func([]byte) bool { return true }, tga.Decode},
}

// Decode decodes an in-memory image. The format is detected from its
// leading bytes rather than through image.Decode, so the registration order
// of format packages does not matter.
func Decode(data []byte) (image.Image, Metadata, error) {
	if len(data) == 0 {
		return nil, Metadata{}, &Error{Operation: "decode", Err: errors.New("empty input")}
	}
	for _, d := range decoders {
		if !d.match(data) {
			continue
		}
		img, err := d.decode(bytes.NewReader(data))
		if err != nil {
			return nil, Metadata{}, &Error{Operation: "decode", Err: fmt.Errorf("%s: %w", d.format, err)}
		}
		b := img.Bounds()
		if b.Empty() {
			return nil, Metadata{}, &Error{Operation: "decode", Err: fmt.Errorf("%s: empty image", d.format)}
		}
		return img, Metadata{
			Format:    d.format,
			SizeBytes: int64(len(data)),
			Width:     b.Dx(),
			Height:    b.Dy(),
		}, nil
	}
	return nil, Metadata{}, &Error{Operation: "decode", Err: errors.New("unknown format")}
}

// DecodeReader reads r fully and decodes it. limit caps the number of bytes
// read; zero means no limit.
func DecodeReader(r io.Reader, limit int64) (image.Image, Metadata, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Metadata{}, &Error{Operation: "read", Err: err}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, Metadata{}, &Error{Operation: "read", Err: fmt.Errorf("image exceeds %d bytes", limit)}
	}
	return Decode(data)
}

// Fit scales img down to fit within maxWidth x maxHeight, keeping its aspect
// ratio. Images that already fit are returned unchanged. A non-positive
// bound disables scaling on that axis.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 {
		maxWidth = b.Dx()
	}
	if maxHeight <= 0 {
		maxHeight = b.Dy()
	}
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}
