package imageio

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/disintegration/imaging"
)

// Format selects the encoding of a warp result.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	// FormatRaw writes the packed destination bytes without a header.
	FormatRaw Format = "raw"
)

// DefaultJPEGQuality is used when encoding JPEG output.
const DefaultJPEGQuality = 92

// ParseFormat parses a format name. "jpg" is accepted as an alias of "jpeg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	case "raw":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be one of: png, jpeg, webp, raw)", s)
	}
}

// FormatFromPath infers the output format from a file extension, falling
// back to fallback when the extension is unknown.
func FormatFromPath(path string, fallback Format) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return fallback
}

// Extension returns the file extension (with dot) for f.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatRaw:
		return ".raw"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	case FormatRaw:
		return "application/octet-stream"
	default:
		return "image/png"
	}
}

// Encode writes img to w. FormatRaw writes the image flattened to 4
// components; use EncodeResult to keep a result's own component count.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(DefaultJPEGQuality))
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatRaw:
		var src texmap.SourceImage
		if src, err = ToSource(img, 4); err == nil {
			_, err = w.Write(src.Pix)
		}
	default:
		err = fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return &Error{Operation: "encode", Err: err}
	}
	return nil
}

// EncodeResult writes the destination of a blit to w.
func EncodeResult(w io.Writer, res *texmap.Result, format Format) error {
	if res == nil || res.Bytes == nil {
		return &Error{Operation: "encode", Err: errors.New("no result bytes")}
	}
	if format == FormatRaw {
		if _, err := w.Write(res.Bytes[:res.ByteCount]); err != nil {
			return &Error{Operation: "encode", Err: err}
		}
		return nil
	}
	img, err := ResultImage(res)
	if err != nil {
		return err
	}
	return Encode(w, img, format)
}

// Save encodes img to path, creating parent directories as needed.
func Save(path string, img image.Image, format Format) error {
	return saveWith(path, func(w io.Writer) error { return Encode(w, img, format) })
}

// SaveResult encodes a blit result to path.
func SaveResult(path string, res *texmap.Result, format Format) error {
	return saveWith(path, func(w io.Writer) error { return EncodeResult(w, res, format) })
}

func saveWith(path string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &Error{Operation: "save", Path: path, Err: err}
		}
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path is user-provided
	if err != nil {
		return &Error{Operation: "save", Path: path, Err: err}
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		var ie *Error
		if errors.As(err, &ie) {
			ie.Path = path
		}
		return err
	}
	if err := f.Close(); err != nil {
		return &Error{Operation: "save", Path: path, Err: err}
	}
	return nil
}
