package testutil

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CoordPix returns a 2-component raster where each pixel stores its own
// coordinates: byte 0 is x, byte 1 is y. Width and height must be <= 256.
func CoordPix(width, height int) []byte {
	pix := make([]byte, width*height*2)
	for y := range height {
		for x := range width {
			o := (y*width + x) * 2
			pix[o] = byte(x)
			pix[o+1] = byte(y)
		}
	}
	return pix
}

// GradientPix returns a smooth raster: channel 0 rises with x, channel 1
// with y, channel 2 is their mean and channel 3 is opaque.
func GradientPix(width, height, components int) []byte {
	pix := make([]byte, width*height*components)
	for y := range height {
		for x := range width {
			gx := byte(x * 255 / max(width-1, 1))
			gy := byte(y * 255 / max(height-1, 1))
			px := [4]byte{gx, gy, byte((int(gx) + int(gy)) / 2), 255}
			copy(pix[(y*width+x)*components:], px[:components])
		}
	}
	return pix
}

// FillPix returns a raster with every byte set to v.
func FillPix(width, height, components int, v byte) []byte {
	pix := make([]byte, width*height*components)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

// MeanAbsDiff returns the mean absolute byte difference of two equally
// sized buffers.
func MeanAbsDiff(a, b []byte) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(len(a))
}

// GradientImage returns an NRGBA image with GradientPix content.
func GradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, GradientPix(width, height, 4))
	return img
}

// CreateTestImage creates a uniformly coloured test image.
func CreateTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	return img
}

// SaveImage writes img as PNG, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	f, err := os.Create(path) //nolint:gosec // G304: test file creation with controlled path
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	require.NoError(t, png.Encode(f, img))
}

// LoadImage decodes the PNG at path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec // G304: test file reading with controlled path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

// WriteTGA writes img as an uncompressed 32-bit true-colour TGA
// (bottom-left origin). Used to produce fixtures for the TGA decoder.
func WriteTGA(w io.Writer, img image.Image) error {
	b := img.Bounds()
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true-colour
	binary.LittleEndian.PutUint16(header[12:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(header[14:], uint16(b.Dy()))
	header[16] = 32
	header[17] = 8 // 8 alpha bits
	if _, err := w.Write(header); err != nil {
		return err
	}
	row := make([]byte, b.Dx()*4)
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			o := (x - b.Min.X) * 4
			row[o], row[o+1], row[o+2], row[o+3] = c.B, c.G, c.R, c.A
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
