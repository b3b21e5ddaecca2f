package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/quadwarp/internal/testutil"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"a.png", true},
		{"a.JPG", true},
		{"dir/b.jpeg", true},
		{"c.bmp", true},
		{"d.tga", true},
		{"e.webp", true},
		{"f.gif", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupported(tt.path))
		})
	}
}

func TestLoad_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grad.png")
	testutil.SaveImage(t, testutil.GradientImage(12, 7), path)

	img, meta, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 12, meta.Width)
	assert.Equal(t, 7, meta.Height)
	assert.Equal(t, path, meta.Path)
	assert.Positive(t, meta.SizeBytes)
	assert.Equal(t, image.Rect(0, 0, 12, 7), img.Bounds())
}

func TestLoad_BMPAndTGA(t *testing.T) {
	src := testutil.GradientImage(9, 5)
	dir := t.TempDir()

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))
	bmpPath := filepath.Join(dir, "grad.bmp")
	require.NoError(t, os.WriteFile(bmpPath, bmpBuf.Bytes(), 0o600))

	var tgaBuf bytes.Buffer
	require.NoError(t, testutil.WriteTGA(&tgaBuf, src))
	tgaPath := filepath.Join(dir, "grad.tga")
	require.NoError(t, os.WriteFile(tgaPath, tgaBuf.Bytes(), 0o600))

	want, err := ToSource(src, 3)
	require.NoError(t, err)

	for _, path := range []string{bmpPath, tgaPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			img, meta, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 9, meta.Width)
			assert.Equal(t, 5, meta.Height)

			got, err := ToSource(img, 3)
			require.NoError(t, err)
			assert.Equal(t, want.Pix, got.Pix)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load("")
	require.Error(t, err)

	_, _, err = Load("image.gif")
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "load", ie.Operation)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorAs(t, err, &ie)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o600))
	_, _, err = Load(bad)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "decode", ie.Operation)
	assert.Equal(t, bad, ie.Path)
	assert.Contains(t, err.Error(), bad)
}

func TestDecodeReader_Limit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testutil.GradientImage(16, 16), FormatPNG))

	_, _, err := DecodeReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")

	img, _, err := DecodeReader(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestToSource_Components(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 128})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	tests := []struct {
		components int
		expected   []byte
	}{
		{1, []byte{76, 18}},
		{2, []byte{76, 128, 18, 255}},
		{3, []byte{255, 0, 0, 10, 20, 30}},
		{4, []byte{255, 0, 0, 128, 10, 20, 30, 255}},
	}
	for _, tt := range tests {
		src, err := ToSource(img, tt.components)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, src.Pix, "components=%d", tt.components)
		assert.Equal(t, 2, src.Width)
		assert.Equal(t, 1, src.Height)
	}

	_, err := ToSource(img, 5)
	assert.ErrorIs(t, err, texmap.ErrComponentCount)
	_, err = ToSource(nil, 4)
	assert.Error(t, err)
}

func TestToSource_SubImage(t *testing.T) {
	full := testutil.GradientImage(8, 8)
	sub := full.SubImage(image.Rect(2, 3, 6, 5))

	src, err := ToSource(sub, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, src.Width)
	assert.Equal(t, 2, src.Height)
	assert.Equal(t, full.Pix[full.PixOffset(2, 3):full.PixOffset(2, 3)+4], src.Pix[:4])
}

func TestToImage(t *testing.T) {
	gray, err := ToImage([]byte{1, 2, 3, 4}, 2, 2, 1)
	require.NoError(t, err)
	_, ok := gray.(*image.Gray)
	assert.True(t, ok)

	ga, err := ToImage([]byte{50, 200}, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 50, G: 50, B: 50, A: 200}, ga.(*image.NRGBA).NRGBAAt(0, 0))

	rgb, err := ToImage([]byte{1, 2, 3}, 1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, rgb.(*image.NRGBA).NRGBAAt(0, 0))

	_, err = ToImage([]byte{1}, 2, 2, 1)
	assert.ErrorIs(t, err, texmap.ErrByteCountMismatch)
	_, err = ToImage(nil, 0, 2, 1)
	assert.ErrorIs(t, err, texmap.ErrInvalidDimensions)
}

func TestRoundTripThroughEngine(t *testing.T) {
	img := testutil.GradientImage(20, 10)
	src, err := ToSource(img, 4)
	require.NoError(t, err)

	res, err := texmap.Blit(texmap.Request{
		Source:       src,
		DestWidth:    20,
		DestHeight:   10,
		Quad:         texmap.UnitQuad,
		OutOfQuad:    texmap.QuadWrap,
		OutOfTexture: texmap.TextureWrap,
	})
	require.NoError(t, err)

	out, err := ResultImage(res)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.(*image.NRGBA).Pix)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, c)

	c, err = ParseColor("00ff0080")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0, G: 255, B: 0, A: 128}, c)

	_, err = ParseColor("#fff")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}
