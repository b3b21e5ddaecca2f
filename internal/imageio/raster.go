package imageio

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/disintegration/imaging"
)

// ToSource flattens img into a packed raster with the given number of
// components: 1 gray, 2 gray+alpha, 3 RGB, 4 RGBA (non-premultiplied).
func ToSource(img image.Image, components int) (texmap.SourceImage, error) {
	if img == nil {
		return texmap.SourceImage{}, &Error{Operation: "convert", Err: fmt.Errorf("input image is nil")}
	}
	if components < 1 || components > 4 {
		return texmap.SourceImage{}, &Error{Operation: "convert", Err: fmt.Errorf("%w: got %d", texmap.ErrComponentCount, components)}
	}

	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if components == 4 {
		pix := make([]byte, w*h*4)
		for y := range h {
			copy(pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
		}
		return texmap.SourceImage{Width: w, Height: h, Components: 4, Pix: pix}, nil
	}

	pix := make([]byte, w*h*components)
	for y := range h {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := range w {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			o := (y*w + x) * components
			switch components {
			case 1:
				pix[o] = luma(r, g, b)
			case 2:
				pix[o] = luma(r, g, b)
				pix[o+1] = a
			case 3:
				pix[o], pix[o+1], pix[o+2] = r, g, b
			}
		}
	}
	return texmap.SourceImage{Width: w, Height: h, Components: components, Pix: pix}, nil
}

// luma uses the ITU-R 601 weights, matching color.GrayModel.
func luma(r, g, b byte) byte {
	return byte((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// ToImage wraps a packed raster as an image. One component becomes
// *image.Gray; everything else becomes *image.NRGBA with missing channels
// filled in (gray replicated, alpha opaque).
func ToImage(pix []byte, width, height, components int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &Error{Operation: "convert", Err: fmt.Errorf("%w: %dx%d", texmap.ErrInvalidDimensions, width, height)}
	}
	if components < 1 || components > 4 {
		return nil, &Error{Operation: "convert", Err: fmt.Errorf("%w: got %d", texmap.ErrComponentCount, components)}
	}
	if len(pix) < width*height*components {
		return nil, &Error{Operation: "convert", Err: fmt.Errorf("%w: want %d bytes, got %d",
			texmap.ErrByteCountMismatch, width*height*components, len(pix))}
	}

	rect := image.Rect(0, 0, width, height)
	switch components {
	case 1:
		g := image.NewGray(rect)
		copy(g.Pix, pix[:width*height])
		return g, nil
	case 4:
		n := image.NewNRGBA(rect)
		copy(n.Pix, pix[:width*height*4])
		return n, nil
	}

	n := image.NewNRGBA(rect)
	for i := range width * height {
		s := pix[i*components:]
		d := n.Pix[i*4 : i*4+4]
		if components == 2 {
			d[0], d[1], d[2], d[3] = s[0], s[0], s[0], s[1]
		} else {
			d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 255
		}
	}
	return n, nil
}

// ResultImage wraps the bytes of a blit result as an image.
func ResultImage(res *texmap.Result) (image.Image, error) {
	return ToImage(res.Bytes, res.Width, res.Height, res.Components)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" (the leading # is optional).
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
