package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// HandleRadius is the half size of the square drawn on each quad corner.
const HandleRadius = 3

// DrawQuadOutline draws the quad's perimeter and a square handle on every
// corner. The quad is in normalized destination space and is scaled to
// dst's bounds.
func DrawQuadOutline(dst *image.NRGBA, quad texmap.Quad, col color.Color, thickness int) {
	b := dst.Bounds()
	pts := quad.ToPixels(b.Dx(), b.Dy())
	outline := [4]image.Point{}
	for i, c := range texmap.Quad(pts).Outline() {
		outline[i] = image.Pt(b.Min.X+int(math.Round(c.X)), b.Min.Y+int(math.Round(c.Y)))
	}
	for i := range outline {
		drawLine(dst, outline[i], outline[(i+1)%len(outline)], col, thickness)
	}
	for _, p := range outline {
		drawThickPoint(dst, p.X, p.Y, col, 2*HandleRadius+1)
	}
}

// drawLine draws a line between two points using a simple Bresenham variant.
func drawLine(dst *image.NRGBA, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(dst *image.NRGBA, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Preview renders the outline view of a warp: the destination with the quad
// drawn over it and a thumbnail of the source in the top-left corner.
// thumbFraction is the thumbnail's share of the destination width (0 hides it).
func Preview(warped image.Image, source image.Image, quad texmap.Quad, col color.Color, thumbFraction float64) *image.NRGBA {
	canvas := imaging.Clone(warped)
	DrawQuadOutline(canvas, quad, col, 1)

	if source == nil || thumbFraction <= 0 {
		return canvas
	}
	cb := canvas.Bounds()
	sb := source.Bounds()
	tw := int(float64(cb.Dx()) * math.Min(thumbFraction, 1))
	th := tw * sb.Dy() / max(sb.Dx(), 1)
	if tw < 1 || th < 1 {
		return canvas
	}
	if th > cb.Dy() {
		th = cb.Dy()
	}
	thumb := image.Rect(cb.Min.X, cb.Min.Y, cb.Min.X+tw, cb.Min.Y+th)
	xdraw.ApproxBiLinear.Scale(canvas, thumb, source, sb, xdraw.Over, nil)
	drawRect(canvas, thumb, col)
	return canvas
}

// Compose draws fg over background, scaling the background to fg's size.
func Compose(background, fg image.Image) *image.NRGBA {
	fb := fg.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), background, background.Bounds(), xdraw.Src, nil)
	xdraw.Draw(canvas, canvas.Bounds(), fg, fb.Min, xdraw.Over)
	return canvas
}

func drawRect(dst *image.NRGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, col)
		dst.Set(x, r.Max.Y-1, col)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, col)
		dst.Set(r.Max.X-1, y, col)
	}
}
