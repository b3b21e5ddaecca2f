package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// PreviewThumbFraction is the share of the destination width used by the
// source thumbnail in overlay previews.
const PreviewThumbFraction = 0.25

// Output is one warped image.
type Output struct {
	Result *texmap.Result
	// Quad is the quad actually used, in normalized destination space.
	Quad texmap.Quad
	// Source is the (fitted) decoded source; nil for raw sources.
	Source   image.Image
	Metadata imageio.Metadata
	Duration time.Duration
}

// Image wraps the destination bytes as an image.
func (o *Output) Image() (image.Image, error) {
	return imageio.ResultImage(o.Result)
}

// Overlay renders the destination with the quad outline and, when the
// source is known, a thumbnail of it.
func (o *Output) Overlay(col color.Color) (*image.NRGBA, error) {
	img, err := o.Image()
	if err != nil {
		return nil, err
	}
	return imageio.Preview(img, o.Source, o.Quad, col, PreviewThumbFraction), nil
}

// Composite draws the destination over background, which is scaled to the
// destination size. Skipped pixels of a 4-component result stay transparent
// and show the background.
func (o *Output) Composite(background image.Image) (*image.NRGBA, error) {
	img, err := o.Image()
	if err != nil {
		return nil, err
	}
	return imageio.Compose(background, img), nil
}

// Release returns a pooled destination buffer. Safe to call more than once.
func (o *Output) Release() {
	if o != nil {
		o.Result.Release()
	}
}

// ProcessSource warps an already packed raster.
func (p *Pipeline) ProcessSource(src texmap.SourceImage) (*Output, error) {
	start := time.Now()
	req, err := p.Request(src)
	if err != nil {
		return nil, err
	}
	res, err := p.engine.Blit(req)
	if err != nil {
		return nil, fmt.Errorf("blit: %w", err)
	}
	return &Output{Result: res, Quad: req.Quad, Duration: time.Since(start)}, nil
}

// ProcessImage fits, flattens and warps img.
func (p *Pipeline) ProcessImage(img image.Image) (*Output, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	start := time.Now()
	if p.cfg.FitWidth > 0 || p.cfg.FitHeight > 0 {
		img = imageio.Fit(img, p.cfg.FitWidth, p.cfg.FitHeight)
	}
	src, err := imageio.ToSource(img, p.cfg.Components)
	if err != nil {
		return nil, err
	}
	out, err := p.ProcessSource(src)
	if err != nil {
		return nil, err
	}
	out.Source = img
	out.Duration = time.Since(start)
	return out, nil
}

// ProcessFile loads and warps the image at path.
func (p *Pipeline) ProcessFile(path string) (*Output, error) {
	if !imageio.IsSupported(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
	img, meta, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := p.ProcessImage(img)
	if err != nil {
		return nil, fmt.Errorf("warp %s: %w", path, err)
	}
	out.Metadata = meta
	slog.Debug("Warped image",
		"file", path,
		"src_width", meta.Width, "src_height", meta.Height,
		"dest_width", out.Result.Width, "dest_height", out.Result.Height,
		"skipped", out.Result.Stats.Skipped,
		"duration", out.Duration)
	return out, nil
}
