package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/spf13/cobra"
)

// addWarpOptionFlags registers the engine and output flags shared by warp,
// batch and serve.
func addWarpOptionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("resolver", "bilinear", "UV resolver: bilinear or barycentric")
	flags.String("out-of-quad", "skip", "pixels outside the quad: wrap, clamp or skip")
	flags.String("out-of-texture", "clamp", "UVs outside the texture: wrap or clamp")
	flags.Int("components", 4, "bytes per pixel of source and destination (1-4)")
	flags.Bool("debug-uv", false, "render the resolved UV field instead of sampling the source")
	flags.Int("threads", 0, "row-band workers per image (0 = number of CPUs)")
	flags.StringP("format", "f", "png", "output format: png, jpeg, webp, raw")
	flags.Bool("overlay", false, "draw the quad outline and a source thumbnail onto the output")
	flags.String("overlay-color", "#FF0000", "overlay outline color (hex)")
}

// applyWarpOptionFlags copies explicitly set flags over the loaded
// configuration, keeping config file and environment values otherwise.
func applyWarpOptionFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("resolver") {
		cfg.Warp.Resolver, _ = flags.GetString("resolver")
	}
	if flags.Changed("out-of-quad") {
		cfg.Warp.OutOfQuad, _ = flags.GetString("out-of-quad")
	}
	if flags.Changed("out-of-texture") {
		cfg.Warp.OutOfTexture, _ = flags.GetString("out-of-texture")
	}
	if flags.Changed("components") {
		cfg.Warp.Components, _ = flags.GetInt("components")
	}
	if flags.Changed("debug-uv") {
		cfg.Warp.DebugUV, _ = flags.GetBool("debug-uv")
	}
	if flags.Changed("threads") {
		cfg.Warp.Workers, _ = flags.GetInt("threads")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("overlay") {
		cfg.Output.Overlay, _ = flags.GetBool("overlay")
	}
	if flags.Changed("overlay-color") {
		cfg.Output.OverlayColor, _ = flags.GetString("overlay-color")
	}
}

// addQuadFlags registers the flags describing the quad and destination.
func addQuadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("corners", "", `quad corners "x,y;x,y;x,y;x,y" (top-left, top-right, bottom-left, bottom-right)`)
	flags.String("space", "pixels", "coordinate space of --corners: pixels or unit")
	flags.Int("width", 0, "destination width (default: source width)")
	flags.Int("height", 0, "destination height (default: source height)")
	flags.String("uvs", "", "per-corner texture coordinates in the --corners format")
	flags.String("fit", "", "downscale sources to fit WxH before warping")
}

// buildPipeline creates the warp pipeline from cfg and the quad flags.
func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
	opts, err := cfg.ToWarpOptions()
	if err != nil {
		return nil, err
	}
	b := pipeline.NewBuilder().
		WithWarpOptions(opts).
		WithEngineConfig(cfg.ToTexmapConfig()).
		WithAllocator(texmap.PoolAllocator{})

	flags := cmd.Flags()
	spaceName, _ := flags.GetString("space")
	space, err := pipeline.ParseCornerSpace(spaceName)
	if err != nil {
		return nil, err
	}
	if s, _ := flags.GetString("corners"); s != "" {
		corners, err := pipeline.ParseCorners(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --corners: %w", err)
		}
		b.WithCorners(corners, space)
	}

	width, _ := flags.GetInt("width")
	height, _ := flags.GetInt("height")
	b.WithDestSize(width, height)

	if s, _ := flags.GetString("uvs"); s != "" {
		uvs, err := pipeline.ParseUVs(s)
		if err != nil {
			return nil, err
		}
		b.WithUVs(uvs)
	}

	if s, _ := flags.GetString("fit"); s != "" {
		w, h, err := parseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --fit: %w", err)
		}
		b.WithFit(w, h)
	}

	return b.Build()
}

// parseSize parses "WxH" into positive dimensions.
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q", w)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q", h)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size must be positive, got %dx%d", width, height)
	}
	return width, height, nil
}

// outputFormat resolves the encoding of a single output file: an explicit
// --format wins, then the extension of path, then the configured format.
func outputFormat(cmd *cobra.Command, cfg *config.Config, path string) (imageio.Format, error) {
	configured := imageio.FormatPNG
	if cfg.Output.Format != "" {
		f, err := imageio.ParseFormat(cfg.Output.Format)
		if err != nil {
			return "", err
		}
		configured = f
	}
	if cmd.Flags().Changed("format") || path == "" || path == "-" {
		return configured, nil
	}
	return imageio.FormatFromPath(path, configured), nil
}
