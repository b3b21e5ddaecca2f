package cmd

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/spf13/cobra"
)

// warpCmd warps a single image.
var warpCmd = &cobra.Command{
	Use:   "warp <image>",
	Short: "Warp a single image through a quad",
	Long: `Warp one image through a four-corner quad and write the result.

Corners are given top-left, top-right, bottom-left, bottom-right. With
--space pixels (the default) they are destination pixel positions, with
--space unit they are fractions of the destination size. Without --corners
the whole source is mapped onto the whole destination.

Examples:
  quadwarp warp photo.png --corners "40,20;600,60;10,470;620,440" -o out.png
  quadwarp warp photo.jpg --corners "0,0;0.5,0;0,1;0.5,1" --space unit --out-of-quad clamp
  quadwarp warp photo.png --width 256 --height 256 --format raw -o -
  quadwarp warp logo.png --corners "0.1,0.1;0.6,0.2;0.1,0.7;0.6,0.8" --space unit --background wall.jpg`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runWarpCommand,
}

func runWarpCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyWarpOptionFlags(cmd, cfg)

	pl, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	input := args[0]
	outPath, _ := cmd.Flags().GetString("output")
	format, err := outputFormat(cmd, cfg, outPath)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = defaultOutputPath(input, format)
	}

	out, err := pl.ProcessFile(input)
	if err != nil {
		return err
	}
	defer out.Release()

	background, _ := cmd.Flags().GetString("background")
	if err := writeOutput(cmd.OutOrStdout(), out, outPath, format, cfg, background); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if outPath != "-" && !quiet {
		res := out.Result
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Warped %s -> %s (%dx%d, %d written, %d skipped) in %v\n",
			input, outPath, res.Width, res.Height, res.Stats.Written, res.Stats.Skipped,
			out.Duration.Round(time.Millisecond))
	}
	return nil
}

// defaultOutputPath places the result next to the input with a _warped suffix.
func defaultOutputPath(input string, format imageio.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_warped" + format.Extension()
}

// writeOutput encodes out to path, or to stdout when path is "-". A background
// or overlay turns the raw destination into a composed RGBA image first.
func writeOutput(stdout io.Writer, out *pipeline.Output, path string, format imageio.Format,
	cfg *config.Config, background string) error {
	if background == "" && !cfg.Output.Overlay {
		if path == "-" {
			return imageio.EncodeResult(stdout, out.Result, format)
		}
		return imageio.SaveResult(path, out.Result, format)
	}

	var img image.Image
	var err error
	if background != "" {
		bg, _, lerr := imageio.Load(background)
		if lerr != nil {
			return fmt.Errorf("failed to load background: %w", lerr)
		}
		img, err = out.Composite(bg)
	} else {
		img, err = out.Image()
	}
	if err != nil {
		return err
	}

	if cfg.Output.Overlay {
		col := color.NRGBA{R: 255, A: 255}
		if cfg.Output.OverlayColor != "" {
			c, err := imageio.ParseColor(cfg.Output.OverlayColor)
			if err != nil {
				return err
			}
			col = c
		}
		img = imageio.Preview(img, out.Source, out.Quad, col, pipeline.PreviewThumbFraction)
	}

	if path == "-" {
		return imageio.Encode(stdout, img, format)
	}
	return imageio.Save(path, img, format)
}

func init() {
	rootCmd.AddCommand(warpCmd)

	addQuadFlags(warpCmd)
	addWarpOptionFlags(warpCmd)
	warpCmd.Flags().StringP("output", "o", "", `output file, "-" for stdout (default: <input>_warped.<ext>)`)
	warpCmd.Flags().BoolP("quiet", "q", false, "do not print a summary line")
	warpCmd.Flags().String("background", "", "image to composite the result over (scaled to the destination size)")
}
