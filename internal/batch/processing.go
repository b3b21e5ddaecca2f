package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
)

// outputPath maps an input to its file in outDir, keeping the relative
// directory and replacing the extension.
func outputPath(outDir string, in inputFile, format imageio.Format, suffix string) string {
	rel := strings.TrimSuffix(in.Rel, filepath.Ext(in.Rel))
	return filepath.Join(outDir, rel+suffix+format.Extension())
}

// planOutputs computes every output path up front and rejects inputs that
// would overwrite each other.
func planOutputs(files []inputFile, cfg *Config) ([]string, error) {
	outputs := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		out := outputPath(cfg.OutputDir, f, cfg.Format, cfg.Suffix)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("inputs %s and %s both map to %s", prev, f.Path, out)
		}
		seen[out] = f.Path
		outputs[i] = out
	}
	return outputs, nil
}

// saveOutput writes one warped image, as an overlay preview when requested.
func saveOutput(out *pipeline.Output, dst string, cfg *Config) error {
	if !cfg.Overlay {
		return imageio.SaveResult(dst, out.Result, cfg.Format)
	}
	ov, err := out.Overlay(cfg.OverlayColor)
	if err != nil {
		return err
	}
	return imageio.Save(dst, ov, cfg.Format)
}
