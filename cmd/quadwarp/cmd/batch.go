package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/batch"
	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command for parallel image warping.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Warp many images in parallel with the same quad",
	Long: `Warp every discovered image with the same quad and write the results to an
output directory. Directories are scanned for supported images (PNG, JPEG,
BMP, WebP, TGA); relative paths are kept below the output directory.

Examples:
  quadwarp batch images/ --corners "0,0;0.5,0;0,1;0.5,1" --space unit
  quadwarp batch a.png b.jpg --output-dir out --format webp --workers 8
  quadwarp batch scans/ --recursive --exclude "*_thumb.*" --report-format json --report report.json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps the application configuration plus CLI overrides
// to batch.Config.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Batch.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("recursive") {
		cfg.Batch.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("continue-on-error") {
		cfg.Batch.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("output-dir") {
		cfg.Batch.OutputDir, _ = flags.GetString("output-dir")
	}

	batchConfig, err := batch.FromAppConfig(*cfg)
	if err != nil {
		return nil, err
	}

	// File discovery, naming and progress settings are CLI-only.
	batchConfig.IncludePatterns, _ = flags.GetStringSlice("include")
	batchConfig.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	if flags.Changed("suffix") {
		batchConfig.Suffix, _ = flags.GetString("suffix")
	}
	batchConfig.ShowProgress, _ = flags.GetBool("progress")
	batchConfig.Quiet, _ = flags.GetBool("quiet")
	batchConfig.ProgressInterval, _ = flags.GetDuration("progress-interval")

	return batchConfig, nil
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyWarpOptionFlags(cmd, cfg)

	batchConfig, err := configToBatchConfig(cfg, cmd)
	if err != nil {
		return err
	}
	pl, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if !batchConfig.Quiet {
		_, _ = fmt.Fprintf(out, "Warping %d inputs into %s...\n", len(args), batchConfig.OutputDir)
	}

	result, err := batch.ProcessBatch(ctx, args, batchConfig, pl)
	if err != nil {
		return err
	}

	reportFormat, _ := cmd.Flags().GetString("report-format")
	reportFile, _ := cmd.Flags().GetString("report")
	if !batchConfig.Quiet || reportFile != "" {
		if err := result.SaveResults(out, reportFormat, reportFile); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats && !batchConfig.Quiet {
		result.PrintStats(out)
	}

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(result.Files))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addQuadFlags(batchCmd)
	addWarpOptionFlags(batchCmd)

	// Parallel processing flags
	batchCmd.Flags().IntP("workers", "w", 4, fmt.Sprintf("number of images warped in parallel (CPUs: %d)", runtime.NumCPU()))
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when an image fails")

	// Output flags
	batchCmd.Flags().StringP("output-dir", "d", "warped", "directory for warped images")
	batchCmd.Flags().String("suffix", batch.DefaultSuffix, "suffix appended to every output file name")
	batchCmd.Flags().String("report-format", "text", "report format: text, json, csv")
	batchCmd.Flags().StringP("report", "o", "", "report file (default: stdout)")

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", []string{}, "file patterns to include (default: all supported images)")
	batchCmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")

	// Progress and monitoring flags
	batchCmd.Flags().Bool("progress", false, "show progress on stderr")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress and report output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")
	batchCmd.Flags().Duration("progress-interval", 100*time.Millisecond, "progress update interval")
}
