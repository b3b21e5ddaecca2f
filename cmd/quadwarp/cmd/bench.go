package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/quadwarp/internal/benchmark"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure blit throughput for each resolver",
	Long: `Time repeated blits of a synthetic gradient through a fixed set of quad
shapes (identity, trapezoid, inset) and report the average time, the
destination throughput in megapixels per second and the allocation per blit.

Examples:
  quadwarp bench
  quadwarp bench --size 1920x1080 --iterations 20 --threads 4
  quadwarp bench --resolver barycentric --pooled`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBenchCommand,
}

func runBenchCommand(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opts := benchmark.DefaultBlitOptions()

	size, _ := flags.GetString("size")
	w, h, err := parseSize(size)
	if err != nil {
		return fmt.Errorf("invalid --size: %w", err)
	}
	opts.Width, opts.Height = w, h
	opts.Components, _ = flags.GetInt("components")
	opts.Workers, _ = flags.GetInt("threads")
	opts.Pooled, _ = flags.GetBool("pooled")
	if flags.Changed("resolver") {
		opts.Resolvers, _ = flags.GetStringSlice("resolver")
	}

	iterations, _ := flags.GetInt("iterations")
	if iterations < 1 {
		return fmt.Errorf("--iterations must be positive, got %d", iterations)
	}

	suite, err := benchmark.NewBlitSuite(opts)
	if err != nil {
		return err
	}

	slog.Debug("Running blit benchmarks", "size", size, "iterations", iterations, "cases", len(suite.Names()))
	results := suite.RunAll(iterations)
	suite.PrintResults(cmd.OutOrStdout())

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("benchmark %s failed: %w", r.Name, r.Error)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().String("size", "512x512", "source and destination size as WxH")
	benchCmd.Flags().Int("iterations", 10, "blits per case")
	benchCmd.Flags().Int("components", 4, "bytes per pixel (1-4)")
	benchCmd.Flags().Int("threads", 0, "row-band workers per blit (0 = number of CPUs)")
	benchCmd.Flags().StringSlice("resolver", nil, "resolvers to time (default bilinear,barycentric)")
	benchCmd.Flags().Bool("pooled", false, "render into pooled buffers and release each result")
}
