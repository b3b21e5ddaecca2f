package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBatchInputs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		testutil.SaveImage(t, testutil.GradientImage(6, 4), filepath.Join(dir, name))
	}
}

func TestConfigToBatchConfig(t *testing.T) {
	require.NoError(t, batchCmd.Flags().Set("workers", "2"))
	require.NoError(t, batchCmd.Flags().Set("output-dir", "out"))
	require.NoError(t, batchCmd.Flags().Set("include", "*.png"))
	require.NoError(t, batchCmd.Flags().Set("suffix", "_q"))
	require.NoError(t, batchCmd.Flags().Set("quiet", "true"))
	t.Cleanup(func() { resetFlags(batchCmd) })

	cfg := config.DefaultConfig()
	cfg.Output.Format = "webp"
	bc, err := configToBatchConfig(&cfg, batchCmd)
	require.NoError(t, err)

	assert.Equal(t, 2, bc.Workers)
	assert.Equal(t, "out", bc.OutputDir)
	assert.Equal(t, []string{"*.png"}, bc.IncludePatterns)
	assert.Equal(t, "_q", bc.Suffix)
	assert.Equal(t, imageio.FormatWebP, bc.Format)
	assert.True(t, bc.Quiet)
	assert.False(t, bc.Recursive, "config value kept when the flag is unset")
	assert.Equal(t, 100*time.Millisecond, bc.ProgressInterval)
}

func TestBatchCommand_Directory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "warped")
	writeBatchInputs(t, in, "a.png", "b.png", "c.png")
	report := filepath.Join(t.TempDir(), "report.json")

	output, err := executeCommand(t, "batch", in,
		"--corners", "0,0;0.5,0;0,1;0.5,1", "--space", "unit",
		"--output-dir", out, "--workers", "2",
		"--report-format", "json", "--report", report, "--stats")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Processing Statistics:")

	for _, name := range []string{"a_warped.png", "b_warped.png", "c_warped.png"} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Contains(t, parsed, "files")
}

func TestBatchCommand_ContinueOnError(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "warped")
	writeBatchInputs(t, in, "good.png")
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o600))

	output, err := executeCommand(t, "batch", in, "--output-dir", out, "--continue-on-error", "--quiet")
	require.Error(t, err)
	assert.Contains(t, output, "1 of 2 images failed")
	assert.FileExists(t, filepath.Join(out, "good_warped.png"))
}

func TestBatchCommand_Errors(t *testing.T) {
	empty := t.TempDir()

	_, err := executeCommand(t, "batch")
	assert.Error(t, err)

	output, err := executeCommand(t, "batch", empty, "--output-dir", filepath.Join(t.TempDir(), "o"))
	require.Error(t, err)
	assert.Contains(t, output, "no image files found")

	output, err = executeCommand(t, "batch", empty, "--workers", "0")
	require.Error(t, err)
	assert.Contains(t, output, "workers")
}
