package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0o600))
}

func paths(files []inputFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestDiscoverImageFiles_EmptyArgs(t *testing.T) {
	files, err := discoverImageFiles([]string{}, false, nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImageFiles_SingleFiles(t *testing.T) {
	tempDir := t.TempDir()
	pngFile := filepath.Join(tempDir, "test.png")
	txtFile := filepath.Join(tempDir, "test.txt")
	tgaFile := filepath.Join(tempDir, "test.TGA")
	touch(t, pngFile)
	touch(t, txtFile)
	touch(t, tgaFile)

	files, err := discoverImageFiles([]string{pngFile, txtFile, tgaFile}, false, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []inputFile{{Path: pngFile, Rel: "test.png"}, {Path: tgaFile, Rel: "test.TGA"}}, files)
}

func TestDiscoverImageFiles_Directory(t *testing.T) {
	tempDir := t.TempDir()
	pngFile := filepath.Join(tempDir, "image.png")
	jpgFile := filepath.Join(tempDir, "photo.jpg")
	touch(t, pngFile)
	touch(t, jpgFile)
	touch(t, filepath.Join(tempDir, "notes.txt"))
	touch(t, filepath.Join(tempDir, "sub", "nested.png"))

	files, err := discoverImageFiles([]string{tempDir}, false, nil, nil, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{pngFile, jpgFile}, paths(files))
}

func TestDiscoverImageFiles_Recursive(t *testing.T) {
	tempDir := t.TempDir()
	rootPng := filepath.Join(tempDir, "root.png")
	subPng := filepath.Join(tempDir, "sub", "sub.png")
	touch(t, rootPng)
	touch(t, subPng)
	touch(t, filepath.Join(tempDir, "sub", "sub.txt"))

	files, err := discoverImageFiles([]string{tempDir}, true, nil, nil, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.ElementsMatch(t, []string{rootPng, subPng}, paths(files))
	for _, f := range files {
		if f.Path == subPng {
			assert.Equal(t, filepath.Join("sub", "sub.png"), f.Rel)
		}
	}
}

func TestDiscoverImageFiles_SkipsOutputDir(t *testing.T) {
	tempDir := t.TempDir()
	outDir := filepath.Join(tempDir, "warped")
	touch(t, filepath.Join(tempDir, "a.png"))
	touch(t, filepath.Join(outDir, "a_warped.png"))

	files, err := discoverImageFiles([]string{tempDir}, true, nil, nil, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tempDir, "a.png")}, paths(files))
}

func TestDiscoverImageFiles_Patterns(t *testing.T) {
	tempDir := t.TempDir()
	keep := filepath.Join(tempDir, "scan_001.png")
	touch(t, keep)
	touch(t, filepath.Join(tempDir, "scan_002_thumb.png"))
	touch(t, filepath.Join(tempDir, "photo.jpg"))

	files, err := discoverImageFiles([]string{tempDir}, false, []string{"scan_*"}, []string{"*_thumb.*"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, paths(files))
}

func TestDiscoverImageFiles_MissingPath(t *testing.T) {
	_, err := discoverImageFiles([]string{"/nonexistent/file.png"}, false, nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.False(t, matchesAnyPattern("/a/b.png", nil))
	assert.True(t, matchesAnyPattern("/a/b.png", []string{"*.jpg", "b.*"}))
	assert.False(t, matchesAnyPattern("/a/b.png", []string{"[invalid"}))
}
