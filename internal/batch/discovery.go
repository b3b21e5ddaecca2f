package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
)

// inputFile is a discovered image plus its path relative to the argument it
// was found under. Rel keeps the directory layout in the output directory.
type inputFile struct {
	Path string
	Rel  string
}

// discoverImageFiles finds all supported image files under args. Files inside
// skipDir (normally the output directory) are never returned.
func discoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string,
	skipDir string) ([]inputFile, error) {
	var files []inputFile
	skipAbs := ""
	if skipDir != "" {
		if abs, err := filepath.Abs(skipDir); err == nil {
			skipAbs = abs
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns, skipAbs)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			files = append(files, inputFile{Path: arg, Rel: filepath.Base(arg)})
		}
	}

	return files, nil
}

// discoverInDirectory walks dir, descending into subdirectories only when
// recursive is set.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string,
	skipAbs string) ([]inputFile, error) {
	var files []inputFile

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || isSameDir(path, skipAbs) {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			files = append(files, inputFile{Path: path, Rel: rel})
		}
		return nil
	}

	return files, filepath.WalkDir(dir, walkFn)
}

func isSameDir(path, abs string) bool {
	if abs == "" {
		return false
	}
	p, err := filepath.Abs(path)
	return err == nil && p == abs
}

// shouldIncludeFile keeps supported images that pass the include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if !imageio.IsSupported(path) {
		return false
	}
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks the base name of path against glob patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
