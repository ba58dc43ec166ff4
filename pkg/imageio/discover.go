package imageio

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
)

// OutputDir is the folder used for outputs when filenames are modified.
const OutputDir = "Output"

// Discover lists the image files in dir. With recursive set, sub-folders are
// searched too, except those named in skip (typically earlier output folders).
func Discover(dir string, recursive bool, skip ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || slices.Contains(skip, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	return files, nil
}

// OutputPath is where the result of method applied to input is written:
// <dir>/<method>/<file>, or <dir>/Output/<stem>_<method><ext> when
// modifyFilename is set. Inputs in a format that cannot be encoded (webp)
// are written as png.
func OutputPath(input, method string, modifyFilename bool) string {
	dir, file := filepath.Split(input)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	if _, err := imaging.FormatFromFilename(file); err != nil {
		ext = ".png"
	}
	if modifyFilename {
		return filepath.Join(dir, OutputDir, stem+"_"+method+ext)
	}
	return filepath.Join(dir, method, stem+ext)
}
