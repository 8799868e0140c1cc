package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned when no site root marker exists above a directory.
var ErrRootNotFound = errors.New("site root not found")

// RootMarkers identify a site root: a postlint config, a Jekyll config or a
// Git checkout.
var RootMarkers = []string{".postlint.yaml", ".postlint.yml", "_config.yml", ".git"}

// FindRoot looks upwards from startDir for a site root marker and returns
// the absolute path of the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range RootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
