package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// Root markers, checked in every directory from the start upwards.
const (
	SystemDir  = ".tiller"
	ConfigFile = "tiller.yaml"
)

// ErrRootNotFound is returned when no marker exists up to the filesystem root.
var ErrRootNotFound = errors.New("tiller root not found")

// FindRoot walks up from startDir looking for a .tiller directory or a
// tiller.yaml file and returns the absolute path of the first directory holding one.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if exists(filepath.Join(dir, SystemDir)) || exists(filepath.Join(dir, ConfigFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
