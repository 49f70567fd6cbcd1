package repofile

import (
	"os"
	"path/filepath"

	"github.com/rogersnm/docsync/internal/config"
)

// Find walks up from startDir looking for a docsync.yaml file.
// Returns ("", nil) if not found.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		ok, err := Exists(dir)
		if err != nil {
			return "", err
		}
		if ok {
			return filepath.Join(dir, config.FileName), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Exists reports whether dir holds a regular docsync.yaml.
func Exists(dir string) (bool, error) {
	info, err := os.Stat(filepath.Join(dir, config.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Resolve picks the config file: an explicit path wins, then the nearest
// docsync.yaml above startDir, then startDir/docsync.yaml.
func Resolve(explicit, startDir string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	found, err := Find(startDir)
	if err != nil || found != "" {
		return found, err
	}
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, config.FileName), nil
}
