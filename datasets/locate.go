package datasets

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// defaultCacheDir mirrors kagglehub's cache root below the home directory.
const defaultCacheDir = ".cache/kagglehub"

// CacheRoot returns the kagglehub cache root for cfg.
func CacheRoot(cfg *Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, defaultCacheDir), nil
}

// DatasetDir returns the newest downloaded version of cfg.KaggleDataset:
//
//	<cache>/datasets/<owner>/<slug>/versions/<n>
func DatasetDir(cfg *Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	root, err := CacheRoot(cfg)
	if err != nil {
		return "", err
	}
	owner, slug, ok := strings.Cut(cfg.KaggleDataset, "/")
	if !ok {
		return "", errors.NewValidationError("KaggleDataset", "must be owner/slug", cfg.KaggleDataset)
	}
	versions := filepath.Join(root, "datasets", owner, slug, "versions")
	entries, err := os.ReadDir(versions)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError(versions, "dataset "+cfg.KaggleDataset+" has not been downloaded")
		}
		return "", errors.Wrapf(err, "read %s", versions)
	}

	best := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return "", errors.NewNotFoundError(versions, "no version directory")
	}
	return filepath.Join(versions, strconv.Itoa(best)), nil
}

// Locate resolves filename inside the dataset directory.
func Locate(cfg *Config, filename string) (string, error) {
	dir, err := DatasetDir(cfg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError(path, "please check the filename")
		}
		return "", errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return "", errors.NewNotFoundError(path, "is a directory")
	}
	return path, nil
}
