// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wannesvl/tikz-convert/internal/wrapper"
)

// Cleanup removes the wrapper and auxiliary files of job from dir and
// returns the names it deleted. Files that do not exist are skipped, and
// nothing outside the job's temporary set is touched.
func Cleanup(dir, job string) ([]string, error) {
	var removed []string
	var errs []error
	for _, name := range wrapper.TempFiles(job) {
		path := filepath.Join(dir, name)
		info, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", path, err))
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}
