package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// CollectSources expands paths into an ordered, de-duplicated list of files that
// accept admits. Directories are walked (recursively when recursive is set) in
// lexical order; explicit file arguments are kept even when they do not exist,
// so the batch reports them as failures instead of silently dropping them.
func CollectSources(paths []string, recursive bool, accept func(string) bool) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			if accept(root) {
				add(root)
			}
			continue
		}

		if !recursive {
			entries, err := os.ReadDir(root)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				path := filepath.Join(root, entry.Name())
				if entry.Type().IsRegular() && accept(path) {
					add(path)
				}
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && accept(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
