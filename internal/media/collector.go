package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectFiles resolves command-line inputs into the batch file list. It
// supports direct file paths, directories, and glob patterns. The result is
// deduplicated and sorted lexicographically so batch order, and with it
// collision tiebreaking, is deterministic across runs.
func CollectFiles(inputs []string, recursive bool) ([]string, error) {
	unique := make(map[string]struct{})
	var results []string

	addFile := func(path string) {
		path = filepath.Clean(path)
		if _, exists := unique[path]; !exists {
			unique[path] = struct{}{}
			results = append(results, path)
		}
	}

	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		matches, err := expandInput(in)
		if err != nil {
			return nil, err
		}

		for _, candidate := range matches {
			info, err := os.Stat(candidate)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", candidate, err)
			}
			if info.IsDir() {
				if err := walkDir(candidate, recursive, addFile); err != nil {
					return nil, err
				}
				continue
			}
			addFile(candidate)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no files matched the given inputs")
	}
	sort.Strings(results)
	return results, nil
}

func expandInput(input string) ([]string, error) {
	if containsGlob(input) {
		matches, err := filepath.Glob(input)
		if err != nil {
			return nil, fmt.Errorf("expand glob: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched pattern %q", input)
		}
		return matches, nil
	}
	return []string{input}, nil
}

func containsGlob(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

func walkDir(root string, recursive bool, add func(string)) error {
	if recursive {
		return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			add(filepath.Join(root, entry.Name()))
		}
	}
	return nil
}
