package dataset

import (
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FindFiles expands glob patterns (including **) into a sorted list of
// regular files. Sorting keeps dataset ordering, and therefore partitioning,
// deterministic regardless of filesystem walk order.
func FindFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}
		for _, name := range matches {
			info, err := os.Lstat(name)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
