package input

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirEntry is one candidate for the composer's "@" file-attachment popup.
type DirEntry struct {
	RelPath string
	IsDir   bool
}

// maxWalkEntries bounds how many candidates WalkAttachable collects, so a
// popup opened at the root of a large repo doesn't stall on a full tree
// walk before the user has typed a filter.
const maxWalkEntries = 2000

// skipDirs are never descended into: version control metadata and the
// common dependency/build directories that would otherwise dominate the
// candidate list with nothing a user wants to attach.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".cache":       true,
}

// WalkAttachable lists files and directories under root for the "@"
// attachment popup, relative to root, depth-first, skipping common
// noise directories. The result is unsorted by relevance; popup.FileItems
// and picker.List's fuzzy filter handle ranking against the user's query.
func WalkAttachable(root string) ([]DirEntry, error) {
	var entries []DirEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort listing; unreadable entries are simply skipped
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
		}
		entries = append(entries, DirEntry{RelPath: rel, IsDir: d.IsDir()})
		if len(entries) >= maxWalkEntries {
			return filepath.SkipAll
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, err
}
