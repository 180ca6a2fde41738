package worktree

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

const gitMetadataDirectoryNameConstant = ".git"

// DiscoverCheckouts walks the worktree root and returns the source paths of
// directories containing a .git entry, sorted ascending. The engine-owned
// configuration directory is skipped.
func (tree *WorkTree) DiscoverCheckouts() ([]string, error) {
	seen := make(map[string]struct{})
	var sources []string

	walkError := filepath.WalkDir(tree.root, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return nil
		}

		if directoryEntry.IsDir() && directoryEntry.Name() == ConfigurationDirectoryNameConstant {
			return fs.SkipDir
		}

		if directoryEntry.Name() != gitMetadataDirectoryNameConstant {
			return nil
		}

		checkoutPath := filepath.Dir(entryPath)
		relativePath, relativeError := filepath.Rel(tree.root, checkoutPath)
		if relativeError != nil || relativePath == "." || strings.HasPrefix(relativePath, "..") {
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		source := filepath.ToSlash(relativePath)
		if _, alreadySeen := seen[source]; !alreadySeen {
			seen[source] = struct{}{}
			sources = append(sources, source)
		}

		if directoryEntry.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(sources)
	return sources, nil
}
