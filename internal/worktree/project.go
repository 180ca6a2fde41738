package worktree

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	sourceSeparatorConstant       = "/"
	parentDirectorySegmentConsant = ".."
	currentDirectorySegmentConst  = "."
)

// Project represents one registered checkout inside a worktree.
type Project struct {
	// Src is the source path relative to the worktree root, slash-separated.
	Src string
	// Path is the absolute filesystem location of the project.
	Path string
}

// NormalizeSource canonicalizes a relative source path for registry use.
func NormalizeSource(source string) (string, error) {
	trimmedSource := strings.TrimSpace(source)
	if len(trimmedSource) == 0 {
		return "", ErrProjectSourceRequired
	}

	slashedSource := filepath.ToSlash(trimmedSource)
	if path.IsAbs(slashedSource) || filepath.IsAbs(trimmedSource) {
		return "", InvalidSourceError{Src: source, absolute: true}
	}

	cleanedSource := path.Clean(slashedSource)
	if cleanedSource == currentDirectorySegmentConst {
		return "", ErrProjectSourceRequired
	}
	if cleanedSource == parentDirectorySegmentConsant || strings.HasPrefix(cleanedSource, parentDirectorySegmentConsant+sourceSeparatorConstant) {
		return "", InvalidSourceError{Src: source}
	}

	return cleanedSource, nil
}

// sourceContains reports whether candidate lies at or below the owner source path.
func sourceContains(owner string, candidate string) bool {
	if owner == candidate {
		return true
	}
	return strings.HasPrefix(candidate, owner+sourceSeparatorConstant)
}
