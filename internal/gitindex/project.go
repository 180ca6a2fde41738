package gitindex

import (
	"path"
)

// Remote is one named remote configured for a git project.
type Remote struct {
	Name string
	URL  string
}

// GitProject is the git binding of one registered worktree project.
type GitProject struct {
	// Src is the source path relative to the worktree root.
	Src string
	// Path is the absolute checkout location.
	Path string
	// ProjectName is the manifest-declared project identifier when known.
	ProjectName string
	// Remotes lists the configured remotes in declaration order.
	Remotes []Remote
	// DefaultBranch is the branch this checkout tracks.
	DefaultBranch string
}

// Name returns the manifest project identifier, falling back to the final
// source path segment for checkouts never bound to a manifest entry.
func (project *GitProject) Name() string {
	if len(project.ProjectName) > 0 {
		return project.ProjectName
	}
	return path.Base(project.Src)
}

// DefaultRemote returns the first configured remote.
func (project *GitProject) DefaultRemote() (Remote, bool) {
	if len(project.Remotes) == 0 {
		return Remote{}, false
	}
	return project.Remotes[0], true
}

// HasRemoteURL reports whether any configured remote carries the given URL.
func (project *GitProject) HasRemoteURL(remoteURL string) bool {
	for _, configuredRemote := range project.Remotes {
		if configuredRemote.URL == remoteURL {
			return true
		}
	}
	return false
}

// MatchesAnyURL reports whether any candidate URL equals any configured
// remote URL. This any-overlap predicate is how manifest entries are
// recognized as existing checkouts even after a local rename.
func (project *GitProject) MatchesAnyURL(candidateURLs []string) bool {
	for _, candidateURL := range candidateURLs {
		if project.HasRemoteURL(candidateURL) {
			return true
		}
	}
	return false
}
