package manifest

import (
	"strings"
)

const (
	gitRepositorySuffixConstant    = ".git"
	urlPathSeparatorConstant       = "/"
	urlColonSuffixConstant         = ":"
	defaultRemoteNameConstant      = "origin"
	defaultBranchNameConstant      = "main"
	groupNameSeparatorConstant     = " "
	manifestFileNameConstant       = "manifest.xml"
	emptyGroupFilterLengthConstant = 0
)

// DefaultRemoteName is the remote name assigned to a repository's primary URL.
const DefaultRemoteName = defaultRemoteNameConstant

// DefaultBranchName is the branch checked out when a manifest omits one.
const DefaultBranchName = defaultBranchNameConstant

// ManifestFileName is the document file expected inside a manifest repository.
const ManifestFileName = manifestFileNameConstant

// Repo is one manifest-declared desired repository entry.
//
// Repos are immutable once parsed from a manifest fetch; the first URL is the
// default clone URL.
type Repo struct {
	ProjectName   string
	Src           string
	URLs          []string
	RemoteNames   []string
	DefaultBranch string
	Groups        []string
}

// DefaultRemote returns the name associated with the primary URL.
func (repo Repo) DefaultRemote() string {
	if len(repo.RemoteNames) > 0 {
		return repo.RemoteNames[0]
	}
	return DefaultRemoteName
}

// CloneURL returns the primary clone URL.
func (repo Repo) CloneURL() string {
	if len(repo.URLs) > 0 {
		return repo.URLs[0]
	}
	return ""
}

// InGroups reports whether the repo belongs to at least one of the requested groups.
//
// An empty request matches every repo.
func (repo Repo) InGroups(requestedGroups []string) bool {
	if len(requestedGroups) == emptyGroupFilterLengthConstant {
		return true
	}
	for _, requestedGroup := range requestedGroups {
		for _, memberGroup := range repo.Groups {
			if memberGroup == requestedGroup {
				return true
			}
		}
	}
	return false
}

// GroupDefinition names a set of member project names declared by a manifest.
type GroupDefinition struct {
	Name     string
	Projects []string
}

// Document is the parsed content of one fetched manifest.
type Document struct {
	Repos  []Repo
	Groups []GroupDefinition
}

// Manifest describes one configured manifest source for a worktree.
type Manifest struct {
	Name        string
	URL         string
	Branch      string
	GroupFilter []string

	// Document holds the most recently fetched content, nil before any fetch.
	Document *Document
}

// JoinRemoteURL combines a remote prefix with a project name the way git
// remote prefixes compose: prefixes ending in ":" or "/" concatenate
// directly, anything else gains a path separator.
func JoinRemoteURL(remotePrefix string, projectName string) string {
	if strings.HasSuffix(remotePrefix, urlColonSuffixConstant) || strings.HasSuffix(remotePrefix, urlPathSeparatorConstant) {
		return remotePrefix + projectName
	}
	return remotePrefix + urlPathSeparatorConstant + projectName
}

// DefaultSourceFor derives the checkout source path for a project name.
func DefaultSourceFor(projectName string) string {
	return strings.TrimSuffix(projectName, gitRepositorySuffixConstant)
}
