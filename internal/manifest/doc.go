// Package manifest models the remotely declared desired state of a worktree.
//
// A manifest document lists remote prefixes, the repositories to check out
// (source path, candidate clone URLs, default branch), and named groups of
// repositories. The Store keeps the set of configured manifests for one
// worktree, persists that configuration, and re-fetches each manifest into
// its most recent Document through a pluggable Fetcher.
package manifest
