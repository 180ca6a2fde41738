// Package gitindex binds registered worktree projects to their git state.
//
// The Index observes the project registry and rebuilds its bindings on every
// registry change: each registered project whose directory is a valid git
// checkout is represented as a GitProject carrying its configured remotes and
// tracked branch. Bindings are persisted as XML fragments keyed by source
// path inside a single worktree-scoped configuration file, and persistence is
// idempotent: writing the same logical state twice yields byte-identical
// output.
package gitindex
