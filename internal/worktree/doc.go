// Package worktree maintains the registry of projects checked out under a
// single worktree root.
//
// A WorkTree owns the ordered list of registered projects, persists it to the
// worktree configuration directory, and notifies registered observers
// synchronously whenever a project is added or removed. Higher layers such as
// the git project index subscribe to those notifications to stay consistent
// with the registry.
package worktree
