// Package gitrepo exposes the git primitives forgetree composes: validity and
// emptiness probes for checkouts, revision and branch queries, fetch and
// checkout operations, and the ordered TransactionRunner that aggregates a
// sequence of git invocations into a single success/failure verdict with
// captured output.
package gitrepo
