package syncer

import (
	"errors"
	"fmt"
	"strings"
)

const (
	projectRegistryNotConfiguredMessageConstant   = "project registry not configured"
	gitProjectIndexNotConfiguredMessageConstant   = "git project index not configured"
	transactionRunnerNotConfiguredMessageConstant = "transaction runner not configured"
	repositoryManagerNotConfiguredMessageConstant = "repository manager not configured"
	cloneFailedErrorTemplateConstant              = "clone failed for %s: %s"
	destinationExistsErrorTemplateConstant        = "destination already exists for %s: %s"
	renameFailedErrorTemplateConstant             = "rename failed for %s -> %s: %v"
)

// ErrProjectRegistryNotConfigured indicates an engine was built without a project registry.
var ErrProjectRegistryNotConfigured = errors.New(projectRegistryNotConfiguredMessageConstant)

// ErrGitProjectIndexNotConfigured indicates an engine was built without a git project index.
var ErrGitProjectIndexNotConfigured = errors.New(gitProjectIndexNotConfiguredMessageConstant)

// ErrTransactionRunnerNotConfigured indicates an engine was built without a transaction runner.
var ErrTransactionRunnerNotConfigured = errors.New(transactionRunnerNotConfiguredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates an engine was built without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerNotConfiguredMessageConstant)

// CloneFailedError reports a clone transaction that did not complete. The
// captured combined output of every attempted step is retained for reporting.
type CloneFailedError struct {
	Src    string
	Output string
}

// Error describes the failed clone with its captured output.
func (failure CloneFailedError) Error() string {
	return fmt.Sprintf(cloneFailedErrorTemplateConstant, failure.Src, strings.TrimSpace(failure.Output))
}

// DestinationExistsError reports a move whose target path is already occupied.
// The move performs no mutation.
type DestinationExistsError struct {
	Src         string
	Destination string
}

// Error describes the occupied destination.
func (failure DestinationExistsError) Error() string {
	return fmt.Sprintf(destinationExistsErrorTemplateConstant, failure.Src, failure.Destination)
}

// RenameFailedError reports a directory rename that the filesystem refused.
// The checkout stays at its original location and the recorded source path is
// unchanged.
type RenameFailedError struct {
	Src         string
	Destination string
	Cause       error
}

// Error describes the failed rename.
func (failure RenameFailedError) Error() string {
	return fmt.Sprintf(renameFailedErrorTemplateConstant, failure.Src, failure.Destination, failure.Cause)
}

// Unwrap exposes the underlying filesystem failure.
func (failure RenameFailedError) Unwrap() error {
	return failure.Cause
}
