package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgetree/forgetree/internal/execshell"
)

const (
	gitMetadataDirectoryNameConstant    = ".git"
	gitInitSubcommandConstant           = "init"
	gitRemoteSubcommandConstant         = "remote"
	gitRemoteAddSubcommandConstant      = "add"
	gitFetchSubcommandConstant          = "fetch"
	gitCheckoutSubcommandConstant       = "checkout"
	gitCheckoutNewBranchFlagConstant    = "-b"
	gitCheckoutDetachFlagConstant       = "--detach"
	gitRevParseSubcommandConstant       = "rev-parse"
	gitHeadReferenceConstant            = "HEAD"
	gitAbbrevRefFlagConstant            = "--abbrev-ref"
	gitRemoteVerboseFlagConstant        = "-v"
	remoteBranchReferenceTemplateConst  = "%s/%s"
	revisionUnavailableTemplateConstant = "revision unavailable for %s: %s"
)

// ConfiguredRemote is one named remote read from a checkout's configuration.
type ConfiguredRemote struct {
	Name string
	URL  string
}

// RevisionUnavailableError reports that a checkout's current revision could not be read.
type RevisionUnavailableError struct {
	Path   string
	Output string
}

// Error describes the failed revision read.
func (unavailable RevisionUnavailableError) Error() string {
	return fmt.Sprintf(revisionUnavailableTemplateConstant, unavailable.Path, strings.TrimSpace(unavailable.Output))
}

// RepositoryManager performs single-repository git queries and operations.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsGitCheckout reports whether the directory contains git metadata.
func IsGitCheckout(path string) bool {
	metadataInformation, statError := os.Stat(filepath.Join(path, gitMetadataDirectoryNameConstant))
	if statError != nil {
		return false
	}
	return metadataInformation.IsDir()
}

// IsEmptyCheckout reports whether the checkout has no commits on HEAD.
func (manager *RepositoryManager) IsEmptyCheckout(executionContext context.Context, path string) bool {
	_, revisionError := manager.CurrentRevision(executionContext, path)
	return revisionError != nil
}

// CurrentRevision resolves HEAD to a revision identifier.
func (manager *RepositoryManager) CurrentRevision(executionContext context.Context, path string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: path,
	})
	if executionError != nil {
		return "", RevisionUnavailableError{Path: path, Output: executionResult.CombinedOutput()}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// CurrentBranch resolves the checked-out branch name, or HEAD when detached.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, path string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: path,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListRemotes reads the configured remotes of a checkout in declaration order.
//
// Output of `git remote -v` repeats each remote for its fetch and push URLs;
// only the first URL seen per remote name is kept.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, path string) ([]ConfiguredRemote, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteVerboseFlagConstant},
		WorkingDirectory: path,
	})
	if executionError != nil {
		return nil, executionError
	}

	seenRemoteNames := make(map[string]struct{})
	var configuredRemotes []ConfiguredRemote
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 2 {
			continue
		}
		remoteName := lineFields[0]
		if _, alreadySeen := seenRemoteNames[remoteName]; alreadySeen {
			continue
		}
		seenRemoteNames[remoteName] = struct{}{}
		configuredRemotes = append(configuredRemotes, ConfiguredRemote{Name: remoteName, URL: lineFields[1]})
	}
	return configuredRemotes, nil
}

// CloneCommands builds the ordered git command sequence that materializes a
// fresh checkout: init, add the default remote and any additional remotes,
// fetch the default remote, and create the default branch tracking the remote
// branch.
func CloneCommands(remoteName string, remoteURL string, branchName string, additionalRemotes ...ConfiguredRemote) [][]string {
	remoteBranchReference := fmt.Sprintf(remoteBranchReferenceTemplateConst, remoteName, branchName)
	commands := [][]string{
		{gitInitSubcommandConstant},
		{gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL},
	}
	for _, additionalRemote := range additionalRemotes {
		commands = append(commands, []string{gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, additionalRemote.Name, additionalRemote.URL})
	}
	return append(commands,
		[]string{gitFetchSubcommandConstant, remoteName},
		[]string{gitCheckoutSubcommandConstant, gitCheckoutNewBranchFlagConstant, branchName, remoteBranchReference},
	)
}

// RestoreCommands builds the ordered git command sequence that pins a checkout
// to a recorded revision: fetch the default remote, then detach onto the
// revision.
func RestoreCommands(remoteName string, revision string) [][]string {
	return [][]string{
		{gitFetchSubcommandConstant, remoteName},
		{gitCheckoutSubcommandConstant, gitCheckoutDetachFlagConstant, revision},
	}
}
