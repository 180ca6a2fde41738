package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgetree/forgetree/internal/gitrepo"
)

const (
	manifestCheckoutsDirectoryNameConstant = "manifests"
	manifestCheckoutPermissionsConstant    = fs.FileMode(0o755)
	fetchFailedErrorTemplateConstant       = "fetching manifest %s failed: %s"
	gitFetchSubcommandConstant             = "fetch"
	gitCheckoutSubcommandConstant          = "checkout"
	gitCheckoutResetBranchFlagConstant     = "-B"
	remoteBranchReferenceTemplateConstant  = "%s/%s"
)

// Fetcher retrieves the raw manifest document for a configured manifest.
type Fetcher interface {
	Fetch(executionContext context.Context, configured Manifest) ([]byte, error)
}

// FetchFailedError reports a manifest that could not be retrieved.
type FetchFailedError struct {
	Name   string
	Output string
}

// Error describes the failed fetch including captured command output.
func (failure FetchFailedError) Error() string {
	return fmt.Sprintf(fetchFailedErrorTemplateConstant, failure.Name, strings.TrimSpace(failure.Output))
}

// FileFetcher reads manifest documents from the local filesystem. The
// manifest URL names either the document itself or a directory containing
// one; used for locally mirrored manifests and tests.
type FileFetcher struct{}

// NewFileFetcher constructs a filesystem-backed fetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Fetch reads the manifest document from the configured path.
func (fetcher *FileFetcher) Fetch(executionContext context.Context, configured Manifest) ([]byte, error) {
	documentPath := configured.URL
	pathInformation, statError := os.Stat(documentPath)
	if statError == nil && pathInformation.IsDir() {
		documentPath = filepath.Join(documentPath, ManifestFileName)
	}
	return os.ReadFile(documentPath)
}

// GitFetcher retrieves manifests by keeping a git checkout of the manifest
// repository under the worktree configuration directory.
type GitFetcher struct {
	configurationDirectory string
	transactionRunner      *gitrepo.TransactionRunner
}

// NewGitFetcher constructs a git-backed fetcher storing manifest checkouts
// below the provided configuration directory.
func NewGitFetcher(configurationDirectory string, transactionRunner *gitrepo.TransactionRunner) (*GitFetcher, error) {
	if transactionRunner == nil {
		return nil, gitrepo.ErrGitExecutorNotConfigured
	}
	return &GitFetcher{configurationDirectory: configurationDirectory, transactionRunner: transactionRunner}, nil
}

// CheckoutPath returns the directory holding the named manifest's checkout.
func (fetcher *GitFetcher) CheckoutPath(manifestName string) string {
	return filepath.Join(fetcher.configurationDirectory, manifestCheckoutsDirectoryNameConstant, manifestName)
}

// Fetch clones or updates the manifest repository and reads its document.
func (fetcher *GitFetcher) Fetch(executionContext context.Context, configured Manifest) ([]byte, error) {
	branchName := configured.Branch
	if len(branchName) == 0 {
		branchName = DefaultBranchName
	}

	checkoutPath := fetcher.CheckoutPath(configured.Name)
	var commands [][]string
	if gitrepo.IsGitCheckout(checkoutPath) {
		remoteBranchReference := fmt.Sprintf(remoteBranchReferenceTemplateConstant, DefaultRemoteName, branchName)
		commands = [][]string{
			{gitFetchSubcommandConstant, DefaultRemoteName},
			{gitCheckoutSubcommandConstant, gitCheckoutResetBranchFlagConstant, branchName, remoteBranchReference},
		}
	} else {
		if directoryError := os.MkdirAll(checkoutPath, manifestCheckoutPermissionsConstant); directoryError != nil {
			return nil, directoryError
		}
		commands = gitrepo.CloneCommands(DefaultRemoteName, configured.URL, branchName)
	}

	transaction, runError := fetcher.transactionRunner.Run(executionContext, checkoutPath, commands)
	if runError != nil {
		return nil, runError
	}
	if !transaction.Ok() {
		return nil, FetchFailedError{Name: configured.Name, Output: transaction.Output()}
	}

	return os.ReadFile(filepath.Join(checkoutPath, ManifestFileName))
}
