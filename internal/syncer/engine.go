// Package syncer reconciles the manifest-declared repository set against the
// checkouts bound in the git project index. Repositories are processed one at
// a time in manifest declaration order; each clone or move is wrapped in a
// git transaction and a failure in one repository never mutates the state of
// another.
package syncer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/forgetree/forgetree/internal/gitindex"
	"github.com/forgetree/forgetree/internal/gitrepo"
	"github.com/forgetree/forgetree/internal/manifest"
	"github.com/forgetree/forgetree/internal/worktree"
)

const (
	parentDirectoryPermissionsConstant = fs.FileMode(0o755)
	repoClonedLogMessageConstant       = "repository cloned"
	repoMovedLogMessageConstant        = "repository moved"
	repoUnchangedLogMessageConstant    = "repository up to date"
	repoFailedLogMessageConstant       = "repository sync failed"
	debrisRemovedLogMessageConstant    = "removed empty checkout debris"
	projectPrunedLogMessageConstant    = "project pruned"
	repoSourceLogFieldNameConstant     = "src"
	previousSourceLogFieldNameConstant = "previous_src"
)

// SyncAction names the reconciliation outcome for one repository.
type SyncAction string

// Reconciliation outcomes reported per repository.
const (
	SyncActionCloned      SyncAction = "cloned"
	SyncActionCloneFailed SyncAction = "clone-failed"
	SyncActionMoved       SyncAction = "moved"
	SyncActionMoveSkipped SyncAction = "move-skipped"
	SyncActionUnchanged   SyncAction = "unchanged"
)

// SyncReport is the per-repository outcome of one sync pass.
type SyncReport struct {
	Src    string
	Action SyncAction
	Err    error
}

// Dependencies aggregates the collaborators the engine requires.
type Dependencies struct {
	Tree              *worktree.WorkTree
	Index             *gitindex.Index
	TransactionRunner *gitrepo.TransactionRunner
	RepositoryManager *gitrepo.RepositoryManager
	Logger            *zap.Logger
}

// Options configures engine behavior.
type Options struct {
	// FailFast stops a sync pass at the first repository failure instead of
	// continuing with the remaining repositories.
	FailFast bool
}

// Engine drives the diff/apply reconciliation between desired and actual state.
type Engine struct {
	tree              *worktree.WorkTree
	index             *gitindex.Index
	transactionRunner *gitrepo.TransactionRunner
	repositoryManager *gitrepo.RepositoryManager
	logger            *zap.Logger
	failFast          bool
}

// NewEngine validates the dependencies and constructs an Engine.
func NewEngine(dependencies Dependencies, options Options) (*Engine, error) {
	if dependencies.Tree == nil {
		return nil, ErrProjectRegistryNotConfigured
	}
	if dependencies.Index == nil {
		return nil, ErrGitProjectIndexNotConfigured
	}
	if dependencies.TransactionRunner == nil {
		return nil, ErrTransactionRunnerNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}

	return &Engine{
		tree:              dependencies.Tree,
		index:             dependencies.Index,
		transactionRunner: dependencies.TransactionRunner,
		repositoryManager: dependencies.RepositoryManager,
		logger:            dependencies.Logger,
		failFast:          options.FailFast,
	}, nil
}

// Sync reconciles every desired repository in declaration order.
//
// A repository already bound under its declared source path is left alone; a
// repository bound under a different source path is moved; an unmatched
// repository is cloned. Matching is by remote URL overlap, never by name, so
// a checkout renamed locally is still recognized. Per-repository failures are
// surfaced in the returned reports and do not stop the pass unless FailFast
// was requested. The returned error is reserved for infrastructure failures.
func (engine *Engine) Sync(executionContext context.Context, desiredRepos []manifest.Repo) ([]SyncReport, error) {
	var reports []SyncReport
	for _, desiredRepo := range desiredRepos {
		report := engine.syncRepo(executionContext, desiredRepo)
		reports = append(reports, report)
		if report.Err != nil {
			engine.logger.Warn(repoFailedLogMessageConstant,
				zap.String(repoSourceLogFieldNameConstant, report.Src),
				zap.Error(report.Err))
			if engine.failFast {
				return reports, report.Err
			}
		}
	}
	return reports, nil
}

func (engine *Engine) syncRepo(executionContext context.Context, desiredRepo manifest.Repo) SyncReport {
	matchedProject, matched := engine.index.FindRepo(desiredRepo.URLs)
	switch {
	case !matched:
		if cloneError := engine.clone(executionContext, desiredRepo); cloneError != nil {
			return SyncReport{Src: desiredRepo.Src, Action: SyncActionCloneFailed, Err: cloneError}
		}
		engine.logger.Info(repoClonedLogMessageConstant, zap.String(repoSourceLogFieldNameConstant, desiredRepo.Src))
		return SyncReport{Src: desiredRepo.Src, Action: SyncActionCloned}

	case matchedProject.Src != desiredRepo.Src:
		previousSource := matchedProject.Src
		if moveError := engine.move(desiredRepo, matchedProject); moveError != nil {
			return SyncReport{Src: desiredRepo.Src, Action: SyncActionMoveSkipped, Err: moveError}
		}
		engine.logger.Info(repoMovedLogMessageConstant,
			zap.String(previousSourceLogFieldNameConstant, previousSource),
			zap.String(repoSourceLogFieldNameConstant, desiredRepo.Src))
		return SyncReport{Src: desiredRepo.Src, Action: SyncActionMoved}

	default:
		engine.logger.Debug(repoUnchangedLogMessageConstant, zap.String(repoSourceLogFieldNameConstant, desiredRepo.Src))
		return SyncReport{Src: desiredRepo.Src, Action: SyncActionUnchanged}
	}
}

// clone materializes a fresh checkout for an unmatched repository.
//
// An existing empty checkout at the target path is debris from a prior
// aborted clone and is removed first, even when an index rebuild has bound it
// in the meantime: a partial clone can leave valid metadata with the remote
// already added, and retrying on top of it would fail. On transaction failure
// the registered project and the partially-initialized directory are left in
// place for manual inspection.
func (engine *Engine) clone(executionContext context.Context, desiredRepo manifest.Repo) error {
	targetPath := engine.tree.ProjectPath(desiredRepo.Src)

	if gitrepo.IsGitCheckout(targetPath) && engine.repositoryManager.IsEmptyCheckout(executionContext, targetPath) {
		if removeError := os.RemoveAll(targetPath); removeError != nil {
			return removeError
		}
		engine.logger.Debug(debrisRemovedLogMessageConstant, zap.String(repoSourceLogFieldNameConstant, desiredRepo.Src))
	}

	if !engine.tree.HasProject(desiredRepo.Src) {
		if _, addError := engine.tree.AddProject(desiredRepo.Src); addError != nil {
			return addError
		}
	}
	if directoryError := os.MkdirAll(targetPath, parentDirectoryPermissionsConstant); directoryError != nil {
		return directoryError
	}

	configuredRemotes := remotesFor(desiredRepo)
	cloneCommands := gitrepo.CloneCommands(desiredRepo.DefaultRemote(), desiredRepo.CloneURL(), desiredRepo.DefaultBranch, additionalRemotes(configuredRemotes)...)
	transaction, runError := engine.transactionRunner.Run(executionContext, targetPath, cloneCommands)
	if runError != nil {
		return runError
	}
	if !transaction.Ok() {
		return CloneFailedError{Src: desiredRepo.Src, Output: transaction.Output()}
	}

	engine.index.Rebuild()
	clonedProject, bound := engine.index.Lookup(desiredRepo.Src)
	if !bound {
		return CloneFailedError{Src: desiredRepo.Src, Output: transaction.Output()}
	}
	clonedProject.ProjectName = desiredRepo.ProjectName
	clonedProject.DefaultBranch = desiredRepo.DefaultBranch
	clonedProject.Remotes = configuredRemotes
	return engine.index.Persist(clonedProject)
}

// move relocates a matched checkout to its declared source path.
//
// When the destination already exists, or the rename itself fails, the
// checkout and its recorded source path are left exactly as they were.
func (engine *Engine) move(desiredRepo manifest.Repo, matchedProject *gitindex.GitProject) error {
	destinationPath := engine.tree.ProjectPath(desiredRepo.Src)
	if _, statError := os.Stat(destinationPath); statError == nil {
		return DestinationExistsError{Src: matchedProject.Src, Destination: destinationPath}
	}

	if directoryError := os.MkdirAll(filepath.Dir(destinationPath), parentDirectoryPermissionsConstant); directoryError != nil {
		return RenameFailedError{Src: matchedProject.Src, Destination: destinationPath, Cause: directoryError}
	}
	if renameError := os.Rename(matchedProject.Path, destinationPath); renameError != nil {
		return RenameFailedError{Src: matchedProject.Src, Destination: destinationPath, Cause: renameError}
	}

	// Registry mutations below trigger index rebuilds that invalidate the
	// matched pointer, so the binding is captured up front.
	relocatedProject := gitindex.GitProject{
		Src:           desiredRepo.Src,
		Path:          destinationPath,
		ProjectName:   matchedProject.ProjectName,
		Remotes:       matchedProject.Remotes,
		DefaultBranch: matchedProject.DefaultBranch,
	}
	previousSource := matchedProject.Src

	if removeError := engine.tree.RemoveProject(previousSource, false); removeError != nil {
		return removeError
	}
	if _, addError := engine.tree.AddProject(desiredRepo.Src); addError != nil {
		return addError
	}
	if forgetError := engine.index.Forget(previousSource); forgetError != nil {
		return forgetError
	}
	if persistError := engine.index.Persist(&relocatedProject); persistError != nil {
		return persistError
	}
	engine.index.Rebuild()
	return nil
}

// Unmatched returns the bound git projects whose remote URLs appear in no
// desired repository, sorted by source path ascending. Checkouts without
// recorded remotes are never reported.
func (engine *Engine) Unmatched(desiredRepos []manifest.Repo) []*gitindex.GitProject {
	var unmatchedProjects []*gitindex.GitProject
	for _, boundProject := range engine.index.List(nil, nil) {
		if len(boundProject.Remotes) == 0 {
			continue
		}
		if matchesAnyRepo(boundProject, desiredRepos) {
			continue
		}
		unmatchedProjects = append(unmatchedProjects, boundProject)
	}
	return unmatchedProjects
}

// Prune removes every unmatched checkout from the registry, optionally
// deleting the directories. Pruning is always explicit; Sync never deletes.
func (engine *Engine) Prune(desiredRepos []manifest.Repo, fromDisk bool) ([]string, error) {
	var prunedSources []string
	for _, unmatchedProject := range engine.Unmatched(desiredRepos) {
		if removeError := engine.tree.RemoveProject(unmatchedProject.Src, fromDisk); removeError != nil {
			return prunedSources, removeError
		}
		if forgetError := engine.index.Forget(unmatchedProject.Src); forgetError != nil {
			return prunedSources, forgetError
		}
		engine.logger.Info(projectPrunedLogMessageConstant, zap.String(repoSourceLogFieldNameConstant, unmatchedProject.Src))
		prunedSources = append(prunedSources, unmatchedProject.Src)
	}
	return prunedSources, nil
}

func matchesAnyRepo(boundProject *gitindex.GitProject, desiredRepos []manifest.Repo) bool {
	for _, desiredRepo := range desiredRepos {
		if boundProject.MatchesAnyURL(desiredRepo.URLs) {
			return true
		}
	}
	return false
}

func remotesFor(desiredRepo manifest.Repo) []gitindex.Remote {
	var remotes []gitindex.Remote
	for urlIndex, remoteURL := range desiredRepo.URLs {
		remoteName := manifest.DefaultRemoteName
		if urlIndex < len(desiredRepo.RemoteNames) {
			remoteName = desiredRepo.RemoteNames[urlIndex]
		}
		remotes = append(remotes, gitindex.Remote{Name: remoteName, URL: remoteURL})
	}
	return remotes
}

// additionalRemotes lists every configured remote past the default one; the
// clone transaction adds each to the fresh checkout so the recorded remotes
// match the checkout's actual configuration.
func additionalRemotes(configuredRemotes []gitindex.Remote) []gitrepo.ConfiguredRemote {
	if len(configuredRemotes) < 2 {
		return nil
	}
	var remotes []gitrepo.ConfiguredRemote
	for _, configuredRemote := range configuredRemotes[1:] {
		remotes = append(remotes, gitrepo.ConfiguredRemote{Name: configuredRemote.Name, URL: configuredRemote.URL})
	}
	return remotes
}
