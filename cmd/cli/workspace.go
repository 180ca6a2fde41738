package cli

import (
	"context"

	"github.com/forgetree/forgetree/internal/execshell"
	"github.com/forgetree/forgetree/internal/gitindex"
	"github.com/forgetree/forgetree/internal/gitrepo"
	"github.com/forgetree/forgetree/internal/groups"
	"github.com/forgetree/forgetree/internal/manifest"
	"github.com/forgetree/forgetree/internal/snapshot"
	"github.com/forgetree/forgetree/internal/syncer"
	"github.com/forgetree/forgetree/internal/ui"
	"github.com/forgetree/forgetree/internal/worktree"
)

// workspace aggregates the services every subcommand operates on, wired
// against one worktree root.
type workspace struct {
	tree              *worktree.WorkTree
	index             *gitindex.Index
	store             *manifest.Store
	engine            *syncer.Engine
	snapshots         *snapshot.Service
	repositoryManager *gitrepo.RepositoryManager
	executor          *execshell.ShellExecutor
}

func (application *Application) openWorkspace() (*workspace, error) {
	var eventObservers []execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		eventObservers = append(eventObservers, ui.NewConsoleCommandEventLogger(application.logger))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner(), eventObservers...)
	if executorError != nil {
		return nil, executorError
	}

	transactionRunner, runnerError := gitrepo.NewTransactionRunner(shellExecutor)
	if runnerError != nil {
		return nil, runnerError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	tree, treeError := worktree.NewWorkTree(application.worktreeRootFlagValue, application.logger)
	if treeError != nil {
		return nil, treeError
	}
	projectIndex, indexError := gitindex.NewIndex(tree, application.logger)
	if indexError != nil {
		return nil, indexError
	}

	manifestFetcher, fetcherError := manifest.NewGitFetcher(tree.ConfigurationDirectory(), transactionRunner)
	if fetcherError != nil {
		return nil, fetcherError
	}
	manifestStore, storeError := manifest.NewStore(tree.ConfigurationDirectory(), manifestFetcher, application.logger)
	if storeError != nil {
		return nil, storeError
	}

	syncEngine, engineError := syncer.NewEngine(syncer.Dependencies{
		Tree:              tree,
		Index:             projectIndex,
		TransactionRunner: transactionRunner,
		RepositoryManager: repositoryManager,
		Logger:            application.logger,
	}, syncer.Options{FailFast: application.configuration.Sync.FailFast})
	if engineError != nil {
		return nil, engineError
	}

	snapshotService, snapshotError := snapshot.NewService(projectIndex, repositoryManager, transactionRunner, application.logger)
	if snapshotError != nil {
		return nil, snapshotError
	}

	return &workspace{
		tree:              tree,
		index:             projectIndex,
		store:             manifestStore,
		engine:            syncEngine,
		snapshots:         snapshotService,
		repositoryManager: repositoryManager,
		executor:          shellExecutor,
	}, nil
}

// fetchManifests refreshes every configured manifest and returns the declared
// repositories, group-filtered when group names are provided.
func (openedWorkspace *workspace) fetchManifests(executionContext context.Context, groupNames []string) ([]manifest.Repo, error) {
	if fetchError := openedWorkspace.store.FetchAll(executionContext); fetchError != nil {
		return nil, fetchError
	}

	declaredRepos := openedWorkspace.store.Repos()
	if len(groupNames) == 0 {
		return declaredRepos, nil
	}

	var filteredRepos []manifest.Repo
	for _, declaredRepo := range declaredRepos {
		if declaredRepo.InGroups(groupNames) {
			filteredRepos = append(filteredRepos, declaredRepo)
		}
	}
	return filteredRepos, nil
}

// groupIndex builds the group lookup table from the fetched manifest documents.
func (openedWorkspace *workspace) groupIndex() *groups.Index {
	builtIndex := groups.NewIndex()
	for _, groupDefinition := range openedWorkspace.store.GroupDefinitions() {
		builtIndex.Add(groupDefinition.Name, groupDefinition.Projects)
	}
	return builtIndex
}
