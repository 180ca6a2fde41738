package gitindex_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgetree/forgetree/internal/gitindex"
	"github.com/forgetree/forgetree/internal/groups"
	"github.com/forgetree/forgetree/internal/worktree"
)

const (
	libraryProjectSourceConstant    = "lib/alpha"
	toolingProjectSourceConstant    = "tools/beta"
	unboundProjectSourceConstant    = "lib/debris"
	libraryProjectNameConstant      = "alpha"
	toolingProjectNameConstant      = "beta"
	originRemoteNameConstant        = "origin"
	mirrorRemoteNameConstant        = "mirror"
	originRemoteURLConstant         = "git@example.com:team/alpha.git"
	mirrorRemoteURLConstant         = "https://mirror.example.com/team/alpha.git"
	toolingRemoteURLConstant        = "git@example.com:team/beta.git"
	developmentBranchNameConstant   = "main"
	libraryGroupNameConstant        = "libraries"
	toolingGroupNameConstant        = "tooling"
	everythingGroupNameConstant     = "everything"
	undefinedGroupNameConstant      = "nonexistent"
	gitDirectoryNameConstant        = ".git"
	gitConfigurationFileConstant    = "git.xml"
	unknownRemoteURLConstant        = "https://elsewhere.example.com/unrelated.git"
	unregisteredSourceConstant      = "lib/never-registered"
	directoryPermissionsForTesting  = os.FileMode(0o755)
)

func createGitCheckout(testInstance *testing.T, tree *worktree.WorkTree, source string) worktree.Project {
	testInstance.Helper()
	registeredProject, addError := tree.AddProject(source)
	require.NoError(testInstance, addError)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(registeredProject.Path, gitDirectoryNameConstant), directoryPermissionsForTesting))
	return registeredProject
}

func TestIndexPersistAndReload(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)
	createGitCheckout(t, tree, libraryProjectSourceConstant)

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)

	boundProject, found := index.Lookup(libraryProjectSourceConstant)
	require.True(t, found)
	boundProject.ProjectName = libraryProjectNameConstant
	boundProject.DefaultBranch = developmentBranchNameConstant
	boundProject.Remotes = []gitindex.Remote{
		{Name: originRemoteNameConstant, URL: originRemoteURLConstant},
		{Name: mirrorRemoteNameConstant, URL: mirrorRemoteURLConstant},
	}
	require.NoError(t, index.Persist(boundProject))

	reopenedTree, reopenError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, reopenError)
	reloadedIndex, reloadError := gitindex.NewIndex(reopenedTree, nil)
	require.NoError(t, reloadError)

	reloadedProject, reloadedFound := reloadedIndex.Lookup(libraryProjectSourceConstant)
	require.True(t, reloadedFound)
	require.Equal(t, libraryProjectNameConstant, reloadedProject.ProjectName)
	require.Equal(t, developmentBranchNameConstant, reloadedProject.DefaultBranch)
	require.Equal(t, boundProject.Remotes, reloadedProject.Remotes)
}

func TestIndexPersistIsIdempotent(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)
	createGitCheckout(t, tree, libraryProjectSourceConstant)

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)

	boundProject, found := index.Lookup(libraryProjectSourceConstant)
	require.True(t, found)
	boundProject.ProjectName = libraryProjectNameConstant
	boundProject.Remotes = []gitindex.Remote{{Name: originRemoteNameConstant, URL: originRemoteURLConstant}}
	require.NoError(t, index.Persist(boundProject))

	configurationFilePath := filepath.Join(tree.ConfigurationDirectory(), gitConfigurationFileConstant)
	firstContents, firstReadError := os.ReadFile(configurationFilePath)
	require.NoError(t, firstReadError)

	require.NoError(t, index.Persist(boundProject))
	secondContents, secondReadError := os.ReadFile(configurationFilePath)
	require.NoError(t, secondReadError)
	require.Equal(t, firstContents, secondContents)
}

func TestIndexLookupByURLMatchesAnyRemote(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)
	createGitCheckout(t, tree, libraryProjectSourceConstant)

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)
	boundProject, found := index.Lookup(libraryProjectSourceConstant)
	require.True(t, found)
	boundProject.Remotes = []gitindex.Remote{
		{Name: originRemoteNameConstant, URL: originRemoteURLConstant},
		{Name: mirrorRemoteNameConstant, URL: mirrorRemoteURLConstant},
	}
	require.NoError(t, index.Persist(boundProject))

	testCases := []struct {
		name        string
		queryURL    string
		expectMatch bool
	}{
		{name: "first_remote_url", queryURL: originRemoteURLConstant, expectMatch: true},
		{name: "second_remote_url", queryURL: mirrorRemoteURLConstant, expectMatch: true},
		{name: "unknown_url", queryURL: unknownRemoteURLConstant, expectMatch: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			matchedProject, matched := index.LookupByURL(testCase.queryURL)
			require.Equal(subtest, testCase.expectMatch, matched)
			if testCase.expectMatch {
				require.Equal(subtest, libraryProjectSourceConstant, matchedProject.Src)
			}
		})
	}
}

func TestIndexSkipsDirectoriesWithoutGitCheckout(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)
	createGitCheckout(t, tree, libraryProjectSourceConstant)

	debrisProject, addError := tree.AddProject(unboundProjectSourceConstant)
	require.NoError(t, addError)
	require.NoError(t, os.MkdirAll(debrisProject.Path, directoryPermissionsForTesting))

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)

	_, found := index.Lookup(unboundProjectSourceConstant)
	require.False(t, found)
	_, boundFound := index.Lookup(libraryProjectSourceConstant)
	require.True(t, boundFound)
}

func TestIndexLookupUnknownSource(t *testing.T) {
	tree, treeError := worktree.NewWorkTree(t.TempDir(), nil)
	require.NoError(t, treeError)
	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)

	_, found := index.Lookup(unregisteredSourceConstant)
	require.False(t, found)
}

func TestIndexList(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)
	createGitCheckout(t, tree, toolingProjectSourceConstant)
	createGitCheckout(t, tree, libraryProjectSourceConstant)

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)

	libraryProject, libraryFound := index.Lookup(libraryProjectSourceConstant)
	require.True(t, libraryFound)
	libraryProject.ProjectName = libraryProjectNameConstant
	require.NoError(t, index.Persist(libraryProject))
	toolingProject, toolingFound := index.Lookup(toolingProjectSourceConstant)
	require.True(t, toolingFound)
	toolingProject.ProjectName = toolingProjectNameConstant
	require.NoError(t, index.Persist(toolingProject))

	groupIndex := groups.NewIndex()
	groupIndex.Add(libraryGroupNameConstant, []string{libraryProjectNameConstant})
	groupIndex.Add(toolingGroupNameConstant, []string{toolingProjectNameConstant})
	groupIndex.Add(everythingGroupNameConstant, []string{libraryProjectNameConstant, toolingProjectNameConstant})

	testCases := []struct {
		name            string
		requestedGroups []string
		expectedSources []string
	}{
		{
			name:            "all_projects_sorted_by_source",
			requestedGroups: nil,
			expectedSources: []string{libraryProjectSourceConstant, toolingProjectSourceConstant},
		},
		{
			name:            "single_group",
			requestedGroups: []string{libraryGroupNameConstant},
			expectedSources: []string{libraryProjectSourceConstant},
		},
		{
			name:            "overlapping_groups_without_duplicates",
			requestedGroups: []string{libraryGroupNameConstant, everythingGroupNameConstant},
			expectedSources: []string{libraryProjectSourceConstant, toolingProjectSourceConstant},
		},
		{
			name:            "undefined_group_contributes_nothing",
			requestedGroups: []string{undefinedGroupNameConstant},
			expectedSources: nil,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(subtest *testing.T) {
			listedProjects := index.List(groupIndex, testCase.requestedGroups)
			var listedSources []string
			for _, listedProject := range listedProjects {
				listedSources = append(listedSources, listedProject.Src)
			}
			require.Equal(subtest, testCase.expectedSources, listedSources)
		})
	}
}

func TestIndexRebuildsOnRegistryMutation(t *testing.T) {
	rootDirectory := t.TempDir()
	tree, treeError := worktree.NewWorkTree(rootDirectory, nil)
	require.NoError(t, treeError)

	index, indexError := gitindex.NewIndex(tree, nil)
	require.NoError(t, indexError)
	require.Empty(t, index.List(nil, nil))

	checkoutDirectory := filepath.Join(rootDirectory, filepath.FromSlash(libraryProjectSourceConstant))
	require.NoError(t, os.MkdirAll(filepath.Join(checkoutDirectory, gitDirectoryNameConstant), directoryPermissionsForTesting))
	_, addError := tree.AddProject(libraryProjectSourceConstant)
	require.NoError(t, addError)

	_, found := index.Lookup(libraryProjectSourceConstant)
	require.True(t, found)

	require.NoError(t, tree.RemoveProject(libraryProjectSourceConstant, false))
	_, foundAfterRemoval := index.Lookup(libraryProjectSourceConstant)
	require.False(t, foundAfterRemoval)
}
