package worktree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forgetree/forgetree/internal/worktree"
)

const (
	testProjectSourceConstant         = "lib/alpha"
	testNestedProjectSourceConstant   = "lib/alpha/vendor"
	testSiblingProjectSourceConstant  = "lib/beta"
	testAddConflictCaseNameConstant   = "duplicate_source"
	testAddNestedCaseNameConstant     = "nested_source"
	testAddSiblingCaseNameConstant    = "sibling_source"
	testAbsoluteSourceCaseName        = "absolute_source"
	testEscapingSourceCaseNameConst   = "escaping_source"
	testRegistryFileRelativeConstant  = ".forgetree/worktree.xml"
	testRemovedDirectoryNameConstant  = "lib/gamma"
	testObserverAddedEventConstant    = "added:"
	testObserverRemovedEventConstant  = "removed:"
	testUnknownProjectSourceConstant  = "does/not/exist"
	testBlockedParentNameConstant     = "blocked"
	testBlockedProjectSourceConstant  = "blocked/project"
	testRedundantSourceInputConstant  = "./lib/epsilon/"
	testNormalizedRedundantSrcConst   = "lib/epsilon"
	testDiscoverNonGitDirectoryConst  = "plain/dir"
	testDiscoverFirstCheckoutConstant = "repos/one"
	testDiscoverSecondCheckoutConst   = "repos/two"
)

type recordingObserver struct {
	events []string
}

func (observer *recordingObserver) OnProjectAdded(project worktree.Project) {
	observer.events = append(observer.events, testObserverAddedEventConstant+project.Src)
}

func (observer *recordingObserver) OnProjectRemoved(project worktree.Project) {
	observer.events = append(observer.events, testObserverRemovedEventConstant+project.Src)
}

func newTestWorkTree(testInstance *testing.T) *worktree.WorkTree {
	testInstance.Helper()
	tree, creationError := worktree.NewWorkTree(testInstance.TempDir(), zap.NewNop())
	require.NoError(testInstance, creationError)
	return tree
}

func TestAddProjectRegistersAndNotifies(testInstance *testing.T) {
	tree := newTestWorkTree(testInstance)
	observer := &recordingObserver{}
	tree.Register(observer)

	addedProject, addError := tree.AddProject(testProjectSourceConstant)
	require.NoError(testInstance, addError)
	require.Equal(testInstance, testProjectSourceConstant, addedProject.Src)
	require.Equal(testInstance, filepath.Join(tree.Root(), "lib", "alpha"), addedProject.Path)
	require.Equal(testInstance, []string{testObserverAddedEventConstant + testProjectSourceConstant}, observer.events)

	registryContents, readError := os.ReadFile(filepath.Join(tree.Root(), testRegistryFileRelativeConstant))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(registryContents), testProjectSourceConstant)
}

func TestAddProjectConflictDetection(testInstance *testing.T) {
	testCases := []struct {
		name           string
		source         string
		expectConflict bool
		expectInvalid  bool
	}{
		{name: testAddConflictCaseNameConstant, source: testProjectSourceConstant, expectConflict: true},
		{name: testAddNestedCaseNameConstant, source: testNestedProjectSourceConstant, expectConflict: true},
		{name: testAddSiblingCaseNameConstant, source: testSiblingProjectSourceConstant},
		{name: testAbsoluteSourceCaseName, source: "/absolute/path", expectInvalid: true},
		{name: testEscapingSourceCaseNameConst, source: "../outside", expectInvalid: true},
	}

	tree := newTestWorkTree(testInstance)
	_, seedError := tree.AddProject(testProjectSourceConstant)
	require.NoError(testInstance, seedError)

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, addError := tree.AddProject(testCase.source)
			switch {
			case testCase.expectConflict:
				conflictError := worktree.PathConflictError{}
				require.ErrorAs(testInstance, addError, &conflictError)
				require.Equal(testInstance, testProjectSourceConstant, conflictError.ConflictingSrc)
			case testCase.expectInvalid:
				invalidError := worktree.InvalidSourceError{}
				require.ErrorAs(testInstance, addError, &invalidError)
			default:
				require.NoError(testInstance, addError)
			}
		})
	}
}

func TestRemoveProjectBehavior(testInstance *testing.T) {
	tree := newTestWorkTree(testInstance)
	observer := &recordingObserver{}
	tree.Register(observer)

	removedProject, addError := tree.AddProject(testRemovedDirectoryNameConstant)
	require.NoError(testInstance, addError)
	require.NoError(testInstance, os.MkdirAll(removedProject.Path, 0o755))

	removeError := tree.RemoveProject(testRemovedDirectoryNameConstant, true)
	require.NoError(testInstance, removeError)
	require.False(testInstance, tree.HasProject(testRemovedDirectoryNameConstant))
	require.NoDirExists(testInstance, removedProject.Path)
	require.Equal(testInstance, testObserverRemovedEventConstant+testRemovedDirectoryNameConstant, observer.events[len(observer.events)-1])

	missingError := tree.RemoveProject(testUnknownProjectSourceConstant, false)
	notRegistered := worktree.NotRegisteredError{}
	require.ErrorAs(testInstance, missingError, &notRegistered)
	require.Equal(testInstance, testUnknownProjectSourceConstant, notRegistered.Src)
}

func TestRemoveProjectNotifiesWhenDiskDeletionFails(testInstance *testing.T) {
	tree := newTestWorkTree(testInstance)
	observer := &recordingObserver{}
	tree.Register(observer)

	_, addError := tree.AddProject(testBlockedProjectSourceConstant)
	require.NoError(testInstance, addError)

	// A regular file where the project's parent directory should be makes the
	// directory deletion fail while the registry mutation itself succeeds.
	require.NoError(testInstance, os.WriteFile(filepath.Join(tree.Root(), testBlockedParentNameConstant), []byte("not a directory"), 0o644))

	removeError := tree.RemoveProject(testBlockedProjectSourceConstant, true)
	require.Error(testInstance, removeError)

	// The project is deregistered and observers heard about it even though
	// the directory could not be deleted.
	require.False(testInstance, tree.HasProject(testBlockedProjectSourceConstant))
	require.Equal(testInstance, []string{
		testObserverAddedEventConstant + testBlockedProjectSourceConstant,
		testObserverRemovedEventConstant + testBlockedProjectSourceConstant,
	}, observer.events)
}

func TestRegistryReloadPreservesProjects(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()

	firstTree, firstError := worktree.NewWorkTree(rootDirectory, zap.NewNop())
	require.NoError(testInstance, firstError)
	_, addError := firstTree.AddProject(testProjectSourceConstant)
	require.NoError(testInstance, addError)
	_, addError = firstTree.AddProject(testSiblingProjectSourceConstant)
	require.NoError(testInstance, addError)

	secondTree, secondError := worktree.NewWorkTree(rootDirectory, zap.NewNop())
	require.NoError(testInstance, secondError)
	reloadedProjects := secondTree.Projects()
	require.Len(testInstance, reloadedProjects, 2)
	require.Equal(testInstance, testProjectSourceConstant, reloadedProjects[0].Src)
	require.Equal(testInstance, testSiblingProjectSourceConstant, reloadedProjects[1].Src)
}

func TestNormalizeSourceCanonicalization(testInstance *testing.T) {
	normalizedRedundantSource, redundantError := worktree.NormalizeSource(testRedundantSourceInputConstant)
	require.NoError(testInstance, redundantError)
	require.Equal(testInstance, testNormalizedRedundantSrcConst, normalizedRedundantSource)
}

func TestDiscoverCheckoutsFindsGitDirectories(testInstance *testing.T) {
	tree := newTestWorkTree(testInstance)

	for _, checkoutSource := range []string{testDiscoverSecondCheckoutConst, testDiscoverFirstCheckoutConstant} {
		gitDirectory := filepath.Join(tree.ProjectPath(checkoutSource), ".git")
		require.NoError(testInstance, os.MkdirAll(gitDirectory, 0o755))
	}
	require.NoError(testInstance, os.MkdirAll(tree.ProjectPath(testDiscoverNonGitDirectoryConst), 0o755))

	discoveredSources, discoverError := tree.DiscoverCheckouts()
	require.NoError(testInstance, discoverError)
	require.Equal(testInstance, []string{testDiscoverFirstCheckoutConstant, testDiscoverSecondCheckoutConst}, discoveredSources)
}
