package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	rootFlagArgumentConstant           = "--root"
	manifestSubcommandArgumentConstant = "manifest"
	demoManifestNameConstant           = "demo"
	demoManifestURLConstant            = "https://example.com/manifests/demo.git"
	demoGroupArgumentConstant          = "core,tooling"
	snapshotFileNameForCLITest         = "captured.yaml"
	emptyStatusExpectationConstant     = "no checkouts bound in this worktree"
	noManifestsExpectationConstant     = "no manifests configured"
)

func executeApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()
	application := NewApplication()
	var outputBuffer bytes.Buffer
	application.rootCommand.SetOut(&outputBuffer)
	application.rootCommand.SetErr(&outputBuffer)
	application.rootCommand.SetArgs(arguments)
	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func TestApplicationRegistersExpectedSubcommands(t *testing.T) {
	application := NewApplication()

	expectedSubcommands := []string{"init", "sync", "status", "manifest", "snapshot", "prune", "foreach", "adopt"}
	registeredSubcommands := make(map[string]struct{})
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredSubcommands[registeredCommand.Name()] = struct{}{}
	}
	for _, expectedSubcommand := range expectedSubcommands {
		require.Contains(t, registeredSubcommands, expectedSubcommand)
	}
}

func TestManifestLifecycleThroughCLI(t *testing.T) {
	worktreeRoot := t.TempDir()

	_, addError := executeApplication(t,
		rootFlagArgumentConstant, worktreeRoot,
		manifestSubcommandArgumentConstant, "add", demoManifestNameConstant, demoManifestURLConstant,
		"--group", demoGroupArgumentConstant,
	)
	require.NoError(t, addError)

	listOutput, listError := executeApplication(t,
		rootFlagArgumentConstant, worktreeRoot,
		manifestSubcommandArgumentConstant, "list",
	)
	require.NoError(t, listError)
	require.Contains(t, listOutput, demoManifestNameConstant)
	require.Contains(t, listOutput, demoManifestURLConstant)

	_, removeError := executeApplication(t,
		rootFlagArgumentConstant, worktreeRoot,
		manifestSubcommandArgumentConstant, "remove", demoManifestNameConstant,
	)
	require.NoError(t, removeError)

	emptyListOutput, emptyListError := executeApplication(t,
		rootFlagArgumentConstant, worktreeRoot,
		manifestSubcommandArgumentConstant, "list",
	)
	require.NoError(t, emptyListError)
	require.Contains(t, emptyListOutput, noManifestsExpectationConstant)
}

func TestStatusOnEmptyWorktree(t *testing.T) {
	statusOutput, statusError := executeApplication(t,
		rootFlagArgumentConstant, t.TempDir(),
		"status",
	)
	require.NoError(t, statusError)
	require.Contains(t, statusOutput, emptyStatusExpectationConstant)
}

func TestSnapshotSaveOnEmptyWorktree(t *testing.T) {
	worktreeRoot := t.TempDir()
	snapshotFilePath := filepath.Join(worktreeRoot, snapshotFileNameForCLITest)

	_, saveError := executeApplication(t,
		rootFlagArgumentConstant, worktreeRoot,
		"snapshot", "save", snapshotFilePath,
	)
	require.NoError(t, saveError)
	require.FileExists(t, snapshotFilePath)
}

func TestUnknownLogLevelFailsConfigurationInitialization(t *testing.T) {
	_, executionError := executeApplication(t,
		rootFlagArgumentConstant, t.TempDir(),
		"--log-level", "verbose",
		"status",
	)
	require.Error(t, executionError)
}
