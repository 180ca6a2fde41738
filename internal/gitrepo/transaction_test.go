package gitrepo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgetree/forgetree/internal/execshell"
	"github.com/forgetree/forgetree/internal/gitrepo"
)

const (
	testWorkingDirectoryConstant       = "/tmp/checkout"
	testFirstCommandOutputConstant     = "first output\n"
	testSecondCommandOutputConstant    = "second error\n"
	testInfraFailureMessageConstant    = "git executable not found"
	testRevisionIdentifierConstant     = "0123456789abcdef0123456789abcdef01234567"
	testBranchNameOutputConstant       = "main\n"
	testRemoteNameConstant             = "origin"
	testRemoteURLConstant              = "git@example.com:acme/widget.git"
	testDefaultBranchNameConstant      = "main"
	testTransactionAllStepsCaseName    = "all_steps_succeed"
	testTransactionStopsCaseName       = "stops_at_first_failure"
	testTransactionInfraErrorCaseName  = "infrastructure_error"
	testTransactionEmptyCommandsCase   = "no_commands"
	testSSHRemoteParseCaseNameConstant = "ssh_remote"
	testHTTPSRemoteParseCaseName       = "https_remote"
	testLocalRemoteParseCaseName       = "local_remote"
)

type scriptedExecution struct {
	result execshell.ExecutionResult
	err    error
}

type scriptedGitExecutor struct {
	executions       []scriptedExecution
	recordedCommands [][]string
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details.Arguments)
	if len(executor.executions) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	nextExecution := executor.executions[0]
	executor.executions = executor.executions[1:]
	if nextExecution.err == nil && nextExecution.result.ExitCode != 0 {
		nextExecution.err = execshell.CommandFailedError{Result: nextExecution.result}
	}
	return nextExecution.result, nextExecution.err
}

func TestTransactionRunnerRun(testInstance *testing.T) {
	testCases := []struct {
		name             string
		executions       []scriptedExecution
		commands         [][]string
		expectOk         bool
		expectSteps      int
		expectError      bool
		expectedOutput   string
		expectedAttempts int
	}{
		{
			name: testTransactionAllStepsCaseName,
			executions: []scriptedExecution{
				{result: execshell.ExecutionResult{StandardOutput: testFirstCommandOutputConstant}},
				{result: execshell.ExecutionResult{}},
			},
			commands:         [][]string{{"init"}, {"fetch", testRemoteNameConstant}},
			expectOk:         true,
			expectSteps:      2,
			expectedOutput:   testFirstCommandOutputConstant,
			expectedAttempts: 2,
		},
		{
			name: testTransactionStopsCaseName,
			executions: []scriptedExecution{
				{result: execshell.ExecutionResult{StandardOutput: testFirstCommandOutputConstant}},
				{result: execshell.ExecutionResult{StandardError: testSecondCommandOutputConstant, ExitCode: 128}},
			},
			commands:         [][]string{{"init"}, {"fetch", testRemoteNameConstant}, {"checkout", "main"}},
			expectOk:         false,
			expectSteps:      2,
			expectedOutput:   testFirstCommandOutputConstant + testSecondCommandOutputConstant,
			expectedAttempts: 2,
		},
		{
			name: testTransactionInfraErrorCaseName,
			executions: []scriptedExecution{
				{err: execshell.CommandExecutionError{Cause: errors.New(testInfraFailureMessageConstant)}},
			},
			commands:         [][]string{{"init"}},
			expectError:      true,
			expectSteps:      0,
			expectedAttempts: 1,
		},
		{
			name:             testTransactionEmptyCommandsCase,
			commands:         nil,
			expectOk:         true,
			expectSteps:      0,
			expectedAttempts: 0,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{executions: testCase.executions}
			runner, creationError := gitrepo.NewTransactionRunner(executor)
			require.NoError(testInstance, creationError)

			transaction, runError := runner.Run(context.Background(), testWorkingDirectoryConstant, testCase.commands)
			if testCase.expectError {
				require.Error(testInstance, runError)
			} else {
				require.NoError(testInstance, runError)
				require.Equal(testInstance, testCase.expectOk, transaction.Ok())
			}
			require.Len(testInstance, transaction.Steps, testCase.expectSteps)
			require.Len(testInstance, executor.recordedCommands, testCase.expectedAttempts)
			require.Equal(testInstance, testCase.expectedOutput, transaction.Output())
		})
	}
}

func TestTransactionRunnerRequiresExecutor(testInstance *testing.T) {
	_, creationError := gitrepo.NewTransactionRunner(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestRepositoryManagerCurrentRevision(testInstance *testing.T) {
	executor := &scriptedGitExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardOutput: testRevisionIdentifierConstant + "\n"}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	revision, revisionError := manager.CurrentRevision(context.Background(), testWorkingDirectoryConstant)
	require.NoError(testInstance, revisionError)
	require.Equal(testInstance, testRevisionIdentifierConstant, revision)
	require.Equal(testInstance, []string{"rev-parse", "HEAD"}, executor.recordedCommands[0])
}

func TestRepositoryManagerRevisionUnavailable(testInstance *testing.T) {
	executor := &scriptedGitExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardError: "fatal: bad revision\n", ExitCode: 128}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	_, revisionError := manager.CurrentRevision(context.Background(), testWorkingDirectoryConstant)
	unavailable := gitrepo.RevisionUnavailableError{}
	require.ErrorAs(testInstance, revisionError, &unavailable)
	require.Equal(testInstance, testWorkingDirectoryConstant, unavailable.Path)
}

func TestRepositoryManagerCurrentBranch(testInstance *testing.T) {
	executor := &scriptedGitExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardOutput: testBranchNameOutputConstant}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	branchName, branchError := manager.CurrentBranch(context.Background(), testWorkingDirectoryConstant)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, testDefaultBranchNameConstant, branchName)
}

func TestRepositoryManagerListRemotes(testInstance *testing.T) {
	remoteListingOutput := "origin\tgit@example.com:acme/widget.git (fetch)\n" +
		"origin\tgit@example.com:acme/widget.git (push)\n" +
		"mirror\thttps://mirror.example.com/acme/widget.git (fetch)\n" +
		"mirror\thttps://mirror.example.com/acme/widget.git (push)\n"
	executor := &scriptedGitExecutor{executions: []scriptedExecution{
		{result: execshell.ExecutionResult{StandardOutput: remoteListingOutput}},
	}}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	configuredRemotes, listError := manager.ListRemotes(context.Background(), testWorkingDirectoryConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []gitrepo.ConfiguredRemote{
		{Name: "origin", URL: "git@example.com:acme/widget.git"},
		{Name: "mirror", URL: "https://mirror.example.com/acme/widget.git"},
	}, configuredRemotes)
	require.Equal(testInstance, []string{"remote", "-v"}, executor.recordedCommands[0])
}

func TestIsGitCheckoutDetection(testInstance *testing.T) {
	checkoutDirectory := testInstance.TempDir()
	require.False(testInstance, gitrepo.IsGitCheckout(checkoutDirectory))

	require.NoError(testInstance, os.MkdirAll(filepath.Join(checkoutDirectory, ".git"), 0o755))
	require.True(testInstance, gitrepo.IsGitCheckout(checkoutDirectory))
}

func TestCloneCommandsSequence(testInstance *testing.T) {
	commands := gitrepo.CloneCommands(testRemoteNameConstant, testRemoteURLConstant, testDefaultBranchNameConstant)
	require.Equal(testInstance, [][]string{
		{"init"},
		{"remote", "add", testRemoteNameConstant, testRemoteURLConstant},
		{"fetch", testRemoteNameConstant},
		{"checkout", "-b", testDefaultBranchNameConstant, testRemoteNameConstant + "/" + testDefaultBranchNameConstant},
	}, commands)
}

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expected      gitrepo.RemoteURL
		expectedLabel string
	}{
		{
			name:          testSSHRemoteParseCaseNameConstant,
			input:         testRemoteURLConstant,
			expected:      gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "example.com", Owner: "acme", Repository: "widget"},
			expectedLabel: "example.com/acme/widget",
		},
		{
			name:          testHTTPSRemoteParseCaseName,
			input:         "https://example.com/acme/widget.git",
			expected:      gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolHTTPS, Host: "example.com", Owner: "acme", Repository: "widget"},
			expectedLabel: "example.com/acme/widget",
		},
		{
			name:          testLocalRemoteParseCaseName,
			input:         "/srv/mirrors/widget.git",
			expected:      gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolLocal, Repository: "widget"},
			expectedLabel: "widget",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.input)
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsedRemote)
			require.Equal(testInstance, testCase.expectedLabel, parsedRemote.Label())
		})
	}

	_, parseError := gitrepo.ParseRemoteURL("   ")
	parseFailure := gitrepo.RemoteURLParseError{}
	require.ErrorAs(testInstance, parseError, &parseFailure)
}
