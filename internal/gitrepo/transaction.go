package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/forgetree/forgetree/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"
	transactionCommandSeparatorConstant     = " "
	transactionCommandPrefixConstant        = "git"
)

// ErrGitExecutorNotConfigured indicates a component was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitExecutor exposes the subset of shell execution used by git components.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// StepResult records the outcome of one git invocation inside a transaction.
type StepResult struct {
	Command        string
	ExitCode       int
	CombinedOutput string
}

// Transaction aggregates an ordered sequence of git invocations against one
// working directory. It is observational bookkeeping, not a rollback
// mechanism: side effects of completed steps are never undone.
type Transaction struct {
	WorkingDirectory string
	Steps            []StepResult
}

// Ok reports whether every executed step exited with code zero. A transaction
// with no steps is vacuously ok.
func (transaction Transaction) Ok() bool {
	for _, step := range transaction.Steps {
		if step.ExitCode != 0 {
			return false
		}
	}
	return true
}

// Output concatenates the captured output of every step attempted so far.
func (transaction Transaction) Output() string {
	var outputBuilder strings.Builder
	for _, step := range transaction.Steps {
		outputBuilder.WriteString(step.CombinedOutput)
	}
	return outputBuilder.String()
}

// TransactionRunner executes ordered git command sequences.
type TransactionRunner struct {
	executor GitExecutor
}

// NewTransactionRunner constructs a TransactionRunner around the provided executor.
func NewTransactionRunner(executor GitExecutor) (*TransactionRunner, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &TransactionRunner{executor: executor}, nil
}

// Run executes each command in order against workingDirectory.
//
// Execution stops at the first command exiting non-zero; the remaining
// commands are skipped and the partial Transaction is returned with the
// accumulated output of every command attempted. A non-zero exit is never an
// error; the returned error is reserved for infrastructure failures such as a
// missing git executable.
func (runner *TransactionRunner) Run(executionContext context.Context, workingDirectory string, commands [][]string) (Transaction, error) {
	transaction := Transaction{WorkingDirectory: workingDirectory}

	for _, commandArguments := range commands {
		executionResult, executionError := runner.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        commandArguments,
			WorkingDirectory: workingDirectory,
		})
		if executionError != nil {
			commandFailure := execshell.CommandFailedError{}
			if !errors.As(executionError, &commandFailure) {
				return transaction, executionError
			}
		}

		transaction.Steps = append(transaction.Steps, StepResult{
			Command:        formatTransactionCommand(commandArguments),
			ExitCode:       executionResult.ExitCode,
			CombinedOutput: executionResult.CombinedOutput(),
		})
		if executionResult.ExitCode != 0 {
			break
		}
	}

	return transaction, nil
}

func formatTransactionCommand(commandArguments []string) string {
	commandParts := append([]string{transactionCommandPrefixConstant}, commandArguments...)
	return strings.Join(commandParts, transactionCommandSeparatorConstant)
}
