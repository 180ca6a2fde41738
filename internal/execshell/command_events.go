package execshell

// CommandEventObserver receives lifecycle notifications for each external
// tool invocation. The console reporter uses it to echo git activity during
// interactive runs.
type CommandEventObserver interface {
	// CommandStarted is invoked before the process is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted is invoked once the process finished, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is invoked when the process could not be started at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
