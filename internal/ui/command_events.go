// Package ui renders subprocess lifecycle events as concise human-readable
// console messages while detailed telemetry keeps flowing through structured
// loggers.
package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/forgetree/forgetree/internal/execshell"
)

const (
	commandStartedMessageTemplateConstant   = "Running %s"
	commandCompletedMessageTemplateConstant = "Completed %s"
	commandFailedMessageTemplateConstant    = "%s failed with exit code %d"
	commandErroredMessageTemplateConstant   = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandPartsSeparatorConstant           = " "
	unknownFailureMessageConstant           = "unknown error"
)

// ConsoleCommandEventLogger renders command lifecycle events through a zap
// logger configured for console output. It implements
// execshell.CommandEventObserver.
type ConsoleCommandEventLogger struct {
	logger *zap.Logger
}

// NewConsoleCommandEventLogger constructs an event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted logs a command about to run.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	eventLogger.logger.Info(fmt.Sprintf(commandStartedMessageTemplateConstant, commandLabel(command)))
}

// CommandCompleted logs a finished command, warning when it exited non-zero.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if result.ExitCode == 0 {
		eventLogger.logger.Info(fmt.Sprintf(commandCompletedMessageTemplateConstant, commandLabel(command)))
		return
	}

	failureMessage := fmt.Sprintf(commandFailedMessageTemplateConstant, commandLabel(command), result.ExitCode)
	if trimmedStandardError := strings.TrimSpace(result.StandardError); len(trimmedStandardError) > 0 {
		failureMessage += fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	eventLogger.logger.Warn(failureMessage)
}

// CommandExecutionFailed logs a command that could not be executed at all.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Error(fmt.Sprintf(commandErroredMessageTemplateConstant, commandLabel(command), failureMessage))
}

func commandLabel(command execshell.ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	label := strings.Join(commandParts, commandPartsSeparatorConstant)
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return label
}
