package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/execshell"
	"github.com/forgetree/forgetree/internal/groups"
)

const (
	foreachCommandUseConstant          = "foreach -- COMMAND [ARGS...]"
	foreachCommandShortConstant        = "Run a command in every bound checkout"
	foreachHeaderLineTemplateConstant  = "--- %s\n"
	foreachFailureLineTemplateConstant = "%s: %v\n"
	foreachFailuresErrorTemplateConst  = "command failed in %d projects"
)

func (application *Application) buildForeachCommand() *cobra.Command {
	var groupFlagValues []string

	foreachCommand := &cobra.Command{
		Use:   foreachCommandUseConstant,
		Short: foreachCommandShortConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			var groupIndex *groups.Index
			if len(groupFlagValues) > 0 {
				if fetchError := openedWorkspace.store.FetchAll(command.Context()); fetchError != nil {
					return fetchError
				}
				groupIndex = openedWorkspace.groupIndex()
			}

			failureCount := 0
			for _, boundProject := range openedWorkspace.index.List(groupIndex, groupFlagValues) {
				fmt.Fprintf(command.OutOrStdout(), foreachHeaderLineTemplateConstant, boundProject.Src)

				executionResult, executionError := openedWorkspace.executor.Execute(command.Context(), execshell.ShellCommand{
					Name: execshell.CommandName(arguments[0]),
					Details: execshell.CommandDetails{
						Arguments:        arguments[1:],
						WorkingDirectory: boundProject.Path,
					},
				})
				fmt.Fprint(command.OutOrStdout(), executionResult.CombinedOutput())

				if executionError != nil {
					commandFailure := execshell.CommandFailedError{}
					if !errors.As(executionError, &commandFailure) {
						return executionError
					}
					failureCount++
					fmt.Fprintf(command.ErrOrStderr(), foreachFailureLineTemplateConstant, boundProject.Src, executionError)
				}
			}

			if failureCount > 0 {
				return fmt.Errorf(foreachFailuresErrorTemplateConst, failureCount)
			}
			return nil
		},
	}

	foreachCommand.Flags().StringSliceVar(&groupFlagValues, groupFlagNameConstant, nil, groupFlagUsageConstant)
	return foreachCommand
}
