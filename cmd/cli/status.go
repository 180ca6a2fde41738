package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/gitrepo"
	"github.com/forgetree/forgetree/internal/groups"
)

const (
	statusCommandUseConstant        = "status"
	statusCommandShortConstant      = "List the checkouts bound in this worktree"
	statusLineTemplateConstant      = "%-40s %-20s %s\n"
	statusUnknownFieldConstant      = "-"
	statusEmptyWorktreeMessageConst = "no checkouts bound in this worktree"
)

func (application *Application) buildStatusCommand() *cobra.Command {
	var groupFlagValues []string

	statusCommand := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			// Group definitions live in manifest documents, so filtering by
			// group requires a manifest fetch; a plain status never touches
			// the network.
			var groupIndex *groups.Index
			if len(groupFlagValues) > 0 {
				if fetchError := openedWorkspace.store.FetchAll(command.Context()); fetchError != nil {
					return fetchError
				}
				groupIndex = openedWorkspace.groupIndex()
			}

			boundProjects := openedWorkspace.index.List(groupIndex, groupFlagValues)
			if len(boundProjects) == 0 {
				fmt.Fprintln(command.OutOrStdout(), statusEmptyWorktreeMessageConst)
				return nil
			}

			for _, boundProject := range boundProjects {
				branchName := statusUnknownFieldConstant
				if currentBranch, branchError := openedWorkspace.repositoryManager.CurrentBranch(command.Context(), boundProject.Path); branchError == nil {
					branchName = currentBranch
				}

				remoteLabel := statusUnknownFieldConstant
				if defaultRemote, remoteConfigured := boundProject.DefaultRemote(); remoteConfigured {
					if parsedRemote, parseError := gitrepo.ParseRemoteURL(defaultRemote.URL); parseError == nil {
						remoteLabel = parsedRemote.Label()
					} else {
						remoteLabel = defaultRemote.URL
					}
				}

				fmt.Fprintf(command.OutOrStdout(), statusLineTemplateConstant, boundProject.Src, branchName, remoteLabel)
			}
			return nil
		},
	}

	statusCommand.Flags().StringSliceVar(&groupFlagValues, groupFlagNameConstant, nil, groupFlagUsageConstant)
	return statusCommand
}
