package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/gitindex"
)

const (
	adoptCommandUseConstant       = "adopt"
	adoptCommandShortConstant     = "Register existing git checkouts found under the worktree root"
	adoptedLineTemplateConstant   = "adopted %s\n"
	adoptNothingMessageConstant   = "no unregistered checkouts found"
	adoptSkippedLineTemplateConst = "skipped %s: %v\n"
)

// buildAdoptCommand walks the worktree root for checkouts that predate the
// registry, registers them, and records their remotes and branch so sync and
// snapshot passes can see them.
func (application *Application) buildAdoptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   adoptCommandUseConstant,
		Short: adoptCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			discoveredSources, discoveryError := openedWorkspace.tree.DiscoverCheckouts()
			if discoveryError != nil {
				return discoveryError
			}

			adoptedCount := 0
			for _, discoveredSource := range discoveredSources {
				if openedWorkspace.tree.HasProject(discoveredSource) {
					continue
				}
				if _, addError := openedWorkspace.tree.AddProject(discoveredSource); addError != nil {
					fmt.Fprintf(command.ErrOrStderr(), adoptSkippedLineTemplateConst, discoveredSource, addError)
					continue
				}

				adoptedProject, bound := openedWorkspace.index.Lookup(discoveredSource)
				if bound {
					if configuredRemotes, remotesError := openedWorkspace.repositoryManager.ListRemotes(command.Context(), adoptedProject.Path); remotesError == nil {
						for _, configuredRemote := range configuredRemotes {
							adoptedProject.Remotes = append(adoptedProject.Remotes, gitindex.Remote{Name: configuredRemote.Name, URL: configuredRemote.URL})
						}
					}
					if currentBranch, branchError := openedWorkspace.repositoryManager.CurrentBranch(command.Context(), adoptedProject.Path); branchError == nil {
						adoptedProject.DefaultBranch = currentBranch
					}
					if persistError := openedWorkspace.index.Persist(adoptedProject); persistError != nil {
						return persistError
					}
				}

				adoptedCount++
				fmt.Fprintf(command.OutOrStdout(), adoptedLineTemplateConstant, discoveredSource)
			}

			if adoptedCount == 0 {
				fmt.Fprintln(command.OutOrStdout(), adoptNothingMessageConstant)
			}
			return nil
		},
	}
}
