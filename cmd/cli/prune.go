package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	pruneCommandUseConstant         = "prune"
	pruneCommandShortConstant       = "Remove checkouts whose remotes appear in no configured manifest"
	pruneDryRunFlagNameConstant     = "dry-run"
	pruneDryRunFlagUsageConstant    = "List the checkouts that would be pruned without removing anything."
	pruneFromDiskFlagNameConstant   = "from-disk"
	pruneFromDiskFlagUsageConstant  = "Also delete the pruned checkout directories."
	pruneCandidateLineTemplateConst = "would prune %s\n"
	prunedLineTemplateConstant      = "pruned %s\n"
	pruneNothingMessageConstant     = "nothing to prune"
)

// Pruning is deliberately its own command: a sync pass never deletes
// checkouts that fell out of the manifests.
func (application *Application) buildPruneCommand() *cobra.Command {
	var dryRunFlagValue bool
	var fromDiskFlagValue bool

	pruneCommand := &cobra.Command{
		Use:   pruneCommandUseConstant,
		Short: pruneCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			declaredRepos, fetchError := openedWorkspace.fetchManifests(command.Context(), nil)
			if fetchError != nil {
				return fetchError
			}

			if dryRunFlagValue {
				candidates := openedWorkspace.engine.Unmatched(declaredRepos)
				if len(candidates) == 0 {
					fmt.Fprintln(command.OutOrStdout(), pruneNothingMessageConstant)
					return nil
				}
				for _, candidate := range candidates {
					fmt.Fprintf(command.OutOrStdout(), pruneCandidateLineTemplateConst, candidate.Src)
				}
				return nil
			}

			prunedSources, pruneError := openedWorkspace.engine.Prune(declaredRepos, fromDiskFlagValue)
			for _, prunedSource := range prunedSources {
				fmt.Fprintf(command.OutOrStdout(), prunedLineTemplateConstant, prunedSource)
			}
			if pruneError != nil {
				return pruneError
			}
			if len(prunedSources) == 0 {
				fmt.Fprintln(command.OutOrStdout(), pruneNothingMessageConstant)
			}
			return nil
		},
	}

	pruneCommand.Flags().BoolVar(&dryRunFlagValue, pruneDryRunFlagNameConstant, false, pruneDryRunFlagUsageConstant)
	pruneCommand.Flags().BoolVar(&fromDiskFlagValue, pruneFromDiskFlagNameConstant, false, pruneFromDiskFlagUsageConstant)
	return pruneCommand
}
