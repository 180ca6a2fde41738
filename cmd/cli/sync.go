package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/manifest"
	"github.com/forgetree/forgetree/internal/syncer"
)

const (
	initCommandUseConstant            = "init MANIFEST_URL"
	initCommandShortConstant          = "Configure a manifest for this worktree and run a first synchronization"
	syncCommandUseConstant            = "sync"
	syncCommandShortConstant          = "Reconcile the worktree with every configured manifest"
	manifestNameFlagNameConstant      = "name"
	manifestNameFlagUsageConstant     = "Name under which the manifest is configured."
	manifestBranchFlagNameConstant    = "branch"
	manifestBranchFlagUsageConstant   = "Branch of the manifest repository to track."
	groupFlagNameConstant             = "group"
	groupFlagUsageConstant            = "Restrict the operation to the named manifest groups."
	defaultManifestNameConstant       = "default"
	syncReportLineTemplateConstant    = "%s %s\n"
	syncFailureLineTemplateConstant   = "%s %s: %v\n"
	syncFailuresErrorTemplateConstant = "%d repositories failed to synchronize"
)

func (application *Application) buildInitCommand() *cobra.Command {
	var manifestNameFlagValue string
	var manifestBranchFlagValue string
	var groupFlagValues []string

	initCommand := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			configureError := openedWorkspace.store.Configure(manifestNameFlagValue, arguments[0], manifestBranchFlagValue, groupFlagValues)
			if configureError != nil {
				return configureError
			}
			return application.runSyncPass(command, openedWorkspace, nil)
		},
	}

	initCommand.Flags().StringVar(&manifestNameFlagValue, manifestNameFlagNameConstant, defaultManifestNameConstant, manifestNameFlagUsageConstant)
	initCommand.Flags().StringVar(&manifestBranchFlagValue, manifestBranchFlagNameConstant, manifest.DefaultBranchName, manifestBranchFlagUsageConstant)
	initCommand.Flags().StringSliceVar(&groupFlagValues, groupFlagNameConstant, nil, groupFlagUsageConstant)
	return initCommand
}

func (application *Application) buildSyncCommand() *cobra.Command {
	var groupFlagValues []string

	syncCommand := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			requestedGroups := groupFlagValues
			if len(requestedGroups) == 0 {
				requestedGroups = application.configuration.Sync.Groups
			}
			return application.runSyncPass(command, openedWorkspace, requestedGroups)
		},
	}

	syncCommand.Flags().StringSliceVar(&groupFlagValues, groupFlagNameConstant, nil, groupFlagUsageConstant)
	return syncCommand
}

func (application *Application) runSyncPass(command *cobra.Command, openedWorkspace *workspace, requestedGroups []string) error {
	declaredRepos, fetchError := openedWorkspace.fetchManifests(command.Context(), requestedGroups)
	if fetchError != nil {
		return fetchError
	}

	reports, syncError := openedWorkspace.engine.Sync(command.Context(), declaredRepos)
	failureCount := reportSyncResults(command, reports)
	if syncError != nil {
		return syncError
	}
	if failureCount > 0 {
		return fmt.Errorf(syncFailuresErrorTemplateConstant, failureCount)
	}
	return nil
}

func reportSyncResults(command *cobra.Command, reports []syncer.SyncReport) int {
	failureCount := 0
	for _, report := range reports {
		if report.Err != nil {
			failureCount++
			fmt.Fprintf(command.ErrOrStderr(), syncFailureLineTemplateConstant, report.Action, report.Src, report.Err)
			continue
		}
		fmt.Fprintf(command.OutOrStdout(), syncReportLineTemplateConstant, report.Action, report.Src)
	}
	return failureCount
}
