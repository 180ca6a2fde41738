package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/manifest"
)

const (
	manifestCommandUseConstant         = "manifest"
	manifestCommandShortConstant       = "Manage the manifests configured for this worktree"
	manifestAddCommandUseConstant      = "add NAME URL"
	manifestAddCommandShortConstant    = "Configure a manifest source"
	manifestRemoveCommandUseConstant   = "remove NAME"
	manifestRemoveCommandShortConstant = "Drop a configured manifest source"
	manifestListCommandUseConstant     = "list"
	manifestListCommandShortConstant   = "List the configured manifest sources"
	manifestListLineTemplateConstant   = "%-16s %-8s %-48s %s\n"
	manifestNoGroupsPlaceholderConst   = "-"
	manifestGroupsJoinSeparatorConst   = ","
	manifestNoneConfiguredMessageConst = "no manifests configured"
)

func (application *Application) buildManifestCommand() *cobra.Command {
	manifestCommand := &cobra.Command{
		Use:   manifestCommandUseConstant,
		Short: manifestCommandShortConstant,
	}
	manifestCommand.AddCommand(
		application.buildManifestAddCommand(),
		application.buildManifestRemoveCommand(),
		application.buildManifestListCommand(),
	)
	return manifestCommand
}

func (application *Application) buildManifestAddCommand() *cobra.Command {
	var manifestBranchFlagValue string
	var groupFlagValues []string

	addCommand := &cobra.Command{
		Use:   manifestAddCommandUseConstant,
		Short: manifestAddCommandShortConstant,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}
			return openedWorkspace.store.Configure(arguments[0], arguments[1], manifestBranchFlagValue, groupFlagValues)
		},
	}

	addCommand.Flags().StringVar(&manifestBranchFlagValue, manifestBranchFlagNameConstant, manifest.DefaultBranchName, manifestBranchFlagUsageConstant)
	addCommand.Flags().StringSliceVar(&groupFlagValues, groupFlagNameConstant, nil, groupFlagUsageConstant)
	return addCommand
}

func (application *Application) buildManifestRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   manifestRemoveCommandUseConstant,
		Short: manifestRemoveCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}
			return openedWorkspace.store.Remove(arguments[0])
		},
	}
}

func (application *Application) buildManifestListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   manifestListCommandUseConstant,
		Short: manifestListCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			configuredManifests := openedWorkspace.store.Manifests()
			if len(configuredManifests) == 0 {
				fmt.Fprintln(command.OutOrStdout(), manifestNoneConfiguredMessageConst)
				return nil
			}
			for _, configuredManifest := range configuredManifests {
				groupsColumn := manifestNoGroupsPlaceholderConst
				if len(configuredManifest.GroupFilter) > 0 {
					groupsColumn = strings.Join(configuredManifest.GroupFilter, manifestGroupsJoinSeparatorConst)
				}
				fmt.Fprintf(command.OutOrStdout(), manifestListLineTemplateConstant,
					configuredManifest.Name, configuredManifest.Branch, configuredManifest.URL, groupsColumn)
			}
			return nil
		},
	}
}
