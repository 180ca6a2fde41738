package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/forgetree/forgetree/internal/snapshot"
)

const (
	snapshotCommandUseConstant          = "snapshot"
	snapshotCommandShortConstant        = "Record and reproduce whole-tree revision state"
	snapshotSaveCommandUseConstant      = "save FILE"
	snapshotSaveCommandShortConstant    = "Capture the current revision of every checkout into a file"
	snapshotDiffCommandUseConstant      = "diff FILE [FILE]"
	snapshotDiffCommandShortConstant    = "Compare a snapshot against the current tree or a second snapshot"
	snapshotRestoreCommandUseConstant   = "restore FILE"
	snapshotRestoreCommandShortConstant = "Pin every checkout back to its recorded revision"
	snapshotSavedMessageTemplateConst   = "snapshot written to %s\n"
	snapshotChangedLineTemplateConst    = "changed %s %s -> %s\n"
	snapshotAddedLineTemplateConstant   = "added %s\n"
	snapshotRemovedLineTemplateConst    = "removed %s\n"
	snapshotIdenticalMessageConstant    = "snapshots are identical"
	restoreFailureLineTemplateConstant  = "restore %s: %v\n"
	restoreFailuresErrorTemplateConst   = "%d projects failed to restore"
)

func (application *Application) buildSnapshotCommand() *cobra.Command {
	snapshotCommand := &cobra.Command{
		Use:   snapshotCommandUseConstant,
		Short: snapshotCommandShortConstant,
	}
	snapshotCommand.AddCommand(
		application.buildSnapshotSaveCommand(),
		application.buildSnapshotDiffCommand(),
		application.buildSnapshotRestoreCommand(),
	)
	return snapshotCommand
}

func (application *Application) buildSnapshotSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   snapshotSaveCommandUseConstant,
		Short: snapshotSaveCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			captured := openedWorkspace.snapshots.Capture(command.Context())
			if saveError := captured.Save(arguments[0]); saveError != nil {
				return saveError
			}
			fmt.Fprintf(command.OutOrStdout(), snapshotSavedMessageTemplateConst, arguments[0])
			return nil
		},
	}
}

func (application *Application) buildSnapshotDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   snapshotDiffCommandUseConstant,
		Short: snapshotDiffCommandShortConstant,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			before, loadError := snapshot.Load(arguments[0])
			if loadError != nil {
				return loadError
			}

			var after *snapshot.Snapshot
			if len(arguments) == 2 {
				loadedAfter, afterLoadError := snapshot.Load(arguments[1])
				if afterLoadError != nil {
					return afterLoadError
				}
				after = loadedAfter
			} else {
				after = openedWorkspace.snapshots.Capture(command.Context())
			}

			difference := snapshot.Diff(before, after)
			if difference.Empty() {
				fmt.Fprintln(command.OutOrStdout(), snapshotIdenticalMessageConstant)
				return nil
			}

			changedSources := make([]string, 0, len(difference.Changed))
			for changedSource := range difference.Changed {
				changedSources = append(changedSources, changedSource)
			}
			sort.Strings(changedSources)
			for _, changedSource := range changedSources {
				revisionChange := difference.Changed[changedSource]
				fmt.Fprintf(command.OutOrStdout(), snapshotChangedLineTemplateConst, changedSource, revisionChange.Before, revisionChange.After)
			}
			for _, addedSource := range difference.Added {
				fmt.Fprintf(command.OutOrStdout(), snapshotAddedLineTemplateConstant, addedSource)
			}
			for _, removedSource := range difference.Removed {
				fmt.Fprintf(command.OutOrStdout(), snapshotRemovedLineTemplateConst, removedSource)
			}
			return nil
		},
	}
}

func (application *Application) buildSnapshotRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   snapshotRestoreCommandUseConstant,
		Short: snapshotRestoreCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			openedWorkspace, workspaceError := application.openWorkspace()
			if workspaceError != nil {
				return workspaceError
			}

			recorded, loadError := snapshot.Load(arguments[0])
			if loadError != nil {
				return loadError
			}

			reports, restoreError := openedWorkspace.snapshots.Restore(command.Context(), recorded)
			if restoreError != nil {
				return restoreError
			}

			failureCount := 0
			for _, report := range reports {
				if report.Err != nil {
					failureCount++
					fmt.Fprintf(command.ErrOrStderr(), restoreFailureLineTemplateConstant, report.Src, report.Err)
				}
			}
			if failureCount > 0 {
				return fmt.Errorf(restoreFailuresErrorTemplateConst, failureCount)
			}
			return nil
		},
	}
}
