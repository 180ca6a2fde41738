package snapshot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/forgetree/forgetree/internal/gitindex"
	"github.com/forgetree/forgetree/internal/gitrepo"
	"github.com/forgetree/forgetree/internal/manifest"
)

const (
	snapshotServiceMissingMessageConstant = "snapshot service dependencies not configured"
	captureSkippedLogMessageConstant      = "revision unavailable, project omitted from snapshot"
	restoreSkippedLogMessageConstant      = "recorded project not bound, restore skipped"
	restoreFailedLogMessageConstant       = "restore failed"
	snapshotSourceLogFieldNameConstant    = "src"
)

// ErrServiceDependenciesNotConfigured indicates a Service was built without
// its required collaborators.
var ErrServiceDependenciesNotConfigured = errors.New(snapshotServiceMissingMessageConstant)

// RestoreReport is the per-project outcome of a restore pass.
type RestoreReport struct {
	Src string
	Err error
}

// Service captures and reproduces whole-tree revision state.
type Service struct {
	index             *gitindex.Index
	repositoryManager *gitrepo.RepositoryManager
	transactionRunner *gitrepo.TransactionRunner
	logger            *zap.Logger
}

// NewService validates the collaborators and constructs a Service.
func NewService(index *gitindex.Index, repositoryManager *gitrepo.RepositoryManager, transactionRunner *gitrepo.TransactionRunner, logger *zap.Logger) (*Service, error) {
	if index == nil || repositoryManager == nil || transactionRunner == nil {
		return nil, ErrServiceDependenciesNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:             index,
		repositoryManager: repositoryManager,
		transactionRunner: transactionRunner,
		logger:            logger,
	}, nil
}

// Capture records the current revision of every bound project, in source
// path order. Projects whose revision cannot be read are logged and omitted.
func (service *Service) Capture(executionContext context.Context) *Snapshot {
	captured := NewSnapshot()
	for _, boundProject := range service.index.List(nil, nil) {
		currentRevision, revisionError := service.repositoryManager.CurrentRevision(executionContext, boundProject.Path)
		if revisionError != nil {
			service.logger.Warn(captureSkippedLogMessageConstant,
				zap.String(snapshotSourceLogFieldNameConstant, boundProject.Src),
				zap.Error(revisionError))
			continue
		}
		captured.Record(boundProject.Src, currentRevision)
	}
	return captured
}

// Restore pins every recorded project back to its snapshot revision by
// fetching its default remote and detaching onto the revision.
//
// Like capture, restore is per-entry fallible: projects no longer bound, and
// projects whose fetch or checkout fails, are reported without stopping the
// pass. The returned error is reserved for infrastructure failures.
func (service *Service) Restore(executionContext context.Context, recorded *Snapshot) ([]RestoreReport, error) {
	var reports []RestoreReport
	for _, recordedEntry := range recorded.Entries {
		boundProject, bound := service.index.Lookup(recordedEntry.Src)
		if !bound {
			service.logger.Warn(restoreSkippedLogMessageConstant,
				zap.String(snapshotSourceLogFieldNameConstant, recordedEntry.Src))
			reports = append(reports, RestoreReport{
				Src: recordedEntry.Src,
				Err: ProjectNotBoundError{Src: recordedEntry.Src},
			})
			continue
		}

		remoteName := manifest.DefaultRemoteName
		if defaultRemote, remoteConfigured := boundProject.DefaultRemote(); remoteConfigured {
			remoteName = defaultRemote.Name
		}

		transaction, runError := service.transactionRunner.Run(executionContext, boundProject.Path,
			gitrepo.RestoreCommands(remoteName, recordedEntry.Revision))
		if runError != nil {
			return reports, runError
		}
		if !transaction.Ok() {
			restoreFailure := RestoreFailedError{Src: recordedEntry.Src, Output: transaction.Output()}
			service.logger.Warn(restoreFailedLogMessageConstant,
				zap.String(snapshotSourceLogFieldNameConstant, recordedEntry.Src),
				zap.Error(restoreFailure))
			reports = append(reports, RestoreReport{Src: recordedEntry.Src, Err: restoreFailure})
			continue
		}
		reports = append(reports, RestoreReport{Src: recordedEntry.Src})
	}
	return reports, nil
}
