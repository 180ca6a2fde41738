package snapshot

import (
	"fmt"
	"strings"
)

const (
	projectNotBoundErrorTemplateConstant = "project not bound in this worktree: %s"
	restoreFailedErrorTemplateConstant   = "restore failed for %s: %s"
)

// ProjectNotBoundError reports a snapshot entry whose source path no longer
// names a bound checkout.
type ProjectNotBoundError struct {
	Src string
}

// Error describes the missing binding.
func (missing ProjectNotBoundError) Error() string {
	return fmt.Sprintf(projectNotBoundErrorTemplateConstant, missing.Src)
}

// RestoreFailedError reports a restore transaction that did not complete for
// one project, with the captured combined output of the attempted steps.
type RestoreFailedError struct {
	Src    string
	Output string
}

// Error describes the failed restore with its captured output.
func (failure RestoreFailedError) Error() string {
	return fmt.Sprintf(restoreFailedErrorTemplateConstant, failure.Src, strings.TrimSpace(failure.Output))
}
