package worktree

import (
	"errors"
	"fmt"
)

const (
	worktreeRootRequiredMessageConstant     = "worktree root must be provided"
	projectSourceRequiredMessageConstant    = "project source path must be provided"
	pathConflictErrorTemplateConstant       = "project %s conflicts with registered project %s"
	notRegisteredErrorTemplateConstant      = "project %s is not registered in this worktree"
	sourceOutsideWorktreeTemplateConstant   = "project source %s escapes the worktree root"
	sourceNotRelativeMessageTemplateConsant = "project source %s must be a relative path"
)

// ErrWorkTreeRootRequired indicates a WorkTree was constructed without a root directory.
var ErrWorkTreeRootRequired = errors.New(worktreeRootRequiredMessageConstant)

// ErrProjectSourceRequired indicates an operation received an empty source path.
var ErrProjectSourceRequired = errors.New(projectSourceRequiredMessageConstant)

// PathConflictError reports an attempt to register a project that collides with an existing one.
type PathConflictError struct {
	Src            string
	ConflictingSrc string
}

// Error describes the conflicting registration.
func (conflict PathConflictError) Error() string {
	return fmt.Sprintf(pathConflictErrorTemplateConstant, conflict.Src, conflict.ConflictingSrc)
}

// NotRegisteredError reports an operation against a source path unknown to the registry.
type NotRegisteredError struct {
	Src string
}

// Error describes the missing registration.
func (missing NotRegisteredError) Error() string {
	return fmt.Sprintf(notRegisteredErrorTemplateConstant, missing.Src)
}

// InvalidSourceError reports a source path that cannot be registered.
type InvalidSourceError struct {
	Src      string
	absolute bool
}

// Error describes why the source path was rejected.
func (invalid InvalidSourceError) Error() string {
	if invalid.absolute {
		return fmt.Sprintf(sourceNotRelativeMessageTemplateConsant, invalid.Src)
	}
	return fmt.Sprintf(sourceOutsideWorktreeTemplateConstant, invalid.Src)
}
