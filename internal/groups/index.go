// Package groups maintains named collections of project names used to scope
// sync, status, and snapshot operations to a subset of the worktree.
package groups

import (
	"fmt"
)

const (
	noSuchGroupErrorTemplateConstant = "no such group: %s"
)

// NoSuchGroupError reports a lookup against an undefined group name.
type NoSuchGroupError struct {
	Name string
}

// Error describes the missing group.
func (missing NoSuchGroupError) Error() string {
	return fmt.Sprintf(noSuchGroupErrorTemplateConstant, missing.Name)
}

// Index is a pure lookup table from group name to member project names. It
// owns no project or repository lifetimes.
type Index struct {
	groupNames  []string
	memberships map[string][]string
}

// NewIndex constructs an empty group index.
func NewIndex() *Index {
	return &Index{memberships: make(map[string][]string)}
}

// Add registers members under a group name, extending the group when the
// name is already defined. Duplicate members are kept out of the group.
func (index *Index) Add(groupName string, memberProjects []string) {
	existingMembers, groupDefined := index.memberships[groupName]
	if !groupDefined {
		index.groupNames = append(index.groupNames, groupName)
	}

	seenMembers := make(map[string]struct{}, len(existingMembers))
	for _, existingMember := range existingMembers {
		seenMembers[existingMember] = struct{}{}
	}
	for _, memberProject := range memberProjects {
		if _, alreadyMember := seenMembers[memberProject]; alreadyMember {
			continue
		}
		seenMembers[memberProject] = struct{}{}
		existingMembers = append(existingMembers, memberProject)
	}
	index.memberships[groupName] = existingMembers
}

// Names returns the defined group names in definition order.
func (index *Index) Names() []string {
	duplicated := make([]string, len(index.groupNames))
	copy(duplicated, index.groupNames)
	return duplicated
}

// Projects returns the member project names of one group in definition order.
func (index *Index) Projects(groupName string) ([]string, error) {
	memberProjects, groupDefined := index.memberships[groupName]
	if !groupDefined {
		return nil, NoSuchGroupError{Name: groupName}
	}
	duplicated := make([]string, len(memberProjects))
	copy(duplicated, memberProjects)
	return duplicated, nil
}

// Members returns the union of member project names across the requested
// groups. Group names that are not defined contribute nothing.
func (index *Index) Members(groupNames []string) map[string]struct{} {
	union := make(map[string]struct{})
	for _, groupName := range groupNames {
		for _, memberProject := range index.memberships[groupName] {
			union[memberProject] = struct{}{}
		}
	}
	return union
}
