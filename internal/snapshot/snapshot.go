// Package snapshot records and reproduces the revision state of every bound
// checkout in a worktree. A snapshot is a best-effort artifact: individual
// projects whose revision cannot be read are logged and omitted rather than
// failing the whole capture.
package snapshot

import (
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	snapshotFormatVersionConstant   = 1
	snapshotFilePermissionsConstant = fs.FileMode(0o644)
)

// Entry records the captured revision of one project.
type Entry struct {
	Src      string `yaml:"src"`
	Revision string `yaml:"revision"`
}

// Snapshot is an ordered mapping from project source path to revision.
type Snapshot struct {
	Format  int     `yaml:"format"`
	Entries []Entry `yaml:"projects"`
}

// NewSnapshot constructs an empty snapshot at the current format version.
func NewSnapshot() *Snapshot {
	return &Snapshot{Format: snapshotFormatVersionConstant}
}

// Record appends or replaces the revision entry for a source path.
func (captured *Snapshot) Record(source string, revision string) {
	for entryIndex, existingEntry := range captured.Entries {
		if existingEntry.Src == source {
			captured.Entries[entryIndex].Revision = revision
			return
		}
	}
	captured.Entries = append(captured.Entries, Entry{Src: source, Revision: revision})
}

// Revision returns the recorded revision for a source path.
func (captured *Snapshot) Revision(source string) (string, bool) {
	for _, recordedEntry := range captured.Entries {
		if recordedEntry.Src == source {
			return recordedEntry.Revision, true
		}
	}
	return "", false
}

// RevisionChange pairs the before and after revisions of one project.
type RevisionChange struct {
	Before string
	After  string
}

// DiffResult describes how two snapshots differ.
type DiffResult struct {
	// Changed maps source paths present in both snapshots to their revision pair.
	Changed map[string]RevisionChange
	// Added lists source paths present only in the second snapshot, sorted ascending.
	Added []string
	// Removed lists source paths present only in the first snapshot, sorted ascending.
	Removed []string
}

// Empty reports whether the two snapshots were identical.
func (difference DiffResult) Empty() bool {
	return len(difference.Changed) == 0 && len(difference.Added) == 0 && len(difference.Removed) == 0
}

// Diff compares two snapshots entry by entry.
func Diff(before *Snapshot, after *Snapshot) DiffResult {
	difference := DiffResult{Changed: make(map[string]RevisionChange)}

	for _, beforeEntry := range before.Entries {
		afterRevision, presentAfter := after.Revision(beforeEntry.Src)
		if !presentAfter {
			difference.Removed = append(difference.Removed, beforeEntry.Src)
			continue
		}
		if afterRevision != beforeEntry.Revision {
			difference.Changed[beforeEntry.Src] = RevisionChange{Before: beforeEntry.Revision, After: afterRevision}
		}
	}
	for _, afterEntry := range after.Entries {
		if _, presentBefore := before.Revision(afterEntry.Src); !presentBefore {
			difference.Added = append(difference.Added, afterEntry.Src)
		}
	}

	sort.Strings(difference.Added)
	sort.Strings(difference.Removed)
	return difference
}

// Save serializes the snapshot to a YAML file.
func (captured *Snapshot) Save(filePath string) error {
	serialized, marshalError := yaml.Marshal(captured)
	if marshalError != nil {
		return marshalError
	}
	return os.WriteFile(filePath, serialized, snapshotFilePermissionsConstant)
}

// Load reads a snapshot from a YAML file.
func Load(filePath string) (*Snapshot, error) {
	fileContents, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, readError
	}
	loaded := &Snapshot{}
	if unmarshalError := yaml.Unmarshal(fileContents, loaded); unmarshalError != nil {
		return nil, unmarshalError
	}
	return loaded, nil
}
