package worktree

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// ConfigurationDirectoryNameConstant is the worktree-scoped directory holding engine state.
	ConfigurationDirectoryNameConstant = ".forgetree"
	registryFileNameConstant           = "worktree.xml"
	configurationDirectoryPermissions  = fs.FileMode(0o755)
	registryFilePermissionsConstant    = fs.FileMode(0o644)
	registryLoadErrorLogMessage        = "failed to load worktree registry"
	projectAddedLogMessageConstant     = "project registered"
	projectRemovedLogMessageConstant   = "project removed"
	projectSourceLogFieldNameConstant  = "src"
)

// Observer receives synchronous notifications about registry mutations.
type Observer interface {
	// OnProjectAdded is invoked after a project has been registered and persisted.
	OnProjectAdded(project Project)
	// OnProjectRemoved is invoked after a project has been removed and the registry persisted.
	OnProjectRemoved(project Project)
}

// WorkTree is the registry of projects checked out under one root directory.
type WorkTree struct {
	root      string
	logger    *zap.Logger
	projects  []Project
	observers []Observer
}

type registryDocument struct {
	XMLName  xml.Name                  `xml:"worktree"`
	Projects []registryProjectFragment `xml:"project"`
}

type registryProjectFragment struct {
	Src string `xml:"src,attr"`
}

// NewWorkTree opens or initializes the registry rooted at rootDirectory.
func NewWorkTree(rootDirectory string, logger *zap.Logger) (*WorkTree, error) {
	trimmedRoot := strings.TrimSpace(rootDirectory)
	if len(trimmedRoot) == 0 {
		return nil, ErrWorkTreeRootRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	absoluteRoot, absoluteError := filepath.Abs(trimmedRoot)
	if absoluteError != nil {
		return nil, absoluteError
	}

	instance := &WorkTree{root: absoluteRoot, logger: logger}
	if directoryError := os.MkdirAll(instance.ConfigurationDirectory(), configurationDirectoryPermissions); directoryError != nil {
		return nil, directoryError
	}
	if loadError := instance.load(); loadError != nil {
		logger.Error(registryLoadErrorLogMessage, zap.Error(loadError))
		return nil, loadError
	}
	return instance, nil
}

// Root returns the absolute worktree root directory.
func (tree *WorkTree) Root() string {
	return tree.root
}

// ConfigurationDirectory returns the engine-owned state directory inside the worktree.
func (tree *WorkTree) ConfigurationDirectory() string {
	return filepath.Join(tree.root, ConfigurationDirectoryNameConstant)
}

// Register subscribes an observer to registry mutations.
func (tree *WorkTree) Register(observer Observer) {
	if observer == nil {
		return
	}
	tree.observers = append(tree.observers, observer)
}

// Projects returns the registered projects in registration order.
func (tree *WorkTree) Projects() []Project {
	duplicated := make([]Project, len(tree.projects))
	copy(duplicated, tree.projects)
	return duplicated
}

// ProjectPath resolves a source path to its absolute location under the root.
func (tree *WorkTree) ProjectPath(source string) string {
	return filepath.Join(tree.root, filepath.FromSlash(source))
}

// HasProject reports whether the source path is registered.
func (tree *WorkTree) HasProject(source string) bool {
	normalizedSource, normalizeError := NormalizeSource(source)
	if normalizeError != nil {
		return false
	}
	for _, registeredProject := range tree.projects {
		if registeredProject.Src == normalizedSource {
			return true
		}
	}
	return false
}

// AddProject registers a new project source path.
//
// The registration fails with PathConflictError when the source is already
// registered or resolves inside an existing project. Observers are notified
// synchronously before the call returns.
func (tree *WorkTree) AddProject(source string) (Project, error) {
	normalizedSource, normalizeError := NormalizeSource(source)
	if normalizeError != nil {
		return Project{}, normalizeError
	}

	for _, registeredProject := range tree.projects {
		if sourceContains(registeredProject.Src, normalizedSource) {
			return Project{}, PathConflictError{Src: normalizedSource, ConflictingSrc: registeredProject.Src}
		}
	}

	addedProject := Project{Src: normalizedSource, Path: tree.ProjectPath(normalizedSource)}
	tree.projects = append(tree.projects, addedProject)
	if saveError := tree.save(); saveError != nil {
		tree.projects = tree.projects[:len(tree.projects)-1]
		return Project{}, saveError
	}

	tree.logger.Debug(projectAddedLogMessageConstant, zap.String(projectSourceLogFieldNameConstant, addedProject.Src))
	for _, registeredObserver := range tree.observers {
		registeredObserver.OnProjectAdded(addedProject)
	}
	return addedProject, nil
}

// RemoveProject deregisters a project, optionally deleting its directory.
//
// Removal fails with NotRegisteredError when the source is unknown. Observers
// are notified synchronously once the registry mutation is persisted; a
// failure deleting the directory is reported after notification, since the
// project is already deregistered at that point.
func (tree *WorkTree) RemoveProject(source string, fromDisk bool) error {
	normalizedSource, normalizeError := NormalizeSource(source)
	if normalizeError != nil {
		return normalizeError
	}

	projectIndex := -1
	for candidateIndex, registeredProject := range tree.projects {
		if registeredProject.Src == normalizedSource {
			projectIndex = candidateIndex
			break
		}
	}
	if projectIndex < 0 {
		return NotRegisteredError{Src: normalizedSource}
	}

	removedProject := tree.projects[projectIndex]
	tree.projects = append(tree.projects[:projectIndex], tree.projects[projectIndex+1:]...)
	if saveError := tree.save(); saveError != nil {
		return saveError
	}

	tree.logger.Debug(projectRemovedLogMessageConstant, zap.String(projectSourceLogFieldNameConstant, removedProject.Src))
	for _, registeredObserver := range tree.observers {
		registeredObserver.OnProjectRemoved(removedProject)
	}

	if fromDisk {
		return os.RemoveAll(removedProject.Path)
	}
	return nil
}

func (tree *WorkTree) registryFilePath() string {
	return filepath.Join(tree.ConfigurationDirectory(), registryFileNameConstant)
}

func (tree *WorkTree) load() error {
	registryContents, readError := os.ReadFile(tree.registryFilePath())
	if readError != nil {
		if os.IsNotExist(readError) {
			return tree.save()
		}
		return readError
	}

	var document registryDocument
	if unmarshalError := xml.Unmarshal(registryContents, &document); unmarshalError != nil {
		return unmarshalError
	}

	tree.projects = tree.projects[:0]
	for _, projectFragment := range document.Projects {
		normalizedSource, normalizeError := NormalizeSource(projectFragment.Src)
		if normalizeError != nil {
			return normalizeError
		}
		tree.projects = append(tree.projects, Project{Src: normalizedSource, Path: tree.ProjectPath(normalizedSource)})
	}
	return nil
}

func (tree *WorkTree) save() error {
	document := registryDocument{}
	for _, registeredProject := range tree.projects {
		document.Projects = append(document.Projects, registryProjectFragment{Src: registeredProject.Src})
	}

	serialized, marshalError := xml.MarshalIndent(document, "", "  ")
	if marshalError != nil {
		return marshalError
	}
	serialized = append(serialized, '\n')
	return os.WriteFile(tree.registryFilePath(), serialized, registryFilePermissionsConstant)
}
