package gitindex

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/forgetree/forgetree/internal/gitrepo"
	"github.com/forgetree/forgetree/internal/groups"
	"github.com/forgetree/forgetree/internal/worktree"
)

const (
	gitConfigurationFileNameConstant   = "git.xml"
	gitConfigurationFilePermissions    = fs.FileMode(0o644)
	indexRebuiltLogMessageConstant     = "git project index rebuilt"
	projectPersistedLogMessageConstant = "git project persisted"
	boundProjectCountLogFieldConstant  = "bound_projects"
	projectSourceLogFieldNameConstant  = "src"
)

type gitDocumentXML struct {
	XMLName  xml.Name             `xml:"git"`
	Projects []gitProjectFragment `xml:"project"`
}

type gitProjectFragment struct {
	Src     string              `xml:"src,attr"`
	Name    string              `xml:"name,attr,omitempty"`
	Branch  string              `xml:"branch,attr,omitempty"`
	Remotes []gitRemoteFragment `xml:"remote"`
}

type gitRemoteFragment struct {
	Name string `xml:"name,attr"`
	URL  string `xml:"url,attr"`
}

// Index binds registry projects to git metadata and keeps the binding
// persisted in the worktree configuration file.
type Index struct {
	tree     *worktree.WorkTree
	logger   *zap.Logger
	document gitDocumentXML
	projects []*GitProject
}

// NewIndex loads the persisted git bindings, performs an initial rebuild, and
// subscribes to registry change notifications.
func NewIndex(tree *worktree.WorkTree, logger *zap.Logger) (*Index, error) {
	if tree == nil {
		return nil, worktree.ErrWorkTreeRootRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	index := &Index{tree: tree, logger: logger}
	if loadError := index.load(); loadError != nil {
		return nil, loadError
	}
	index.Rebuild()
	tree.Register(index)
	return index, nil
}

// OnProjectAdded implements worktree.Observer by rebuilding the binding.
func (index *Index) OnProjectAdded(worktree.Project) {
	index.Rebuild()
}

// OnProjectRemoved implements worktree.Observer by rebuilding the binding.
func (index *Index) OnProjectRemoved(worktree.Project) {
	index.Rebuild()
}

// Rebuild recomputes the git binding for every registered project.
//
// Projects whose directory is not a valid git checkout are skipped, which is
// also what keeps half-cloned debris out of the index. Rebuilding is
// deterministic and idempotent, so double notification is harmless.
func (index *Index) Rebuild() {
	index.projects = index.projects[:0]
	for _, registeredProject := range index.tree.Projects() {
		if !gitrepo.IsGitCheckout(registeredProject.Path) {
			continue
		}

		boundProject := &GitProject{Src: registeredProject.Src, Path: registeredProject.Path}
		if fragment, fragmentExists := index.fragmentFor(registeredProject.Src); fragmentExists {
			boundProject.ProjectName = fragment.Name
			boundProject.DefaultBranch = fragment.Branch
			for _, remoteFragment := range fragment.Remotes {
				boundProject.Remotes = append(boundProject.Remotes, Remote{Name: remoteFragment.Name, URL: remoteFragment.URL})
			}
		}
		index.projects = append(index.projects, boundProject)
	}
	index.logger.Debug(indexRebuiltLogMessageConstant, zap.Int(boundProjectCountLogFieldConstant, len(index.projects)))
}

// Lookup returns the git project bound to the given source path.
func (index *Index) Lookup(source string) (*GitProject, bool) {
	normalizedSource, normalizeError := worktree.NormalizeSource(source)
	if normalizeError != nil {
		return nil, false
	}
	for _, boundProject := range index.projects {
		if boundProject.Src == normalizedSource {
			return boundProject, true
		}
	}
	return nil, false
}

// LookupByURL returns the first git project with a remote carrying the URL.
//
// A miss is a normal not-found result, not an error: callers decide whether
// an unmatched URL means "clone" or "skip".
func (index *Index) LookupByURL(remoteURL string) (*GitProject, bool) {
	for _, boundProject := range index.projects {
		if boundProject.HasRemoteURL(remoteURL) {
			return boundProject, true
		}
	}
	return nil, false
}

// FindRepo returns the first git project matching any of the candidate URLs.
func (index *Index) FindRepo(candidateURLs []string) (*GitProject, bool) {
	for _, candidateURL := range candidateURLs {
		if matchedProject, matched := index.LookupByURL(candidateURL); matched {
			return matchedProject, true
		}
	}
	return nil, false
}

// List returns bound git projects sorted by source path ascending.
//
// When group names are provided, only projects whose name belongs to at least
// one requested group are returned; overlapping groups yield no duplicates.
func (index *Index) List(groupIndex *groups.Index, groupNames []string) []*GitProject {
	var selectedProjects []*GitProject
	if len(groupNames) == 0 || groupIndex == nil {
		selectedProjects = append(selectedProjects, index.projects...)
	} else {
		requestedMembers := groupIndex.Members(groupNames)
		for _, boundProject := range index.projects {
			if _, isMember := requestedMembers[boundProject.Name()]; isMember {
				selectedProjects = append(selectedProjects, boundProject)
			}
		}
	}

	sort.Slice(selectedProjects, func(firstIndex, secondIndex int) bool {
		return selectedProjects[firstIndex].Src < selectedProjects[secondIndex].Src
	})
	return selectedProjects
}

// Persist stores one project's binding in the configuration file, replacing
// any prior fragment with the same source path. Writing identical logical
// state twice produces byte-identical file contents.
func (index *Index) Persist(project *GitProject) error {
	fragment := gitProjectFragment{Src: project.Src, Name: project.ProjectName, Branch: project.DefaultBranch}
	for _, configuredRemote := range project.Remotes {
		fragment.Remotes = append(fragment.Remotes, gitRemoteFragment{Name: configuredRemote.Name, URL: configuredRemote.URL})
	}

	replaced := false
	for fragmentIndex, existingFragment := range index.document.Projects {
		if existingFragment.Src == fragment.Src {
			index.document.Projects[fragmentIndex] = fragment
			replaced = true
			break
		}
	}
	if !replaced {
		index.document.Projects = append(index.document.Projects, fragment)
	}

	if saveError := index.save(); saveError != nil {
		return saveError
	}
	index.logger.Debug(projectPersistedLogMessageConstant, zap.String(projectSourceLogFieldNameConstant, project.Src))
	return nil
}

// Forget drops the persisted fragment for a source path, if any.
func (index *Index) Forget(source string) error {
	for fragmentIndex, existingFragment := range index.document.Projects {
		if existingFragment.Src == source {
			index.document.Projects = append(index.document.Projects[:fragmentIndex], index.document.Projects[fragmentIndex+1:]...)
			return index.save()
		}
	}
	return nil
}

func (index *Index) configurationFilePath() string {
	return filepath.Join(index.tree.ConfigurationDirectory(), gitConfigurationFileNameConstant)
}

func (index *Index) fragmentFor(source string) (gitProjectFragment, bool) {
	for _, existingFragment := range index.document.Projects {
		if existingFragment.Src == source {
			return existingFragment, true
		}
	}
	return gitProjectFragment{}, false
}

func (index *Index) load() error {
	documentContents, readError := os.ReadFile(index.configurationFilePath())
	if readError != nil {
		if os.IsNotExist(readError) {
			return index.save()
		}
		return readError
	}
	return xml.Unmarshal(documentContents, &index.document)
}

func (index *Index) save() error {
	serialized, marshalError := xml.MarshalIndent(index.document, "", "  ")
	if marshalError != nil {
		return marshalError
	}
	serialized = append(serialized, '\n')
	return os.WriteFile(index.configurationFilePath(), serialized, gitConfigurationFilePermissions)
}
