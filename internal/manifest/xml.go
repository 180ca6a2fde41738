package manifest

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	repoProjectMissingMessageConstant    = "manifest repo element missing project attribute"
	remoteNameMissingMessageConstant     = "manifest remote element missing name attribute"
	remoteURLMissingMessageConstant      = "manifest remote element missing url attribute"
	unknownRemoteErrorTemplateConstant   = "manifest repo %s references unknown remote %s"
	duplicateSourceErrorTemplateConstant = "manifest declares source %s more than once (%s and %s)"
	noRemotesErrorMessageConstant        = "manifest declares repositories but no remotes"
)

// DuplicateSourceError reports two manifest repos colliding on a source path.
type DuplicateSourceError struct {
	Src           string
	FirstProject  string
	SecondProject string
}

// Error describes the colliding declarations.
func (duplicate DuplicateSourceError) Error() string {
	return fmt.Sprintf(duplicateSourceErrorTemplateConstant, duplicate.Src, duplicate.FirstProject, duplicate.SecondProject)
}

type manifestDocumentXML struct {
	XMLName xml.Name           `xml:"manifest"`
	Remotes []remoteElementXML `xml:"remote"`
	Repos   []repoElementXML   `xml:"repo"`
	Groups  groupsElementXML   `xml:"groups"`
}

type remoteElementXML struct {
	Name string `xml:"name,attr"`
	URL  string `xml:"url,attr"`
}

type repoElementXML struct {
	Project string `xml:"project,attr"`
	Src     string `xml:"src,attr"`
	Branch  string `xml:"branch,attr"`
	Remotes string `xml:"remotes,attr"`
}

type groupsElementXML struct {
	Groups []groupElementXML `xml:"group"`
}

type groupElementXML struct {
	Name     string                   `xml:"name,attr"`
	Projects []groupProjectElementXML `xml:"project"`
}

type groupProjectElementXML struct {
	Name string `xml:"name,attr"`
}

// ParseDocument decodes a manifest XML document into its declared repository
// set and group definitions.
func ParseDocument(documentContents []byte) (*Document, error) {
	var documentXML manifestDocumentXML
	if unmarshalError := xml.Unmarshal(documentContents, &documentXML); unmarshalError != nil {
		return nil, unmarshalError
	}

	remotePrefixes := make(map[string]string, len(documentXML.Remotes))
	remoteOrder := make([]string, 0, len(documentXML.Remotes))
	for _, remoteElement := range documentXML.Remotes {
		trimmedName := strings.TrimSpace(remoteElement.Name)
		if len(trimmedName) == 0 {
			return nil, fmt.Errorf(remoteNameMissingMessageConstant)
		}
		trimmedURL := strings.TrimSpace(remoteElement.URL)
		if len(trimmedURL) == 0 {
			return nil, fmt.Errorf(remoteURLMissingMessageConstant)
		}
		if _, alreadyDeclared := remotePrefixes[trimmedName]; !alreadyDeclared {
			remoteOrder = append(remoteOrder, trimmedName)
		}
		remotePrefixes[trimmedName] = trimmedURL
	}

	if len(documentXML.Repos) > 0 && len(remotePrefixes) == 0 {
		return nil, fmt.Errorf(noRemotesErrorMessageConstant)
	}

	groupMembership := make(map[string][]string)
	groupDefinitions := make([]GroupDefinition, 0, len(documentXML.Groups.Groups))
	for _, groupElement := range documentXML.Groups.Groups {
		definition := GroupDefinition{Name: strings.TrimSpace(groupElement.Name)}
		for _, memberElement := range groupElement.Projects {
			memberName := strings.TrimSpace(memberElement.Name)
			definition.Projects = append(definition.Projects, memberName)
			groupMembership[memberName] = append(groupMembership[memberName], definition.Name)
		}
		groupDefinitions = append(groupDefinitions, definition)
	}

	document := &Document{Groups: groupDefinitions}
	declaredSources := make(map[string]string)
	for _, repoElement := range documentXML.Repos {
		projectName := strings.TrimSpace(repoElement.Project)
		if len(projectName) == 0 {
			return nil, fmt.Errorf(repoProjectMissingMessageConstant)
		}

		source := strings.TrimSpace(repoElement.Src)
		if len(source) == 0 {
			source = DefaultSourceFor(projectName)
		}
		if firstProject, alreadyDeclared := declaredSources[source]; alreadyDeclared {
			return nil, DuplicateSourceError{Src: source, FirstProject: firstProject, SecondProject: projectName}
		}
		declaredSources[source] = projectName

		branchName := strings.TrimSpace(repoElement.Branch)
		if len(branchName) == 0 {
			branchName = DefaultBranchName
		}

		remoteNames := strings.Fields(repoElement.Remotes)
		if len(remoteNames) == 0 {
			remoteNames = remoteOrder[:1]
		}

		repo := Repo{
			ProjectName:   projectName,
			Src:           source,
			DefaultBranch: branchName,
			Groups:        groupMembership[projectName],
		}
		for _, remoteName := range remoteNames {
			remotePrefix, remoteDeclared := remotePrefixes[remoteName]
			if !remoteDeclared {
				return nil, fmt.Errorf(unknownRemoteErrorTemplateConstant, projectName, remoteName)
			}
			repo.RemoteNames = append(repo.RemoteNames, remoteName)
			repo.URLs = append(repo.URLs, JoinRemoteURL(remotePrefix, projectName))
		}

		document.Repos = append(document.Repos, repo)
	}

	return document, nil
}
