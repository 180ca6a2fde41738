package manifest

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	storeFileNameConstant                = "manifests.xml"
	storeFilePermissionsConstant         = fs.FileMode(0o644)
	manifestNameRequiredMessageConstant  = "manifest name must be provided"
	manifestURLRequiredMessageConstant   = "manifest url must be provided"
	fetcherNotConfiguredMessageConstant  = "manifest fetcher not configured"
	notConfiguredErrorTemplateConstant   = "manifest %s is not configured"
	manifestConfiguredLogMessageConstant = "manifest configured"
	manifestRemovedLogMessageConstant    = "manifest removed"
	manifestFetchedLogMessageConstant    = "manifest fetched"
	manifestNameLogFieldNameConstant     = "manifest"
	repoCountLogFieldNameConstant        = "repo_count"
)

// ErrManifestNameRequired indicates a store operation received an empty manifest name.
var ErrManifestNameRequired = errors.New(manifestNameRequiredMessageConstant)

// ErrManifestURLRequired indicates a manifest was configured without a URL.
var ErrManifestURLRequired = errors.New(manifestURLRequiredMessageConstant)

// ErrFetcherNotConfigured indicates the store was built without a fetcher.
var ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)

// NotConfiguredError reports an operation against an unknown manifest name.
type NotConfiguredError struct {
	Name string
}

// Error describes the missing configuration.
func (missing NotConfiguredError) Error() string {
	return fmt.Sprintf(notConfiguredErrorTemplateConstant, missing.Name)
}

// Store keeps the ordered set of configured manifests for one worktree.
type Store struct {
	configurationDirectory string
	fetcher                Fetcher
	logger                 *zap.Logger
	manifests              []*Manifest
}

type storeDocumentXML struct {
	XMLName   xml.Name             `xml:"manifests"`
	Manifests []storeManifestEntry `xml:"manifest"`
}

type storeManifestEntry struct {
	Name   string `xml:"name,attr"`
	URL    string `xml:"url,attr"`
	Branch string `xml:"branch,attr"`
	Groups string `xml:"groups,attr,omitempty"`
}

// NewStore opens the manifest configuration stored below configurationDirectory.
func NewStore(configurationDirectory string, fetcher Fetcher, logger *zap.Logger) (*Store, error) {
	if fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &Store{configurationDirectory: configurationDirectory, fetcher: fetcher, logger: logger}
	if loadError := store.load(); loadError != nil {
		return nil, loadError
	}
	return store, nil
}

// Manifests returns the configured manifests in configuration order.
func (store *Store) Manifests() []*Manifest {
	duplicated := make([]*Manifest, len(store.manifests))
	copy(duplicated, store.manifests)
	return duplicated
}

// Lookup returns the configured manifest with the given name.
func (store *Store) Lookup(manifestName string) (*Manifest, bool) {
	for _, configured := range store.manifests {
		if configured.Name == manifestName {
			return configured, true
		}
	}
	return nil, false
}

// Configure registers or replaces a named manifest and persists the configuration.
func (store *Store) Configure(manifestName string, manifestURL string, branchName string, groupFilter []string) error {
	trimmedName := strings.TrimSpace(manifestName)
	if len(trimmedName) == 0 {
		return ErrManifestNameRequired
	}
	trimmedURL := strings.TrimSpace(manifestURL)
	if len(trimmedURL) == 0 {
		return ErrManifestURLRequired
	}

	trimmedBranch := strings.TrimSpace(branchName)
	if len(trimmedBranch) == 0 {
		trimmedBranch = DefaultBranchName
	}

	configured := &Manifest{Name: trimmedName, URL: trimmedURL, Branch: trimmedBranch, GroupFilter: groupFilter}
	replaced := false
	for manifestIndex, existing := range store.manifests {
		if existing.Name == trimmedName {
			store.manifests[manifestIndex] = configured
			replaced = true
			break
		}
	}
	if !replaced {
		store.manifests = append(store.manifests, configured)
	}

	if saveError := store.save(); saveError != nil {
		return saveError
	}
	store.logger.Info(manifestConfiguredLogMessageConstant, zap.String(manifestNameLogFieldNameConstant, trimmedName))
	return nil
}

// Remove deletes a named manifest from the configuration.
func (store *Store) Remove(manifestName string) error {
	for manifestIndex, existing := range store.manifests {
		if existing.Name == manifestName {
			store.manifests = append(store.manifests[:manifestIndex], store.manifests[manifestIndex+1:]...)
			if saveError := store.save(); saveError != nil {
				return saveError
			}
			store.logger.Info(manifestRemovedLogMessageConstant, zap.String(manifestNameLogFieldNameConstant, manifestName))
			return nil
		}
	}
	return NotConfiguredError{Name: manifestName}
}

// FetchAll retrieves and parses every configured manifest, recording each
// manifest's most recent Document and enforcing source-path uniqueness across
// all fetched documents.
func (store *Store) FetchAll(executionContext context.Context) error {
	declaredSources := make(map[string]string)
	for _, configured := range store.manifests {
		documentContents, fetchError := store.fetcher.Fetch(executionContext, *configured)
		if fetchError != nil {
			return fetchError
		}

		document, parseError := ParseDocument(documentContents)
		if parseError != nil {
			return parseError
		}

		for _, declaredRepo := range document.Repos {
			if firstProject, alreadyDeclared := declaredSources[declaredRepo.Src]; alreadyDeclared {
				return DuplicateSourceError{Src: declaredRepo.Src, FirstProject: firstProject, SecondProject: declaredRepo.ProjectName}
			}
			declaredSources[declaredRepo.Src] = declaredRepo.ProjectName
		}

		configured.Document = document
		store.logger.Info(manifestFetchedLogMessageConstant,
			zap.String(manifestNameLogFieldNameConstant, configured.Name),
			zap.Int(repoCountLogFieldNameConstant, len(document.Repos)),
		)
	}
	return nil
}

// Repos returns the desired repository set across all fetched manifests in
// manifest declaration order, honoring each manifest's group filter.
func (store *Store) Repos() []Repo {
	var desiredRepos []Repo
	for _, configured := range store.manifests {
		if configured.Document == nil {
			continue
		}
		for _, declaredRepo := range configured.Document.Repos {
			if declaredRepo.InGroups(configured.GroupFilter) {
				desiredRepos = append(desiredRepos, declaredRepo)
			}
		}
	}
	return desiredRepos
}

// GroupDefinitions returns every group declared by fetched manifests in order.
func (store *Store) GroupDefinitions() []GroupDefinition {
	var definitions []GroupDefinition
	for _, configured := range store.manifests {
		if configured.Document == nil {
			continue
		}
		definitions = append(definitions, configured.Document.Groups...)
	}
	return definitions
}

func (store *Store) storeFilePath() string {
	return filepath.Join(store.configurationDirectory, storeFileNameConstant)
}

func (store *Store) load() error {
	storeContents, readError := os.ReadFile(store.storeFilePath())
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil
		}
		return readError
	}

	var document storeDocumentXML
	if unmarshalError := xml.Unmarshal(storeContents, &document); unmarshalError != nil {
		return unmarshalError
	}

	store.manifests = store.manifests[:0]
	for _, manifestEntry := range document.Manifests {
		store.manifests = append(store.manifests, &Manifest{
			Name:        manifestEntry.Name,
			URL:         manifestEntry.URL,
			Branch:      manifestEntry.Branch,
			GroupFilter: strings.Fields(manifestEntry.Groups),
		})
	}
	return nil
}

func (store *Store) save() error {
	document := storeDocumentXML{}
	for _, configured := range store.manifests {
		document.Manifests = append(document.Manifests, storeManifestEntry{
			Name:   configured.Name,
			URL:    configured.URL,
			Branch: configured.Branch,
			Groups: strings.Join(configured.GroupFilter, groupNameSeparatorConstant),
		})
	}

	serialized, marshalError := xml.MarshalIndent(document, "", "  ")
	if marshalError != nil {
		return marshalError
	}
	serialized = append(serialized, '\n')
	return os.WriteFile(store.storeFilePath(), serialized, storeFilePermissionsConstant)
}
