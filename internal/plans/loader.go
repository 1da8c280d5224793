package plans

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/snapshot"
)

const (
	manifestReadErrorTemplateConstant        = "read plan manifest %s: %w"
	manifestParseErrorTemplateConstant       = "parse plan manifest %s: %w"
	manifestDecodeErrorTemplateConstant      = "decode plan manifest %s: %w"
	manifestPlanErrorTemplateConstant        = "plan manifest %s: %w"
	planNameMissingErrorTemplateConstant     = "%s plan #%d has no name"
	viewContentErrorTemplateConstant         = "%s revision %d: %s"
	viewContentMissingMessageConstant        = "view needs files or a snapshot directory"
	viewContentAmbiguousMessageConstant      = "view sets both files and a snapshot directory"
	manifestPathMissingMessageConstant       = "plan manifest path not configured"
	manifestFilesystemMissingMessageConstant = "plan manifest filesystem not configured"
	branchesSectionConstant                  = "branches"
	tagsSectionConstant                      = "tags"
)

// Manifest loading errors.
var (
	ErrManifestPathNotConfigured       = errors.New(manifestPathMissingMessageConstant)
	ErrManifestFilesystemNotConfigured = errors.New(manifestFilesystemMissingMessageConstant)
)

// SnapshotFilesystemProvider opens the filesystem that snapshot directories of a
// manifest are resolved against.
type SnapshotFilesystemProvider func(manifestDirectory string) billy.Filesystem

// Loader reads plan manifests.
type Loader struct {
	filesystem         afero.Fs
	snapshotFilesystem SnapshotFilesystemProvider
}

// NewLoader constructs a Loader reading manifests from filesystem. Snapshot
// directories default to the operating system directory holding the manifest.
func NewLoader(filesystem afero.Fs, snapshotFilesystem SnapshotFilesystemProvider) (*Loader, error) {
	if filesystem == nil {
		return nil, ErrManifestFilesystemNotConfigured
	}
	if snapshotFilesystem == nil {
		snapshotFilesystem = func(manifestDirectory string) billy.Filesystem {
			return osfs.New(manifestDirectory)
		}
	}
	return &Loader{filesystem: filesystem, snapshotFilesystem: snapshotFilesystem}, nil
}

// Load parses the manifest at manifestPath into a plan provider.
func (loader *Loader) Load(manifestPath string) (history.StaticPlanProvider, error) {
	if len(manifestPath) == 0 {
		return history.StaticPlanProvider{}, ErrManifestPathNotConfigured
	}

	manifestContent, err := afero.ReadFile(loader.filesystem, manifestPath)
	if err != nil {
		return history.StaticPlanProvider{}, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, err)
	}

	var rawManifest map[string]any
	if err := yaml.Unmarshal(manifestContent, &rawManifest); err != nil {
		return history.StaticPlanProvider{}, fmt.Errorf(manifestParseErrorTemplateConstant, manifestPath, err)
	}

	var document manifestDocument
	decoder, err := newManifestDecoder(&document)
	if err != nil {
		return history.StaticPlanProvider{}, fmt.Errorf(manifestDecodeErrorTemplateConstant, manifestPath, err)
	}
	if err := decoder.Decode(rawManifest); err != nil {
		return history.StaticPlanProvider{}, fmt.Errorf(manifestDecodeErrorTemplateConstant, manifestPath, err)
	}

	provider, err := newPlanAssembler(loader.snapshotFilesystem(filepath.Dir(manifestPath))).assemble(document)
	if err != nil {
		return history.StaticPlanProvider{}, fmt.Errorf(manifestPlanErrorTemplateConstant, manifestPath, err)
	}
	return provider, nil
}

type planAssembler struct {
	snapshotFilesystem billy.Filesystem
}

func newPlanAssembler(snapshotFilesystem billy.Filesystem) planAssembler {
	return planAssembler{snapshotFilesystem: snapshotFilesystem}
}

func (assembler planAssembler) assemble(document manifestDocument) (history.StaticPlanProvider, error) {
	trunkPlan, err := assembler.plan(history.TrunkOwner(), document.Trunk)
	if err != nil {
		return history.StaticPlanProvider{}, err
	}

	branchPlans, err := assembler.namedPlans(branchesSectionConstant, document.Branches, history.BranchOwner)
	if err != nil {
		return history.StaticPlanProvider{}, err
	}
	tagPlans, err := assembler.namedPlans(tagsSectionConstant, document.Tags, history.TagOwner)
	if err != nil {
		return history.StaticPlanProvider{}, err
	}

	return history.StaticPlanProvider{Trunk: trunkPlan, Branches: branchPlans, Tags: tagPlans}, nil
}

func (assembler planAssembler) namedPlans(section string, documents []planDocument, ownerFor func(string) history.Owner) ([]history.Plan, error) {
	namedPlans := make([]history.Plan, 0, len(documents))
	for documentIndex, document := range documents {
		if len(document.Name) == 0 {
			return nil, fmt.Errorf(planNameMissingErrorTemplateConstant, section, documentIndex+1)
		}
		plan, err := assembler.plan(ownerFor(document.Name), document)
		if err != nil {
			return nil, err
		}
		namedPlans = append(namedPlans, plan)
	}
	return namedPlans, nil
}

func (assembler planAssembler) plan(owner history.Owner, document planDocument) (history.Plan, error) {
	plan := history.Plan{Owner: owner, Views: make([]history.View, 0, len(document.Views))}
	if document.Anchor != nil {
		plan.Anchor = &history.Anchor{BaseOwner: document.Anchor.Owner, BaseRevision: document.Anchor.Revision}
	}

	for _, view := range document.Views {
		content, err := assembler.content(owner, view)
		if err != nil {
			return history.Plan{}, err
		}
		plan.Views = append(plan.Views, history.View{
			Revision:      view.Revision,
			Timestamp:     view.Timestamp,
			Author:        view.Author,
			LogMessage:    view.Message,
			Content:       content,
			MigratedOwner: view.MigratedOwner,
		})
	}

	if err := plan.Validate(); err != nil {
		return history.Plan{}, err
	}
	return plan, nil
}

func (assembler planAssembler) content(owner history.Owner, document viewDocument) (history.ContentMutator, error) {
	hasFiles := document.Files != nil
	hasSnapshot := len(document.Snapshot) > 0
	switch {
	case hasFiles && hasSnapshot:
		return nil, fmt.Errorf(viewContentErrorTemplateConstant, owner, document.Revision, viewContentAmbiguousMessageConstant)
	case hasSnapshot:
		return snapshot.DirectorySnapshot{Source: assembler.snapshotFilesystem, Root: filepath.ToSlash(document.Snapshot)}, nil
	case hasFiles:
		files := make(map[string][]byte, len(document.Files))
		for filePath, fileContent := range document.Files {
			files[filePath] = []byte(fileContent)
		}
		return snapshot.InlineSnapshot{Files: files}, nil
	default:
		return nil, fmt.Errorf(viewContentErrorTemplateConstant, owner, document.Revision, viewContentMissingMessageConstant)
	}
}

func anchorTextError(anchorText string) error {
	return fmt.Errorf(anchorTextErrorTemplateConstant, anchorText)
}
