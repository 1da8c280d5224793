package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/temirov/svnport/internal/history"
)

const (
	invalidCommitIDErrorTemplateConstant   = "invalid commit id %q"
	openRepositoryErrorTemplateConstant    = "open repository %s: %w"
	initRepositoryErrorTemplateConstant    = "initialize repository %s: %w"
	worktreeErrorTemplateConstant          = "open worktree: %w"
	repositoryNotConfiguredMessageConstant = "repository not configured"
)

// ErrRepositoryNotConfigured is returned when an adapter is built without a repository.
var ErrRepositoryNotConfigured = errors.New(repositoryNotConfiguredMessageConstant)

// RepositoryAdapter performs target operations with go-git.
type RepositoryAdapter struct {
	repository *git.Repository
	worktree   *git.Worktree
}

// NewRepositoryAdapter wraps an existing non-bare repository.
func NewRepositoryAdapter(repository *git.Repository) (*RepositoryAdapter, error) {
	if repository == nil {
		return nil, ErrRepositoryNotConfigured
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return nil, fmt.Errorf(worktreeErrorTemplateConstant, err)
	}
	return &RepositoryAdapter{repository: repository, worktree: worktree}, nil
}

// OpenRepositoryAdapter opens the repository at repositoryPath, initializing it when absent.
// Callers starting a migration check RequireEmptyHistory afterwards.
func OpenRepositoryAdapter(repositoryPath string) (*RepositoryAdapter, error) {
	repository, err := git.PlainOpen(repositoryPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repository, err = git.PlainInit(repositoryPath, false)
		if err != nil {
			return nil, fmt.Errorf(initRepositoryErrorTemplateConstant, repositoryPath, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, err)
	}
	return NewRepositoryAdapter(repository)
}

// NewInMemoryRepositoryAdapter initializes an empty repository held entirely in memory.
func NewInMemoryRepositoryAdapter() (*RepositoryAdapter, error) {
	repository, err := git.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		return nil, err
	}
	return NewRepositoryAdapter(repository)
}

// Repository exposes the underlying go-git repository.
func (adapter *RepositoryAdapter) Repository() *git.Repository {
	return adapter.repository
}

// IsWorkingDirectoryClean reports whether the worktree has no staged, unstaged or untracked changes.
func (adapter *RepositoryAdapter) IsWorkingDirectoryClean(_ context.Context) (bool, error) {
	status, err := adapter.worktree.Status()
	if err != nil {
		return false, err
	}
	return status.IsClean(), nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (adapter *RepositoryAdapter) HasCommits(_ context.Context) (bool, error) {
	_, err := adapter.repository.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CheckoutBranch creates branchName at baseCommit and switches to it.
func (adapter *RepositoryAdapter) CheckoutBranch(_ context.Context, branchName string, baseCommit history.CommitID) error {
	hash, err := parseCommitID(baseCommit)
	if err != nil {
		return err
	}
	return adapter.worktree.Checkout(&git.CheckoutOptions{
		Hash:   hash,
		Branch: plumbing.NewBranchReferenceName(branchName),
		Create: true,
	})
}

// CheckoutDetached points HEAD directly at commitID.
func (adapter *RepositoryAdapter) CheckoutDetached(_ context.Context, commitID history.CommitID) error {
	hash, err := parseCommitID(commitID)
	if err != nil {
		return err
	}
	return adapter.worktree.Checkout(&git.CheckoutOptions{Hash: hash})
}

// StageAll stages additions, modifications and deletions.
func (adapter *RepositoryAdapter) StageAll(_ context.Context) error {
	return adapter.worktree.AddWithOptions(&git.AddOptions{All: true})
}

// Commit records the staged changes and returns the new commit hash.
func (adapter *RepositoryAdapter) Commit(_ context.Context, author history.Signature, message string) (history.CommitID, error) {
	signature := toObjectSignature(author)
	hash, err := adapter.worktree.Commit(message, &git.CommitOptions{
		All:       true,
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		return "", err
	}
	return history.CommitID(hash.String()), nil
}

// CreateAnnotatedTag creates an annotated tag object pointing at commitID.
func (adapter *RepositoryAdapter) CreateAnnotatedTag(_ context.Context, tagName string, commitID history.CommitID, tagger history.Signature, message string) error {
	hash, err := parseCommitID(commitID)
	if err != nil {
		return err
	}
	_, err = adapter.repository.CreateTag(tagName, hash, &git.CreateTagOptions{
		Tagger:  toObjectSignature(tagger),
		Message: message,
	})
	return err
}

// GarbageCollect packs loose objects. Storages without pack support are left untouched.
func (adapter *RepositoryAdapter) GarbageCollect(_ context.Context) error {
	err := adapter.repository.RepackObjects(&git.RepackConfig{})
	if errors.Is(err, git.ErrPackedObjectsNotSupported) {
		return nil
	}
	return err
}

// WorkingFilesystem returns the worktree filesystem.
func (adapter *RepositoryAdapter) WorkingFilesystem() billy.Filesystem {
	return adapter.worktree.Filesystem
}

func parseCommitID(commitID history.CommitID) (plumbing.Hash, error) {
	if !plumbing.IsHash(string(commitID)) {
		return plumbing.ZeroHash, fmt.Errorf(invalidCommitIDErrorTemplateConstant, commitID)
	}
	return plumbing.NewHash(string(commitID)), nil
}

func toObjectSignature(signature history.Signature) *object.Signature {
	return &object.Signature{Name: signature.Name, Email: signature.Email, When: signature.When}
}

var _ history.TargetAdapter = (*RepositoryAdapter)(nil)
