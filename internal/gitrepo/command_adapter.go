package gitrepo

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/temirov/svnport/internal/execshell"
	"github.com/temirov/svnport/internal/history"
)

const (
	gitInitSubcommandConstant                  = "init"
	gitStatusSubcommandConstant                = "status"
	gitCheckoutSubcommandConstant              = "checkout"
	gitAddSubcommandConstant                   = "add"
	gitCommitSubcommandConstant                = "commit"
	gitRevParseSubcommandConstant              = "rev-parse"
	gitTagSubcommandConstant                   = "tag"
	gitGCSubcommandConstant                    = "gc"
	gitQuietFlagConstant                       = "--quiet"
	gitPorcelainFlagConstant                   = "--porcelain"
	gitUntrackedAllFlagConstant                = "--untracked-files=all"
	gitCreateBranchFlagConstant                = "-b"
	gitDetachFlagConstant                      = "--detach"
	gitAllFlagConstant                         = "-A"
	gitAllowEmptyMessageFlagConstant           = "--allow-empty-message"
	gitMessageFileFlagConstant                 = "-F"
	gitStandardInputArgumentConstant           = "-"
	gitAnnotateFlagConstant                    = "-a"
	gitHeadReferenceConstant                   = "HEAD"
	gitVerifyFlagConstant                      = "--verify"
	gitMetadataDirectoryConstant               = ".git"
	gitAuthorNameEnvironmentConstant           = "GIT_AUTHOR_NAME"
	gitAuthorEmailEnvironmentConstant          = "GIT_AUTHOR_EMAIL"
	gitAuthorDateEnvironmentConstant           = "GIT_AUTHOR_DATE"
	gitCommitterNameEnvironmentConstant        = "GIT_COMMITTER_NAME"
	gitCommitterEmailEnvironmentConstant       = "GIT_COMMITTER_EMAIL"
	gitCommitterDateEnvironmentConstant        = "GIT_COMMITTER_DATE"
	gitDateLayoutConstant                      = "2006-01-02T15:04:05Z07:00"
	gitExecutorNotConfiguredMessageConstant    = "git executor not configured"
	repositoryPathNotConfiguredMessageConstant = "repository path not configured"
)

// Configuration errors returned by NewCommandAdapter.
var (
	ErrGitExecutorNotConfigured    = errors.New(gitExecutorNotConfiguredMessageConstant)
	ErrRepositoryPathNotConfigured = errors.New(repositoryPathNotConfiguredMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandAdapter performs target operations by running the git binary in repositoryPath.
type CommandAdapter struct {
	executor       GitExecutor
	repositoryPath string
	filesystem     billy.Filesystem
}

// NewCommandAdapter constructs a CommandAdapter rooted at repositoryPath.
func NewCommandAdapter(executor GitExecutor, repositoryPath string) (*CommandAdapter, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return nil, ErrRepositoryPathNotConfigured
	}
	return &CommandAdapter{executor: executor, repositoryPath: repositoryPath, filesystem: osfs.New(repositoryPath)}, nil
}

// EnsureRepository initializes the repository when repositoryPath has no .git directory.
func (adapter *CommandAdapter) EnsureRepository(executionContext context.Context) error {
	if _, err := adapter.filesystem.Stat(gitMetadataDirectoryConstant); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(adapter.repositoryPath, 0o755); err != nil {
		return err
	}
	_, err := adapter.run(executionContext, nil, nil, gitInitSubcommandConstant, gitQuietFlagConstant)
	return err
}

// IsWorkingDirectoryClean reports whether git status lists no entries, untracked files included.
func (adapter *CommandAdapter) IsWorkingDirectoryClean(executionContext context.Context) (bool, error) {
	output, err := adapter.run(executionContext, nil, nil, gitStatusSubcommandConstant, gitPorcelainFlagConstant, gitUntrackedAllFlagConstant)
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(output)) == 0, nil
}

// HasCommits reports whether HEAD resolves to a commit. An unborn HEAD makes
// rev-parse exit non-zero, which counts as an empty history.
func (adapter *CommandAdapter) HasCommits(executionContext context.Context) (bool, error) {
	_, err := adapter.run(executionContext, nil, nil, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadReferenceConstant)
	var failedCommand execshell.CommandFailedError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &failedCommand):
		return false, nil
	default:
		return false, err
	}
}

// CheckoutBranch creates branchName at baseCommit and switches to it.
func (adapter *CommandAdapter) CheckoutBranch(executionContext context.Context, branchName string, baseCommit history.CommitID) error {
	_, err := adapter.run(executionContext, nil, nil, gitCheckoutSubcommandConstant, gitQuietFlagConstant, gitCreateBranchFlagConstant, branchName, string(baseCommit))
	return err
}

// CheckoutDetached points HEAD directly at commitID.
func (adapter *CommandAdapter) CheckoutDetached(executionContext context.Context, commitID history.CommitID) error {
	_, err := adapter.run(executionContext, nil, nil, gitCheckoutSubcommandConstant, gitQuietFlagConstant, gitDetachFlagConstant, string(commitID))
	return err
}

// StageAll stages additions, modifications and deletions.
func (adapter *CommandAdapter) StageAll(executionContext context.Context) error {
	_, err := adapter.run(executionContext, nil, nil, gitAddSubcommandConstant, gitAllFlagConstant)
	return err
}

// Commit records the staged changes with the author's identity and date and returns HEAD.
func (adapter *CommandAdapter) Commit(executionContext context.Context, author history.Signature, message string) (history.CommitID, error) {
	environment := identityEnvironment(author)
	environment[gitAuthorNameEnvironmentConstant] = author.Name
	environment[gitAuthorEmailEnvironmentConstant] = author.Email
	environment[gitAuthorDateEnvironmentConstant] = author.When.Format(gitDateLayoutConstant)

	if _, err := adapter.run(executionContext, environment, []byte(message), gitCommitSubcommandConstant, gitQuietFlagConstant, gitAllowEmptyMessageFlagConstant, gitMessageFileFlagConstant, gitStandardInputArgumentConstant); err != nil {
		return "", err
	}

	output, err := adapter.run(executionContext, nil, nil, gitRevParseSubcommandConstant, gitHeadReferenceConstant)
	if err != nil {
		return "", err
	}
	return history.CommitID(strings.TrimSpace(output)), nil
}

// CreateAnnotatedTag creates an annotated tag at commitID; git takes the tagger from the committer identity.
func (adapter *CommandAdapter) CreateAnnotatedTag(executionContext context.Context, tagName string, commitID history.CommitID, tagger history.Signature, message string) error {
	_, err := adapter.run(executionContext, identityEnvironment(tagger), []byte(message), gitTagSubcommandConstant, gitAnnotateFlagConstant, gitMessageFileFlagConstant, gitStandardInputArgumentConstant, tagName, string(commitID))
	return err
}

// GarbageCollect runs git gc.
func (adapter *CommandAdapter) GarbageCollect(executionContext context.Context) error {
	_, err := adapter.run(executionContext, nil, nil, gitGCSubcommandConstant, gitQuietFlagConstant)
	return err
}

// WorkingFilesystem returns the repository directory.
func (adapter *CommandAdapter) WorkingFilesystem() billy.Filesystem {
	return adapter.filesystem
}

func (adapter *CommandAdapter) run(executionContext context.Context, environment map[string]string, standardInput []byte, arguments ...string) (string, error) {
	result, err := adapter.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     adapter.repositoryPath,
		EnvironmentVariables: environment,
		StandardInput:        standardInput,
	})
	if err != nil {
		return "", err
	}
	return result.StandardOutput, nil
}

func identityEnvironment(signature history.Signature) map[string]string {
	return map[string]string{
		gitCommitterNameEnvironmentConstant:  signature.Name,
		gitCommitterEmailEnvironmentConstant: signature.Email,
		gitCommitterDateEnvironmentConstant:  signature.When.Format(gitDateLayoutConstant),
	}
}

var _ history.TargetAdapter = (*CommandAdapter)(nil)
