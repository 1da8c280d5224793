package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/svnport/internal/execshell"
	"github.com/temirov/svnport/internal/gitrepo"
	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/ui"
)

const (
	adapterKindGitStringConstant            = "git"
	adapterKindGoGitStringConstant          = "go-git"
	adapterOpenErrorTemplateConstant        = "open %s target repository %s: %w"
	adapterUnsupportedErrorTemplateConstant = "unsupported target adapter %q"
)

// AdapterKind selects how the target repository is driven.
type AdapterKind string

// Supported adapter kinds.
const (
	AdapterKindGit   AdapterKind = AdapterKind(adapterKindGitStringConstant)
	AdapterKindGoGit AdapterKind = AdapterKind(adapterKindGoGitStringConstant)
)

// AdapterKindChoices lists the adapter kinds accepted by configuration and flags.
func AdapterKindChoices() []string {
	return []string{string(AdapterKindGit), string(AdapterKindGoGit)}
}

// TargetAdapterFactory opens the target repository for a migration run.
type TargetAdapterFactory interface {
	OpenTargetAdapter(executionContext context.Context, kind AdapterKind, repositoryPath string, logger *zap.Logger) (history.TargetAdapter, error)
}

// DefaultTargetAdapterFactory opens real repositories: the git binary through
// execshell or an in-process go-git repository.
type DefaultTargetAdapterFactory struct {
	CommandRunner        execshell.CommandRunner
	HumanReadableLogging bool
}

// OpenTargetAdapter initializes the repository at repositoryPath when needed and rejects
// a repository that already has commits.
func (factory DefaultTargetAdapterFactory) OpenTargetAdapter(executionContext context.Context, kind AdapterKind, repositoryPath string, logger *zap.Logger) (history.TargetAdapter, error) {
	switch kind {
	case AdapterKindGit:
		adapter, err := factory.openCommandAdapter(executionContext, repositoryPath, logger)
		if err != nil {
			return nil, fmt.Errorf(adapterOpenErrorTemplateConstant, kind, repositoryPath, err)
		}
		return adapter, nil
	case AdapterKindGoGit:
		adapter, err := gitrepo.OpenRepositoryAdapter(repositoryPath)
		if err == nil {
			err = gitrepo.RequireEmptyHistory(executionContext, adapter)
		}
		if err != nil {
			return nil, fmt.Errorf(adapterOpenErrorTemplateConstant, kind, repositoryPath, err)
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf(adapterUnsupportedErrorTemplateConstant, kind)
	}
}

func (factory DefaultTargetAdapterFactory) openCommandAdapter(executionContext context.Context, repositoryPath string, logger *zap.Logger) (*gitrepo.CommandAdapter, error) {
	commandRunner := factory.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	var observers []execshell.CommandEventObserver
	if factory.HumanReadableLogging {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}

	shellExecutor, err := execshell.NewShellExecutor(logger, commandRunner, observers...)
	if err != nil {
		return nil, err
	}
	adapter, err := gitrepo.NewCommandAdapter(shellExecutor, repositoryPath)
	if err != nil {
		return nil, err
	}
	if err := adapter.EnsureRepository(executionContext); err != nil {
		return nil, err
	}
	if err := gitrepo.RequireEmptyHistory(executionContext, adapter); err != nil {
		return nil, err
	}
	return adapter, nil
}
