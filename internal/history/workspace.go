package history

import (
	"context"
	"fmt"
)

const (
	workspaceStageAcquireConstant          = "before build"
	workspaceStageAfterCommitConstant      = "after commit"
	workspaceOperationCleanConstant        = "status"
	workspaceOperationBranchConstant       = "checkout branch"
	workspaceOperationDetachConstant       = "checkout detached"
	workspaceOperationApplyConstant        = "apply content"
	workspaceOperationStageConstant        = "stage"
	workspaceOperationCommitConstant       = "commit"
	workspaceOperationTagConstant          = "tag"
	staleWorkspaceErrorTemplateConstant    = "%w: generation %d, current %d"
	poisonedWorkspaceErrorTemplateConstant = "%w: a previous operation failed"
)

// Workspace serializes access to the target working directory. Operations consume a
// CleanWorkspace token and return a fresh one, so a token only exists while the
// working directory is known to be clean.
type Workspace struct {
	adapter    TargetAdapter
	generation uint64
	poisoned   bool
}

// CleanWorkspace proves that the working directory was clean after the last operation.
// Head is the commit checked out by the workspace, empty until one is known.
type CleanWorkspace struct {
	workspace  *Workspace
	generation uint64
	Head       CommitID
}

// NewWorkspace wraps a target adapter.
func NewWorkspace(adapter TargetAdapter) *Workspace {
	return &Workspace{adapter: adapter}
}

// Adapter returns the wrapped target adapter.
func (workspace *Workspace) Adapter() TargetAdapter {
	return workspace.adapter
}

// Acquire verifies that the working directory is clean and issues a token for owner.
func (workspace *Workspace) Acquire(executionContext context.Context, owner Owner) (CleanWorkspace, error) {
	if workspace.poisoned {
		return CleanWorkspace{}, fmt.Errorf(poisonedWorkspaceErrorTemplateConstant, ErrStaleWorkspace)
	}
	if err := workspace.requireClean(executionContext, owner, workspaceStageAcquireConstant); err != nil {
		return CleanWorkspace{}, err
	}
	return workspace.issue(""), nil
}

// ForkBranch creates branchName at baseCommit and switches to it.
func (workspace *Workspace) ForkBranch(executionContext context.Context, token CleanWorkspace, branchName string, baseCommit CommitID) (CleanWorkspace, error) {
	if err := workspace.consume(token); err != nil {
		return CleanWorkspace{}, err
	}
	if err := workspace.adapter.CheckoutBranch(executionContext, branchName, baseCommit); err != nil {
		return CleanWorkspace{}, workspace.fail(wrapAdapterError(workspaceOperationBranchConstant, err))
	}
	return workspace.issue(baseCommit), nil
}

// Detach checks out commitID without any branch.
func (workspace *Workspace) Detach(executionContext context.Context, token CleanWorkspace, commitID CommitID) (CleanWorkspace, error) {
	if err := workspace.consume(token); err != nil {
		return CleanWorkspace{}, err
	}
	if err := workspace.adapter.CheckoutDetached(executionContext, commitID); err != nil {
		return CleanWorkspace{}, workspace.fail(wrapAdapterError(workspaceOperationDetachConstant, err))
	}
	return workspace.issue(commitID), nil
}

// ApplyView rewrites the working directory to the view's snapshot and commits the
// difference. The boolean result is false when the snapshot changed nothing.
func (workspace *Workspace) ApplyView(executionContext context.Context, token CleanWorkspace, owner Owner, view View, author Signature) (CleanWorkspace, CommitID, bool, error) {
	if err := workspace.consume(token); err != nil {
		return CleanWorkspace{}, "", false, err
	}
	if err := view.Content.Apply(executionContext, workspace.adapter.WorkingFilesystem()); err != nil {
		return CleanWorkspace{}, "", false, workspace.fail(wrapAdapterError(workspaceOperationApplyConstant, err))
	}

	clean, err := workspace.adapter.IsWorkingDirectoryClean(executionContext)
	if err != nil {
		return CleanWorkspace{}, "", false, workspace.fail(wrapAdapterError(workspaceOperationCleanConstant, err))
	}
	if clean {
		return workspace.issue(token.Head), "", false, nil
	}

	if err := workspace.adapter.StageAll(executionContext); err != nil {
		return CleanWorkspace{}, "", false, workspace.fail(wrapAdapterError(workspaceOperationStageConstant, err))
	}
	commitID, err := workspace.adapter.Commit(executionContext, author, view.LogMessage)
	if err != nil {
		return CleanWorkspace{}, "", false, workspace.fail(wrapAdapterError(workspaceOperationCommitConstant, err))
	}
	if err := workspace.requireClean(executionContext, owner, workspaceStageAfterCommitConstant); err != nil {
		return CleanWorkspace{}, "", false, workspace.fail(err)
	}
	return workspace.issue(commitID), commitID, true, nil
}

// Tag creates an annotated tag at commitID. The working directory is not touched.
func (workspace *Workspace) Tag(executionContext context.Context, token CleanWorkspace, tagName string, commitID CommitID, tagger Signature, message string) (CleanWorkspace, error) {
	if err := workspace.consume(token); err != nil {
		return CleanWorkspace{}, err
	}
	if err := workspace.adapter.CreateAnnotatedTag(executionContext, tagName, commitID, tagger, message); err != nil {
		return CleanWorkspace{}, workspace.fail(wrapAdapterError(workspaceOperationTagConstant, err))
	}
	return workspace.issue(token.Head), nil
}

func (workspace *Workspace) requireClean(executionContext context.Context, owner Owner, stage string) error {
	clean, err := workspace.adapter.IsWorkingDirectoryClean(executionContext)
	if err != nil {
		return wrapAdapterError(workspaceOperationCleanConstant, err)
	}
	if !clean {
		return DirtyWorkingDirectoryError{Stage: stage, Owner: owner}
	}
	return nil
}

func (workspace *Workspace) consume(token CleanWorkspace) error {
	if workspace.poisoned {
		return fmt.Errorf(poisonedWorkspaceErrorTemplateConstant, ErrStaleWorkspace)
	}
	if token.workspace != workspace || token.generation != workspace.generation {
		return fmt.Errorf(staleWorkspaceErrorTemplateConstant, ErrStaleWorkspace, token.generation, workspace.generation)
	}
	workspace.generation++
	return nil
}

func (workspace *Workspace) issue(head CommitID) CleanWorkspace {
	workspace.generation++
	return CleanWorkspace{workspace: workspace, generation: workspace.generation, Head: head}
}

func (workspace *Workspace) fail(err error) error {
	workspace.poisoned = true
	return err
}
