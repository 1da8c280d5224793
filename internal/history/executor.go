package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	executorLogFieldOwnerConstant             = "owner"
	executorLogFieldRevisionConstant          = "revision"
	executorLogFieldCommitConstant            = "commit"
	executorLogFieldBaseConstant              = "base"
	executorLogFieldIndexOwnerConstant        = "index_owner"
	executorLogFieldCommitCountConstant       = "commits"
	executorEmptyViewMessageConstant          = "Snapshot produced no changes; skipping commit"
	executorCommitRecordedMessageConstant     = "Recorded commit"
	executorPlanBuiltMessageConstant          = "Built plan"
	executorBranchCreatedMessageConstant      = "Created branch"
	executorTagCreatedMessageConstant         = "Created annotated tag"
	executorCompactedMessageConstant          = "Compacted target repository"
	executorStepLabelTemplateConstant         = "%s r%d"
	executorDefaultTagMessageTemplateConstant = "Tag %s"
	executorBuildErrorTemplateConstant        = "build %s: %w"
	executorRecordErrorTemplateConstant       = "record %s revision %d: %w"
	executorCancelledErrorTemplateConstant    = "%w: %w"
	executorCompactOperationConstant          = "garbage collect"
	targetAdapterNotConfiguredMessageConstant = "target adapter not configured"
	commitIndexNotConfiguredMessageConstant   = "commit index not configured"
)

// Executor configuration errors.
var (
	ErrTargetAdapterNotConfigured = errors.New(targetAdapterNotConfiguredMessageConstant)
	ErrCommitIndexNotConfigured   = errors.New(commitIndexNotConfiguredMessageConstant)
)

// PlanExecutorDependencies configures a PlanExecutor.
type PlanExecutorDependencies struct {
	Adapter  TargetAdapter
	Index    *CommitIndex
	Authors  AuthorResolver
	Progress ProgressSink
	Logger   *zap.Logger
	Clock    func() time.Time
}

// PlanExecutor replays plans onto the target working directory and records the
// resulting commits in the commit index.
type PlanExecutor struct {
	workspace *Workspace
	index     *CommitIndex
	authors   AuthorResolver
	progress  ProgressSink
	logger    *zap.Logger
	clock     func() time.Time
}

// NewPlanExecutor validates dependencies and constructs a PlanExecutor.
func NewPlanExecutor(dependencies PlanExecutorDependencies) (*PlanExecutor, error) {
	if dependencies.Adapter == nil {
		return nil, ErrTargetAdapterNotConfigured
	}
	if dependencies.Index == nil {
		return nil, ErrCommitIndexNotConfigured
	}

	executor := &PlanExecutor{
		workspace: NewWorkspace(dependencies.Adapter),
		index:     dependencies.Index,
		authors:   dependencies.Authors,
		progress:  dependencies.Progress,
		logger:    dependencies.Logger,
		clock:     dependencies.Clock,
	}
	if executor.authors == nil {
		executor.authors = AuthorResolverFunc(func(userName string) (string, string) { return userName, "" })
	}
	if executor.progress == nil {
		executor.progress = NoopProgressSink()
	}
	if executor.logger == nil {
		executor.logger = zap.NewNop()
	}
	if executor.clock == nil {
		executor.clock = time.Now
	}
	return executor, nil
}

// BuildTrunk replays the trunk plan onto the currently checked-out working directory.
func (executor *PlanExecutor) BuildTrunk(executionContext context.Context, plan Plan) error {
	token, err := executor.workspace.Acquire(executionContext, plan.Owner)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	if _, err := executor.replay(executionContext, token, plan); err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	return nil
}

// BuildBranch creates the plan's branch at baseCommit and replays its views.
func (executor *PlanExecutor) BuildBranch(executionContext context.Context, plan Plan, baseCommit CommitID) error {
	token, err := executor.workspace.Acquire(executionContext, plan.Owner)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	token, err = executor.workspace.ForkBranch(executionContext, token, plan.Owner.Name, baseCommit)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	executor.logger.Debug(executorBranchCreatedMessageConstant, zap.Stringer(executorLogFieldOwnerConstant, plan.Owner), zap.Stringer(executorLogFieldBaseConstant, baseCommit))
	if _, err := executor.replay(executionContext, token, plan); err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	return nil
}

// BuildTag checks out baseCommit detached, replays the plan's views and tags the
// resulting commit.
func (executor *PlanExecutor) BuildTag(executionContext context.Context, plan Plan, baseCommit CommitID) error {
	token, err := executor.workspace.Acquire(executionContext, plan.Owner)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	token, err = executor.workspace.Detach(executionContext, token, baseCommit)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	token, err = executor.replay(executionContext, token, plan)
	if err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	if err := executor.checkCancellation(); err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}

	tagger, message := executor.tagMetadata(plan)
	if _, err := executor.workspace.Tag(executionContext, token, plan.Owner.Name, token.Head, tagger, message); err != nil {
		return fmt.Errorf(executorBuildErrorTemplateConstant, plan.Owner, err)
	}
	executor.logger.Info(executorTagCreatedMessageConstant, zap.Stringer(executorLogFieldOwnerConstant, plan.Owner), zap.Stringer(executorLogFieldCommitConstant, token.Head))
	return nil
}

// Compact garbage-collects the target repository.
func (executor *PlanExecutor) Compact(executionContext context.Context) error {
	if err := executor.workspace.Adapter().GarbageCollect(executionContext); err != nil {
		return wrapAdapterError(executorCompactOperationConstant, err)
	}
	executor.logger.Info(executorCompactedMessageConstant)
	return nil
}

func (executor *PlanExecutor) replay(executionContext context.Context, token CleanWorkspace, plan Plan) (CleanWorkspace, error) {
	executor.progress.BeginTask(plan.Owner.String())
	executor.progress.SetStepCount(len(plan.Views))

	commitCount := 0
	for _, view := range plan.Views {
		if err := executor.checkCancellation(); err != nil {
			return CleanWorkspace{}, err
		}
		executor.progress.NextStep(fmt.Sprintf(executorStepLabelTemplateConstant, plan.Owner, view.Revision))

		nextToken, commitID, committed, err := executor.workspace.ApplyView(executionContext, token, plan.Owner, view, executor.signature(view.Author, view.Timestamp))
		if err != nil {
			return CleanWorkspace{}, err
		}
		token = nextToken

		if !committed {
			executor.logger.Debug(executorEmptyViewMessageConstant, zap.Stringer(executorLogFieldOwnerConstant, plan.Owner), zap.Int64(executorLogFieldRevisionConstant, view.Revision))
			continue
		}

		indexOwner := view.IndexOwner(plan.Owner)
		if err := executor.index.RecordCommit(indexOwner, view.Revision, commitID); err != nil {
			return CleanWorkspace{}, fmt.Errorf(executorRecordErrorTemplateConstant, indexOwner, view.Revision, err)
		}
		commitCount++
		executor.logger.Debug(
			executorCommitRecordedMessageConstant,
			zap.Stringer(executorLogFieldOwnerConstant, plan.Owner),
			zap.Stringer(executorLogFieldIndexOwnerConstant, indexOwner),
			zap.Int64(executorLogFieldRevisionConstant, view.Revision),
			zap.Stringer(executorLogFieldCommitConstant, commitID),
		)
	}

	executor.logger.Info(executorPlanBuiltMessageConstant, zap.Stringer(executorLogFieldOwnerConstant, plan.Owner), zap.Int(executorLogFieldCommitCountConstant, commitCount))
	return token, nil
}

func (executor *PlanExecutor) checkCancellation() error {
	err := executor.progress.CheckCancellation()
	if err == nil || errors.Is(err, ErrMigrationCancelled) {
		return err
	}
	return fmt.Errorf(executorCancelledErrorTemplateConstant, ErrMigrationCancelled, err)
}

func (executor *PlanExecutor) signature(userName string, when time.Time) Signature {
	name, email := executor.authors.ResolveAuthor(userName)
	return Signature{Name: name, Email: email, When: when}
}

func (executor *PlanExecutor) tagMetadata(plan Plan) (Signature, string) {
	if len(plan.Views) == 0 {
		return executor.signature("", executor.clock()), fmt.Sprintf(executorDefaultTagMessageTemplateConstant, plan.Owner.Name)
	}
	lastView := plan.Views[len(plan.Views)-1]
	message := lastView.LogMessage
	if len(message) == 0 {
		message = fmt.Sprintf(executorDefaultTagMessageTemplateConstant, plan.Owner.Name)
	}
	return executor.signature(lastView.Author, lastView.Timestamp), message
}
