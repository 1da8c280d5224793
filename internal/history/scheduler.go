package history

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"
)

const (
	schedulerTaskNameConstant                    = "migrate history"
	schedulerLogFieldPassConstant                = "pass"
	schedulerLogFieldBranchStatusConstant        = "branch_status"
	schedulerLogFieldTagStatusConstant           = "tag_status"
	schedulerLogFieldStatusConstant              = "status"
	schedulerLogFieldOwnerConstant               = "owner"
	schedulerLogFieldAnchorConstant              = "anchor"
	schedulerLogFieldPendingConstant             = "pending"
	schedulerPassMessageConstant                 = "Completed scheduler pass"
	schedulerDeferredMessageConstant             = "Anchor not ready; deferring plan"
	schedulerCancelledMessageConstant            = "Migration cancelled"
	schedulerFinishedMessageConstant             = "Migration finished"
	schedulerBlockedMessageConstant              = "Migration blocked"
	schedulerFailedMessageConstant               = "Migration failed"
	schedulerInvalidPlanErrorTemplateConstant    = "invalid plan: %w"
	schedulerResolveErrorTemplateConstant        = "resolve anchor %s of %s: %w"
	schedulerCompactErrorTemplateConstant        = "compact target repository: %w"
	planProviderNotConfiguredMessageConstant     = "plan provider not configured"
	planBuilderNotConfiguredMessageConstant      = "plan builder not configured"
	schedulerDuplicateOwnerErrorTemplateConstant = "invalid plan: duplicate owner %s"
)

// Scheduler configuration errors.
var (
	ErrPlanProviderNotConfigured = errors.New(planProviderNotConfiguredMessageConstant)
	ErrPlanBuilderNotConfigured  = errors.New(planBuilderNotConfiguredMessageConstant)
)

// PlanBuilder builds individual plans against the target repository.
type PlanBuilder interface {
	BuildTrunk(executionContext context.Context, plan Plan) error
	BuildBranch(executionContext context.Context, plan Plan, baseCommit CommitID) error
	BuildTag(executionContext context.Context, plan Plan, baseCommit CommitID) error
	Compact(executionContext context.Context) error
}

// SchedulerDependencies configures a Scheduler.
type SchedulerDependencies struct {
	Provider       PlanProvider
	Builder        PlanBuilder
	Index          *CommitIndex
	Progress       ProgressSink
	Logger         *zap.Logger
	SkipCompaction bool
}

// MigrationResult summarizes a scheduler run.
type MigrationResult struct {
	Passes    int
	Status    Status
	Trunk     bool
	Branches  []Owner
	Tags      []Owner
	Pending   []Owner
	Cancelled bool
	Compacted bool
	// Failed marks a run stopped by a fatal error rather than by a blocked anchor.
	Failed bool
}

// Scheduler drives plan construction to a fixed point. The trunk is built first, then
// branch and tag plans are retried pass after pass while their anchors become ready.
type Scheduler struct {
	provider       PlanProvider
	builder        PlanBuilder
	index          *CommitIndex
	progress       ProgressSink
	logger         *zap.Logger
	skipCompaction bool
}

// NewScheduler validates dependencies and constructs a Scheduler.
func NewScheduler(dependencies SchedulerDependencies) (*Scheduler, error) {
	if dependencies.Provider == nil {
		return nil, ErrPlanProviderNotConfigured
	}
	if dependencies.Builder == nil {
		return nil, ErrPlanBuilderNotConfigured
	}
	if dependencies.Index == nil {
		return nil, ErrCommitIndexNotConfigured
	}

	scheduler := &Scheduler{
		provider:       dependencies.Provider,
		builder:        dependencies.Builder,
		index:          dependencies.Index,
		progress:       dependencies.Progress,
		logger:         dependencies.Logger,
		skipCompaction: dependencies.SkipCompaction,
	}
	if scheduler.progress == nil {
		scheduler.progress = NoopProgressSink()
	}
	if scheduler.logger == nil {
		scheduler.logger = zap.NewNop()
	}
	return scheduler, nil
}

type worklistEntry struct {
	plan      Plan
	extracted bool
}

type planWorklist struct {
	entries []*worklistEntry
}

func newPlanWorklist(plans iter.Seq[Plan], seenOwners map[Owner]struct{}) (*planWorklist, error) {
	worklist := &planWorklist{}
	for plan := range plans {
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf(schedulerInvalidPlanErrorTemplateConstant, err)
		}
		if _, duplicate := seenOwners[plan.Owner]; duplicate {
			return nil, fmt.Errorf(schedulerDuplicateOwnerErrorTemplateConstant, plan.Owner)
		}
		seenOwners[plan.Owner] = struct{}{}
		worklist.entries = append(worklist.entries, &worklistEntry{plan: plan})
	}
	return worklist, nil
}

func (worklist *planWorklist) owners(extracted bool) []Owner {
	if worklist == nil {
		return nil
	}
	var owners []Owner
	for _, entry := range worklist.entries {
		if entry.extracted == extracted {
			owners = append(owners, entry.plan.Owner)
		}
	}
	return owners
}

type buildAtBase func(executionContext context.Context, plan Plan, baseCommit CommitID) error

// Run builds every plan the provider supplies. A run that ends with plans whose
// anchors can never resolve fails with BlockedOnExtractError; a cancelled run returns
// without error and without compaction.
func (scheduler *Scheduler) Run(executionContext context.Context) (MigrationResult, error) {
	result := MigrationResult{}

	trunkPlan := scheduler.provider.TrunkPlan()
	if err := trunkPlan.Validate(); err != nil {
		return scheduler.failed(result, nil, nil, fmt.Errorf(schedulerInvalidPlanErrorTemplateConstant, err))
	}
	seenOwners := map[Owner]struct{}{trunkPlan.Owner: {}}
	branches, err := newPlanWorklist(scheduler.provider.BranchPlans(), seenOwners)
	if err != nil {
		return scheduler.failed(result, nil, nil, err)
	}
	tags, err := newPlanWorklist(scheduler.provider.TagPlans(), seenOwners)
	if err != nil {
		return scheduler.failed(result, branches, nil, err)
	}

	scheduler.progress.BeginTask(schedulerTaskNameConstant)
	scheduler.progress.SetStageCount(scheduler.provider.PlanCount())

	if err := scheduler.builder.BuildTrunk(executionContext, trunkPlan); err != nil {
		if errors.Is(err, ErrMigrationCancelled) {
			return scheduler.cancelled(result, branches, tags), nil
		}
		return scheduler.failed(result, branches, tags, err)
	}
	result.Trunk = true

	status := StatusRepeat
	for status.RequestsRetry() {
		result.Passes++

		branchStatus, err := scheduler.attempt(executionContext, branches, scheduler.builder.BuildBranch)
		if err != nil {
			return scheduler.failed(result, branches, tags, err)
		}

		tagStatus := StatusCancelled
		if branchStatus != StatusCancelled {
			tagStatus, err = scheduler.attempt(executionContext, tags, scheduler.builder.BuildTag)
			if err != nil {
				return scheduler.failed(result, branches, tags, err)
			}
		}

		status = Combine(branchStatus, tagStatus)
		if status == StatusBlocked && (branchStatus.MadeProgress() || tagStatus.MadeProgress()) {
			status = StatusRepeat
		}

		scheduler.logger.Info(
			schedulerPassMessageConstant,
			zap.Int(schedulerLogFieldPassConstant, result.Passes),
			zap.Stringer(schedulerLogFieldBranchStatusConstant, branchStatus),
			zap.Stringer(schedulerLogFieldTagStatusConstant, tagStatus),
			zap.Stringer(schedulerLogFieldStatusConstant, status),
		)
	}

	switch status {
	case StatusCancelled:
		return scheduler.cancelled(result, branches, tags), nil
	case StatusBlocked:
		scheduler.collect(&result, branches, tags)
		result.Status = status
		scheduler.logger.Error(schedulerBlockedMessageConstant, zap.Stringers(schedulerLogFieldPendingConstant, result.Pending))
		return result, BlockedOnExtractError{PendingOwners: result.Pending}
	}

	scheduler.collect(&result, branches, tags)
	result.Status = status
	if !scheduler.skipCompaction {
		if err := scheduler.builder.Compact(executionContext); err != nil {
			return scheduler.failed(result, branches, tags, fmt.Errorf(schedulerCompactErrorTemplateConstant, err))
		}
		result.Compacted = true
	}
	scheduler.logger.Info(schedulerFinishedMessageConstant, zap.Int(schedulerLogFieldPassConstant, result.Passes))
	return result, nil
}

// attempt tries every plan of the worklist that has not been extracted yet.
func (scheduler *Scheduler) attempt(executionContext context.Context, worklist *planWorklist, build buildAtBase) (Status, error) {
	extractedAny := false
	blockedAny := false

	for _, entry := range worklist.entries {
		if entry.extracted {
			continue
		}
		plan := entry.plan
		if plan.Anchor == nil {
			return StatusBlocked, UnanchoredPlanError{Owner: plan.Owner}
		}

		baseCommit, ready, err := scheduler.index.ResolveAnchor(*plan.Anchor)
		if err != nil {
			return StatusBlocked, fmt.Errorf(schedulerResolveErrorTemplateConstant, plan.Anchor, plan.Owner, err)
		}
		if !ready {
			blockedAny = true
			scheduler.logger.Debug(schedulerDeferredMessageConstant, zap.Stringer(schedulerLogFieldOwnerConstant, plan.Owner), zap.Stringer(schedulerLogFieldAnchorConstant, plan.Anchor))
			continue
		}

		if err := build(executionContext, plan, baseCommit); err != nil {
			if errors.Is(err, ErrMigrationCancelled) {
				return StatusCancelled, nil
			}
			return StatusBlocked, err
		}
		entry.extracted = true
		extractedAny = true
	}

	return DetermineStatus(extractedAny, blockedAny), nil
}

// collect tolerates nil worklists for runs that failed before every plan was read.
func (scheduler *Scheduler) collect(result *MigrationResult, branches *planWorklist, tags *planWorklist) {
	result.Branches = branches.owners(true)
	result.Tags = tags.owners(true)
	result.Pending = append(branches.owners(false), tags.owners(false)...)
}

// failed records a fatal stop. The status is BLOCKED because nothing further can be built.
func (scheduler *Scheduler) failed(result MigrationResult, branches *planWorklist, tags *planWorklist, failure error) (MigrationResult, error) {
	scheduler.collect(&result, branches, tags)
	result.Status = StatusBlocked
	result.Failed = true
	scheduler.logger.Error(schedulerFailedMessageConstant, zap.Error(failure), zap.Stringers(schedulerLogFieldPendingConstant, result.Pending))
	return result, failure
}

func (scheduler *Scheduler) cancelled(result MigrationResult, branches *planWorklist, tags *planWorklist) MigrationResult {
	scheduler.collect(&result, branches, tags)
	result.Status = StatusCancelled
	result.Cancelled = true
	scheduler.logger.Warn(schedulerCancelledMessageConstant, zap.Stringers(schedulerLogFieldPendingConstant, result.Pending))
	return result
}
