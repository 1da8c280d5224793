package history

import (
	"errors"
	"fmt"
	"strings"
)

const (
	anchorUnreachableMessageConstant           = "unreachable anchor"
	unanchoredPlanMessageConstant              = "unanchored plan"
	dirtyWorkingDirectoryMessageConstant       = "dirty working directory"
	blockedOnExtractMessageConstant            = "blocked on extract"
	adapterFailureMessageConstant              = "target repository I/O failure"
	migrationCancelledMessageConstant          = "migration cancelled"
	staleWorkspaceMessageConstant              = "stale working directory token"
	revisionOutOfOrderMessageConstant          = "revision recorded out of order"
	anchorUnreachableErrorTemplateConstant     = "%s: %s names revision %d but the first recorded revision is %d"
	unanchoredPlanErrorTemplateConstant        = "%s: %s %s has no anchor"
	dirtyWorkingDirectoryErrorTemplateConstant = "%s %s while building %s"
	blockedOnExtractErrorTemplateConstant      = "%s: %d plans cannot be built (%s)"
	adapterErrorTemplateConstant               = "%s: %s: %v"
	revisionOutOfOrderErrorTemplateConstant    = "%w: %s revision %d does not follow %d"
	ownerListSeparatorConstant                 = ", "
)

// Sentinel errors classifying migration failures.
var (
	ErrAnchorUnreachable     = errors.New(anchorUnreachableMessageConstant)
	ErrUnanchoredPlan        = errors.New(unanchoredPlanMessageConstant)
	ErrDirtyWorkingDirectory = errors.New(dirtyWorkingDirectoryMessageConstant)
	ErrBlockedOnExtract      = errors.New(blockedOnExtractMessageConstant)
	ErrAdapterFailure        = errors.New(adapterFailureMessageConstant)
	ErrMigrationCancelled    = errors.New(migrationCancelledMessageConstant)
	ErrStaleWorkspace        = errors.New(staleWorkspaceMessageConstant)
	ErrRevisionOutOfOrder    = errors.New(revisionOutOfOrderMessageConstant)
)

// UnreachableAnchorError reports an anchor older than every commit recorded for its base owner.
type UnreachableAnchorError struct {
	Anchor                Anchor
	FirstRecordedRevision int64
}

// Error describes the unreachable anchor.
func (anchorError UnreachableAnchorError) Error() string {
	return fmt.Sprintf(anchorUnreachableErrorTemplateConstant, anchorUnreachableMessageConstant, anchorError.Anchor.BaseOwner, anchorError.Anchor.BaseRevision, anchorError.FirstRecordedRevision)
}

// Is matches ErrAnchorUnreachable.
func (anchorError UnreachableAnchorError) Is(target error) bool {
	return target == ErrAnchorUnreachable
}

// UnanchoredPlanError reports a branch or tag plan supplied without an anchor.
type UnanchoredPlanError struct {
	Owner Owner
}

// Error describes the unanchored plan.
func (planError UnanchoredPlanError) Error() string {
	return fmt.Sprintf(unanchoredPlanErrorTemplateConstant, unanchoredPlanMessageConstant, planError.Owner.Kind, planError.Owner.Name)
}

// Is matches ErrUnanchoredPlan.
func (planError UnanchoredPlanError) Is(target error) bool {
	return target == ErrUnanchoredPlan
}

// DirtyWorkingDirectoryError reports uncommitted changes where a clean directory is required.
type DirtyWorkingDirectoryError struct {
	Stage string
	Owner Owner
}

// Error describes where the dirty state was observed.
func (dirtyError DirtyWorkingDirectoryError) Error() string {
	return fmt.Sprintf(dirtyWorkingDirectoryErrorTemplateConstant, dirtyWorkingDirectoryMessageConstant, dirtyError.Stage, dirtyError.Owner)
}

// Is matches ErrDirtyWorkingDirectory.
func (dirtyError DirtyWorkingDirectoryError) Is(target error) bool {
	return target == ErrDirtyWorkingDirectory
}

// BlockedOnExtractError reports that the scheduler reached a fixed point with plans left unbuilt.
type BlockedOnExtractError struct {
	PendingOwners []Owner
}

// Error lists the plans that could not be built.
func (blockedError BlockedOnExtractError) Error() string {
	ownerNames := make([]string, 0, len(blockedError.PendingOwners))
	for _, owner := range blockedError.PendingOwners {
		ownerNames = append(ownerNames, owner.String())
	}
	return fmt.Sprintf(blockedOnExtractErrorTemplateConstant, blockedOnExtractMessageConstant, len(ownerNames), strings.Join(ownerNames, ownerListSeparatorConstant))
}

// Is matches ErrBlockedOnExtract.
func (blockedError BlockedOnExtractError) Is(target error) bool {
	return target == ErrBlockedOnExtract
}

// AdapterError wraps a failure reported by the target adapter.
type AdapterError struct {
	Operation string
	Cause     error
}

// Error describes the failed adapter operation.
func (adapterError AdapterError) Error() string {
	return fmt.Sprintf(adapterErrorTemplateConstant, adapterFailureMessageConstant, adapterError.Operation, adapterError.Cause)
}

// Unwrap exposes the adapter-specific cause.
func (adapterError AdapterError) Unwrap() error {
	return adapterError.Cause
}

// Is matches ErrAdapterFailure.
func (adapterError AdapterError) Is(target error) bool {
	return target == ErrAdapterFailure
}

func wrapAdapterError(operation string, cause error) error {
	if cause == nil {
		return nil
	}
	var adapterError AdapterError
	if errors.As(cause, &adapterError) {
		return cause
	}
	return AdapterError{Operation: operation, Cause: cause}
}
