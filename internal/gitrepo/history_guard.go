package gitrepo

import (
	"context"
	"errors"
	"fmt"
)

const (
	targetNotEmptyMessageConstant          = "target repository already has commits; migrate into an empty repository"
	historyInspectionErrorTemplateConstant = "inspect target history: %w"
)

// ErrTargetRepositoryNotEmpty is returned when the migration target already has a HEAD commit.
var ErrTargetRepositoryNotEmpty = errors.New(targetNotEmptyMessageConstant)

// HistoryInspector reports whether a repository already holds commits.
type HistoryInspector interface {
	HasCommits(executionContext context.Context) (bool, error)
}

// RequireEmptyHistory fails with ErrTargetRepositoryNotEmpty when inspector reports existing
// commits. Replaying onto an existing HEAD would stack duplicate history.
func RequireEmptyHistory(executionContext context.Context, inspector HistoryInspector) error {
	populated, err := inspector.HasCommits(executionContext)
	if err != nil {
		return fmt.Errorf(historyInspectionErrorTemplateConstant, err)
	}
	if populated {
		return ErrTargetRepositoryNotEmpty
	}
	return nil
}
