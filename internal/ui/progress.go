package ui

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/svnport/internal/history"
)

const (
	progressTaskStartedMessageConstant   = "Starting task"
	progressStepMessageConstant          = "Replaying revision"
	progressCancellationTemplateConstant = "%w: %w"
	progressLogFieldTaskConstant         = "task"
	progressLogFieldStageConstant        = "stage"
	progressLogFieldStageCountConstant   = "stages"
	progressLogFieldStepConstant         = "step"
	progressLogFieldStepCountConstant    = "steps"
	progressLogFieldPercentConstant      = "percent"
	progressLogFieldLabelConstant        = "label"
	progressPercentScaleConstant         = 100
)

// ProgressReporter logs migration progress and reports cancellation of its context.
// The first task names the whole run; each later task counts as one stage.
type ProgressReporter struct {
	executionContext context.Context
	logger           *zap.Logger
	rootTask         string
	taskName         string
	stageCount       int
	stageIndex       int
	stepCount        int
	stepIndex        int
}

// NewProgressReporter constructs a reporter bound to the cancellation of executionContext.
func NewProgressReporter(executionContext context.Context, logger *zap.Logger) *ProgressReporter {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressReporter{executionContext: executionContext, logger: logger}
}

// BeginTask starts a named task.
func (reporter *ProgressReporter) BeginTask(taskName string) {
	reporter.stepCount = 0
	reporter.stepIndex = 0
	if len(reporter.rootTask) == 0 {
		reporter.rootTask = taskName
		reporter.taskName = taskName
		reporter.logger.Info(progressTaskStartedMessageConstant, zap.String(progressLogFieldTaskConstant, taskName))
		return
	}

	reporter.taskName = taskName
	reporter.stageIndex++
	reporter.logger.Info(
		progressTaskStartedMessageConstant,
		zap.String(progressLogFieldTaskConstant, taskName),
		zap.Int(progressLogFieldStageConstant, reporter.stageIndex),
		zap.Int(progressLogFieldStageCountConstant, reporter.stageCount),
	)
}

// SetStageCount records how many stages the run has.
func (reporter *ProgressReporter) SetStageCount(stageCount int) {
	reporter.stageCount = stageCount
}

// SetStepCount records how many steps the current task has.
func (reporter *ProgressReporter) SetStepCount(stepCount int) {
	reporter.stepCount = stepCount
	reporter.stepIndex = 0
}

// NextStep advances the current task by one step.
func (reporter *ProgressReporter) NextStep(stepLabel string) {
	reporter.stepIndex++
	reporter.logger.Debug(
		progressStepMessageConstant,
		zap.String(progressLogFieldTaskConstant, reporter.taskName),
		zap.String(progressLogFieldLabelConstant, stepLabel),
		zap.Int(progressLogFieldStepConstant, reporter.stepIndex),
		zap.Int(progressLogFieldStepCountConstant, reporter.stepCount),
		zap.Int(progressLogFieldPercentConstant, reporter.Percent()),
	)
}

// Percent returns how much of the current task is done.
func (reporter *ProgressReporter) Percent() int {
	if reporter.stepCount <= 0 {
		return 0
	}
	return reporter.stepIndex * progressPercentScaleConstant / reporter.stepCount
}

// CheckCancellation returns history.ErrMigrationCancelled once the context is done.
func (reporter *ProgressReporter) CheckCancellation() error {
	if contextError := reporter.executionContext.Err(); contextError != nil {
		return fmt.Errorf(progressCancellationTemplateConstant, history.ErrMigrationCancelled, contextError)
	}
	return nil
}

var _ history.ProgressSink = (*ProgressReporter)(nil)
