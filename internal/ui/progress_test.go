package ui_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/ui"
)

func TestProgressReporterTracksStagesAndSteps(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	reporter := ui.NewProgressReporter(context.Background(), zap.New(observerCore))

	reporter.BeginTask("migrate history")
	reporter.SetStageCount(3)
	reporter.BeginTask("branches/feature")
	reporter.SetStepCount(4)
	reporter.NextStep("branches/feature r10")
	reporter.NextStep("branches/feature r11")

	require.Equal(testInstance, 50, reporter.Percent())

	entries := observedLogs.All()
	require.Len(testInstance, entries, 4)
	stageFields := entries[1].ContextMap()
	require.Equal(testInstance, "branches/feature", stageFields["task"])
	require.EqualValues(testInstance, 1, stageFields["stage"])
	require.EqualValues(testInstance, 3, stageFields["stages"])
	stepFields := entries[3].ContextMap()
	require.EqualValues(testInstance, 2, stepFields["step"])
	require.EqualValues(testInstance, 50, stepFields["percent"])
}

func TestProgressReporterPercentWithoutSteps(testInstance *testing.T) {
	reporter := ui.NewProgressReporter(context.Background(), nil)
	reporter.BeginTask("trunk")
	require.Zero(testInstance, reporter.Percent())
}

func TestProgressReporterCancellation(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	reporter := ui.NewProgressReporter(executionContext, nil)

	require.NoError(testInstance, reporter.CheckCancellation())

	cancel()

	cancellationError := reporter.CheckCancellation()
	require.ErrorIs(testInstance, cancellationError, history.ErrMigrationCancelled)
	require.ErrorIs(testInstance, cancellationError, context.Canceled)
}
