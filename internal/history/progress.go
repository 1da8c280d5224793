package history

// ProgressSink receives progress notifications from the migration.
// CheckCancellation returns ErrMigrationCancelled (possibly wrapped) once the operator
// requested a stop.
type ProgressSink interface {
	BeginTask(taskName string)
	SetStageCount(stageCount int)
	SetStepCount(stepCount int)
	NextStep(stepLabel string)
	CheckCancellation() error
}

type noopProgressSink struct{}

func (noopProgressSink) BeginTask(string) {}

func (noopProgressSink) SetStageCount(int) {}

func (noopProgressSink) SetStepCount(int) {}

func (noopProgressSink) NextStep(string) {}

func (noopProgressSink) CheckCancellation() error { return nil }

// NoopProgressSink returns a sink that ignores notifications and never cancels.
func NoopProgressSink() ProgressSink {
	return noopProgressSink{}
}
