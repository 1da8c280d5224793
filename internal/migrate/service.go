package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/ui"
)

const (
	planPathFieldNameConstant              = "plan"
	repositoryPathFieldNameConstant        = "repository"
	adapterFieldNameConstant               = "adapter"
	requiredValueMessageConstant           = "value is required"
	unsupportedAdapterMessageTemplate      = "unsupported adapter %q"
	invalidInputErrorTemplateConstant      = "%s: %s"
	planLoaderMissingMessageConstant       = "plan loader not configured"
	adapterFactoryMissingMessageConstant   = "target adapter factory not configured"
	authorResolverMissingMessageConstant   = "author resolver not configured"
	planLoadErrorTemplateConstant          = "load plan: %w"
	executorCreationErrorTemplateConstant  = "construct plan executor: %w"
	schedulerCreationErrorTemplateConstant = "construct scheduler: %w"
	revisionMapErrorTemplateConstant       = "revision map: %w"
	logFieldMigrationIDConstant            = "migration_id"
	logFieldPlanConstant                   = "plan"
	logFieldRepositoryConstant             = "repository"
	logFieldAdapterConstant                = "adapter"
	logFieldPlanCountConstant              = "plans"
	logFieldRevisionMapConstant            = "revision_map"
	migrationStartedMessageConstant        = "Migration started"
	revisionMapWrittenMessageConstant      = "Revision map written"
)

// InvalidInputError describes migration option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// PlanLoader reads the plan manifest.
type PlanLoader interface {
	Load(manifestPath string) (history.StaticPlanProvider, error)
}

// RevisionMapRecorder persists the revision map report.
type RevisionMapRecorder interface {
	Write(reportPath string, report RevisionMapReport) error
}

// ServiceDependencies describes collaborators for migration runs.
type ServiceDependencies struct {
	Logger              *zap.Logger
	PlanLoader          PlanLoader
	AdapterFactory      TargetAdapterFactory
	RevisionMap         RevisionMapRecorder
	IdentifierGenerator func() string
	Clock               func() time.Time
}

// MigrationOptions configures one migration run.
type MigrationOptions struct {
	PlanPath        string
	RepositoryPath  string
	Adapter         AdapterKind
	Authors         history.AuthorResolver
	SkipCompaction  bool
	RevisionMapPath string
}

// MigrationResult captures the observable outcome of a run.
type MigrationResult struct {
	MigrationID        string
	Outcome            history.MigrationResult
	RecordedCommits    int
	RevisionMapWritten bool
}

// Service runs migrations.
type Service struct {
	logger              *zap.Logger
	planLoader          PlanLoader
	adapterFactory      TargetAdapterFactory
	revisionMap         RevisionMapRecorder
	identifierGenerator func() string
	clock               func() time.Time
}

var (
	errPlanLoaderMissing     = errors.New(planLoaderMissingMessageConstant)
	errAdapterFactoryMissing = errors.New(adapterFactoryMissingMessageConstant)
	errAuthorResolverMissing = errors.New(authorResolverMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.PlanLoader == nil {
		return nil, errPlanLoaderMissing
	}
	if dependencies.AdapterFactory == nil {
		return nil, errAdapterFactoryMissing
	}

	service := &Service{
		logger:              dependencies.Logger,
		planLoader:          dependencies.PlanLoader,
		adapterFactory:      dependencies.AdapterFactory,
		revisionMap:         dependencies.RevisionMap,
		identifierGenerator: dependencies.IdentifierGenerator,
		clock:               dependencies.Clock,
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.identifierGenerator == nil {
		service.identifierGenerator = uuid.NewString
	}
	if service.clock == nil {
		service.clock = time.Now
	}
	return service, nil
}

// Execute loads the plan, replays it into the target repository and writes the
// revision map. Cancelling executionContext stops the run at the next view or tag
// boundary; a cancelled run returns its partial result without error. The revision
// map is written whether or not the run succeeded.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error) {
	if err := service.validateOptions(options); err != nil {
		return MigrationResult{}, err
	}

	result := MigrationResult{MigrationID: service.identifierGenerator()}
	logger := service.logger.With(zap.String(logFieldMigrationIDConstant, result.MigrationID))

	provider, err := service.planLoader.Load(options.PlanPath)
	if err != nil {
		return result, fmt.Errorf(planLoadErrorTemplateConstant, err)
	}

	adapter, err := service.adapterFactory.OpenTargetAdapter(executionContext, options.Adapter, options.RepositoryPath, logger)
	if err != nil {
		return result, err
	}

	logger.Info(
		migrationStartedMessageConstant,
		zap.String(logFieldPlanConstant, options.PlanPath),
		zap.String(logFieldRepositoryConstant, options.RepositoryPath),
		zap.String(logFieldAdapterConstant, string(options.Adapter)),
		zap.Int(logFieldPlanCountConstant, provider.PlanCount()),
	)

	index := history.NewCommitIndex()
	progress := ui.NewProgressReporter(executionContext, logger)

	executor, err := history.NewPlanExecutor(history.PlanExecutorDependencies{
		Adapter:  adapter,
		Index:    index,
		Authors:  options.Authors,
		Progress: progress,
		Logger:   logger,
		Clock:    service.clock,
	})
	if err != nil {
		return result, fmt.Errorf(executorCreationErrorTemplateConstant, err)
	}

	scheduler, err := history.NewScheduler(history.SchedulerDependencies{
		Provider:       provider,
		Builder:        executor,
		Index:          index,
		Progress:       progress,
		Logger:         logger,
		SkipCompaction: options.SkipCompaction,
	})
	if err != nil {
		return result, fmt.Errorf(schedulerCreationErrorTemplateConstant, err)
	}

	// Only the progress reporter observes executionContext. Git commands and content
	// mutators run to completion so a stop always lands between views.
	outcome, runErr := scheduler.Run(context.WithoutCancel(executionContext))
	result.Outcome = outcome
	result.RecordedCommits = index.Len()

	written, reportErr := service.writeRevisionMap(logger, options.RevisionMapPath, result, index, runErr)
	result.RevisionMapWritten = written

	return result, errors.Join(runErr, reportErr)
}

func (service *Service) writeRevisionMap(logger *zap.Logger, reportPath string, result MigrationResult, index *history.CommitIndex, runErr error) (bool, error) {
	if len(reportPath) == 0 || service.revisionMap == nil {
		return false, nil
	}
	report := NewRevisionMapReport(result.MigrationID, result.Outcome.Status, index.Snapshot())
	if result.Outcome.Failed {
		report.MarkFailed(runErr)
	}
	if err := service.revisionMap.Write(reportPath, report); err != nil {
		return false, fmt.Errorf(revisionMapErrorTemplateConstant, err)
	}
	logger.Info(revisionMapWrittenMessageConstant, zap.String(logFieldRevisionMapConstant, reportPath))
	return true, nil
}

func (service *Service) validateOptions(options MigrationOptions) error {
	if len(strings.TrimSpace(options.PlanPath)) == 0 {
		return InvalidInputError{FieldName: planPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.RepositoryPath)) == 0 {
		return InvalidInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	switch options.Adapter {
	case AdapterKindGit, AdapterKindGoGit:
	default:
		return InvalidInputError{FieldName: adapterFieldNameConstant, Message: fmt.Sprintf(unsupportedAdapterMessageTemplate, options.Adapter)}
	}
	if options.Authors == nil {
		return errAuthorResolverMissing
	}
	return nil
}
