package migrate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/plans"
	"github.com/temirov/svnport/internal/utils/flags"
	pathutils "github.com/temirov/svnport/internal/utils/path"
)

const (
	commandUseConstant                   = "migrate"
	commandShortDescriptionConstant      = "Replay a planned history into a git repository"
	commandLongDescriptionConstant       = "migrate reads a plan manifest describing trunk, branch and tag histories, replays every revision snapshot into the target git repository, creates branches and annotated tags at their anchors, and writes a revision map."
	planFlagNameConstant                 = "plan"
	planFlagUsageConstant                = "Path to the plan manifest (YAML or JSON)."
	repositoryFlagNameConstant           = "repository"
	repositoryFlagUsageConstant          = "Path to the target git repository; created when missing."
	adapterFlagNameConstant              = "adapter"
	adapterFlagUsageConstant             = "Target adapter driving the repository."
	revisionMapFlagNameConstant          = "revision-map"
	revisionMapFlagUsageConstant         = "Write the revision to commit map to this YAML file."
	skipCompactionFlagNameConstant       = "skip-compaction"
	skipCompactionFlagUsageConstant      = "Skip garbage collection after a complete migration."
	migrationFailedErrorTemplateConstant = "migration failed: %w"
	migrationCompletedMessageConstant    = "Migration completed"
	migrationCancelledMessageConstant    = "Migration cancelled; repository left at the last completed revision"
	logFieldPassesConstant               = "passes"
	logFieldStatusConstant               = "status"
	logFieldBranchesConstant             = "branches"
	logFieldTagsConstant                 = "tags"
	logFieldCommitsConstant              = "commits"
	logFieldPendingConstant              = "pending"
	logFieldCompactedConstant            = "compacted"
)

// MigrationExecutor runs a configured migration.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error)
}

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
	ServiceProvider              ServiceProvider
	AdapterFactory               TargetAdapterFactory
	Filesystem                   afero.Fs
	WorkingDirectory             string
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigrate,
	}

	command.Flags().String(planFlagNameConstant, "", planFlagUsageConstant)
	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagUsageConstant)
	command.Flags().String(adapterFlagNameConstant, "", flags.FormatChoiceUsage(string(AdapterKindGit), AdapterKindChoices(), adapterFlagUsageConstant))
	command.Flags().String(revisionMapFlagNameConstant, "", revisionMapFlagUsageConstant)
	command.Flags().Bool(skipCompactionFlagNameConstant, false, skipCompactionFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, _ []string) error {
	configuration, err := builder.parseConfiguration(command)
	if err != nil {
		return err
	}

	adapterName, err := flags.NormalizeChoice(adapterFieldNameConstant, configuration.Adapter, string(AdapterKindGit), AdapterKindChoices())
	if err != nil {
		return InvalidInputError{FieldName: adapterFieldNameConstant, Message: err.Error()}
	}

	authors, err := NewAuthorDirectory(configuration.Authors, configuration.DefaultAuthor, configuration.AuthorEmailDomain)
	if err != nil {
		return err
	}

	logger := builder.resolveLogger()
	service, err := builder.resolveService(logger)
	if err != nil {
		return err
	}

	executionContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	result, err := service.Execute(executionContext, MigrationOptions{
		PlanPath:        configuration.PlanPath,
		RepositoryPath:  configuration.RepositoryPath,
		Adapter:         AdapterKind(adapterName),
		Authors:         authors,
		SkipCompaction:  configuration.SkipCompaction,
		RevisionMapPath: configuration.RevisionMapPath,
	})
	if err != nil {
		return fmt.Errorf(migrationFailedErrorTemplateConstant, err)
	}

	builder.logSummary(logger, result)
	if result.Outcome.Cancelled {
		return history.ErrMigrationCancelled
	}
	return nil
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(planFlagNameConstant) {
		configuration.PlanPath, _ = commandFlags.GetString(planFlagNameConstant)
	}
	if commandFlags.Changed(repositoryFlagNameConstant) {
		configuration.RepositoryPath, _ = commandFlags.GetString(repositoryFlagNameConstant)
	}
	if commandFlags.Changed(adapterFlagNameConstant) {
		configuration.Adapter, _ = commandFlags.GetString(adapterFlagNameConstant)
	}
	if commandFlags.Changed(revisionMapFlagNameConstant) {
		configuration.RevisionMapPath, _ = commandFlags.GetString(revisionMapFlagNameConstant)
	}
	if commandFlags.Changed(skipCompactionFlagNameConstant) {
		configuration.SkipCompaction, _ = commandFlags.GetBool(skipCompactionFlagNameConstant)
	}

	sanitized := configuration.Sanitize(pathutils.NewPathResolver(builder.HomeExpander, builder.WorkingDirectory))
	if len(sanitized.PlanPath) == 0 {
		return CommandConfiguration{}, InvalidInputError{FieldName: planPathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return sanitized, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if logger := builder.LoggerProvider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger) (MigrationExecutor, error) {
	filesystem := builder.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}

	planLoader, err := plans.NewLoader(filesystem, nil)
	if err != nil {
		return nil, err
	}
	revisionMapWriter, err := NewRevisionMapWriter(filesystem)
	if err != nil {
		return nil, err
	}

	adapterFactory := builder.AdapterFactory
	if adapterFactory == nil {
		humanReadableLogging := false
		if builder.HumanReadableLoggingProvider != nil {
			humanReadableLogging = builder.HumanReadableLoggingProvider()
		}
		adapterFactory = DefaultTargetAdapterFactory{HumanReadableLogging: humanReadableLogging}
	}

	dependencies := ServiceDependencies{
		Logger:         logger,
		PlanLoader:     planLoader,
		AdapterFactory: adapterFactory,
		RevisionMap:    revisionMapWriter,
	}
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) logSummary(logger *zap.Logger, result MigrationResult) {
	summaryFields := []zap.Field{
		zap.Int(logFieldPassesConstant, result.Outcome.Passes),
		zap.Stringer(logFieldStatusConstant, result.Outcome.Status),
		zap.Stringers(logFieldBranchesConstant, result.Outcome.Branches),
		zap.Stringers(logFieldTagsConstant, result.Outcome.Tags),
		zap.Int(logFieldCommitsConstant, result.RecordedCommits),
		zap.Bool(logFieldCompactedConstant, result.Outcome.Compacted),
	}
	if result.Outcome.Cancelled {
		logger.Warn(migrationCancelledMessageConstant, append(summaryFields, zap.Stringers(logFieldPendingConstant, result.Outcome.Pending))...)
		return
	}
	logger.Info(migrationCompletedMessageConstant, summaryFields...)
}
