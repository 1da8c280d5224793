package execshell

import (
	"context"

	"go.uber.org/zap"
)

const (
	executorStartedMessageConstant           = "Executing command"
	executorCompletedMessageConstant         = "Command completed"
	executorFailedMessageConstant            = "Command exited with non-zero code"
	executorExecutionFailedMessageConstant   = "Command execution failed"
	executorLogFieldCommandConstant          = "command"
	executorLogFieldArgumentsConstant        = "arguments"
	executorLogFieldWorkingDirectoryConstant = "working_directory"
	executorLogFieldExitCodeConstant         = "exit_code"
	executorLogFieldStandardErrorConstant    = "stderr"
)

// ShellExecutor runs commands through a CommandRunner, logging every invocation and
// notifying the configured observers.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observers commandEventBroadcaster
}

// NewShellExecutor validates its collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{logger: logger, runner: runner, observers: newCommandEventBroadcaster(observers)}, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the command. A non-zero exit code yields CommandFailedError and a
// runner failure yields CommandExecutionError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(executorLogFieldCommandConstant, string(command.Name)),
		zap.Strings(executorLogFieldArgumentsConstant, command.Details.Arguments),
		zap.String(executorLogFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(executorStartedMessageConstant, commandFields...)
	executor.observers.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Warn(executorExecutionFailedMessageConstant, append(commandFields, zap.Error(runError))...)
		executor.observers.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observers.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(executorFailedMessageConstant, append(commandFields, zap.Int(executorLogFieldExitCodeConstant, executionResult.ExitCode), zap.String(executorLogFieldStandardErrorConstant, executionResult.StandardError))...)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executorCompletedMessageConstant, commandFields...)
	return executionResult, nil
}
