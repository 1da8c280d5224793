package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
	messageLineSeparatorConstant            = "\n"
)

const (
	gitInitSubcommandNameConstant     = "init"
	gitStatusSubcommandNameConstant   = "status"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitTagSubcommandNameConstant      = "tag"
	gitGCSubcommandNameConstant       = "gc"
	gitCreateBranchFlagConstant       = "-b"
	gitDetachFlagConstant             = "--detach"
	gitMessageFlagConstant            = "-m"
	gitMessageFileFlagConstant        = "-F"
)

type gitMessageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitInitTemplates = gitMessageTemplates{
		start:            "Initializing repository in %s",
		success:          "Initialized repository in %s",
		failure:          "Failed to initialize repository in %s (exit code %d%s)",
		executionFailure: "Unable to initialize repository in %s: %s",
	}
	gitStatusTemplates = gitMessageTemplates{
		start:            "Reviewing working tree status in %s",
		success:          "Collected working tree status for %s",
		failure:          "Failed to review working tree status in %s (exit code %d%s)",
		executionFailure: "Unable to review working tree status in %s: %s",
	}
	gitBranchCheckoutTemplates = gitMessageTemplates{
		start:            "Creating branch %s at %s in %s",
		success:          "Switched to new branch %s at %s in %s",
		failure:          "Failed to create branch %s at %s in %s (exit code %d%s)",
		executionFailure: "Unable to create branch %s at %s in %s: %s",
	}
	gitDetachedCheckoutTemplates = gitMessageTemplates{
		start:            "Checking out %s without a branch in %s",
		success:          "Checked out %s without a branch in %s",
		failure:          "Failed to check out %s in %s (exit code %d%s)",
		executionFailure: "Unable to check out %s in %s: %s",
	}
	gitAddTemplates = gitMessageTemplates{
		start:            "Staging all changes in %s",
		success:          "Staged all changes in %s",
		failure:          "Failed to stage changes in %s (exit code %d%s)",
		executionFailure: "Unable to stage changes in %s: %s",
	}
	gitCommitTemplates = gitMessageTemplates{
		start:            "Creating commit in %s with message %q",
		success:          "Created commit in %s with message %q",
		failure:          "Failed to create commit in %s with message %q (exit code %d%s)",
		executionFailure: "Unable to create commit in %s with message %q: %s",
	}
	gitRevParseTemplates = gitMessageTemplates{
		start:            "Resolving %s in %s",
		success:          "Resolved %s in %s",
		failure:          "Failed to resolve %s in %s (exit code %d%s)",
		executionFailure: "Unable to resolve %s in %s: %s",
	}
	gitTagTemplates = gitMessageTemplates{
		start:            "Creating annotated tag %s at %s in %s",
		success:          "Created annotated tag %s at %s in %s",
		failure:          "Failed to create annotated tag %s at %s in %s (exit code %d%s)",
		executionFailure: "Unable to create annotated tag %s at %s in %s: %s",
	}
	gitGCTemplates = gitMessageTemplates{
		start:            "Compacting repository in %s",
		success:          "Compacted repository in %s",
		failure:          "Failed to compact repository in %s (exit code %d%s)",
		executionFailure: "Unable to compact repository in %s: %s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(arguments[0]) {
	case gitInitSubcommandNameConstant:
		return formatter.render(gitInitTemplates, stage, result, failure, workingDirectory)
	case gitStatusSubcommandNameConstant:
		return formatter.render(gitStatusTemplates, stage, result, failure, workingDirectory)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitAddSubcommandNameConstant:
		return formatter.render(gitAddTemplates, stage, result, failure, workingDirectory)
	case gitCommitSubcommandNameConstant:
		return formatter.render(gitCommitTemplates, stage, result, failure, workingDirectory, formatter.extractMessage(command))
	case gitRevParseSubcommandNameConstant:
		reference := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
		return formatter.render(gitRevParseTemplates, stage, result, failure, reference, workingDirectory)
	case gitTagSubcommandNameConstant:
		return formatter.describeGitTagMessage(command, result, failure, stage)
	case gitGCSubcommandNameConstant:
		return formatter.render(gitGCTemplates, stage, result, failure, workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	if branchName := findFlagValue(arguments, gitCreateBranchFlagConstant); len(branchName) > 0 {
		startPoint := formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:], branchName))
		return formatter.render(gitBranchCheckoutTemplates, stage, result, failure, branchName, startPoint, workingDirectory)
	}

	target := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
	if !containsArgument(arguments, gitDetachFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.render(gitDetachedCheckoutTemplates, stage, result, failure, target, workingDirectory)
}

func (formatter CommandMessageFormatter) describeGitTagMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	positional := formatter.positionalArguments(arguments[1:])
	tagName := fallbackUnknownValueLabelConstant
	target := fallbackUnknownValueLabelConstant
	if len(positional) > 0 {
		tagName = positional[0]
	}
	if len(positional) > 1 {
		target = positional[1]
	}
	return formatter.render(gitTagTemplates, stage, result, failure, tagName, target, workingDirectory)
}

func (formatter CommandMessageFormatter) render(templates gitMessageTemplates, stage messageStage, result ExecutionResult, failure error, values ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(values, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))...)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, append(values, formatter.describeFailure(failure))...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, describeCommand(command), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// extractMessage returns the first line of the commit message passed either with -m
// or on standard input.
func (formatter CommandMessageFormatter) extractMessage(command ShellCommand) string {
	message := findFlagValue(command.Details.Arguments, gitMessageFlagConstant)
	if len(message) == 0 && containsArgument(command.Details.Arguments, gitMessageFileFlagConstant) {
		message = strings.TrimSpace(string(command.Details.StandardInput))
	}
	firstLine, _, _ := strings.Cut(message, messageLineSeparatorConstant)
	return strings.TrimSpace(firstLine)
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	positional := formatter.positionalArguments(arguments)
	if len(positional) == 0 {
		return emptyStringConstant
	}
	return positional[0]
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string, excluded string) string {
	positional := formatter.positionalArguments(arguments)
	for index := len(positional) - 1; index >= 0; index-- {
		if positional[index] != excluded {
			return positional[index]
		}
	}
	return emptyStringConstant
}

// positionalArguments drops flags together with the values of flags that take one.
func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	var positional []string
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if trimmed == gitMessageFlagConstant || trimmed == gitMessageFileFlagConstant {
			index++
			continue
		}
		if strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
