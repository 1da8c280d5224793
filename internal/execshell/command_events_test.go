package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	broadcasterFirstObserverNameConstant  = "first"
	broadcasterSecondObserverNameConstant = "second"
	broadcasterFailureMessageConstant     = "spawn failed"
)

type orderedEventObserver struct {
	name   string
	events *[]string
}

func (observer orderedEventObserver) CommandStarted(ShellCommand) {
	*observer.events = append(*observer.events, observer.name+":started")
}

func (observer orderedEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {
	*observer.events = append(*observer.events, observer.name+":completed")
}

func (observer orderedEventObserver) CommandExecutionFailed(ShellCommand, error) {
	*observer.events = append(*observer.events, observer.name+":failed")
}

func TestCommandEventBroadcasterPreservesRegistrationOrder(testInstance *testing.T) {
	recordedEvents := []string{}
	broadcaster := newCommandEventBroadcaster([]CommandEventObserver{
		orderedEventObserver{name: broadcasterFirstObserverNameConstant, events: &recordedEvents},
		nil,
		orderedEventObserver{name: broadcasterSecondObserverNameConstant, events: &recordedEvents},
	})
	require.Len(testInstance, broadcaster, 2)

	command := ShellCommand{Name: CommandGit}
	broadcaster.CommandStarted(command)
	broadcaster.CommandCompleted(command, ExecutionResult{})
	broadcaster.CommandExecutionFailed(command, errors.New(broadcasterFailureMessageConstant))

	require.Equal(testInstance, []string{
		"first:started", "second:started",
		"first:completed", "second:completed",
		"first:failed", "second:failed",
	}, recordedEvents)
}

func TestEmptyCommandEventBroadcasterDropsEvents(testInstance *testing.T) {
	broadcaster := newCommandEventBroadcaster(nil)
	require.Empty(testInstance, broadcaster)
	require.NotPanics(testInstance, func() {
		broadcaster.CommandStarted(ShellCommand{Name: CommandGit})
		broadcaster.CommandCompleted(ShellCommand{Name: CommandGit}, ExecutionResult{})
		broadcaster.CommandExecutionFailed(ShellCommand{Name: CommandGit}, nil)
	})
}
