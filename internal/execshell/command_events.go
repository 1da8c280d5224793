package execshell

// CommandEventObserver receives lifecycle notifications for every executed command.
type CommandEventObserver interface {
	// CommandStarted is called before the runner is invoked.
	CommandStarted(command ShellCommand)
	// CommandCompleted is called once the process exits, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the process could not run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// commandEventBroadcaster fans a single lifecycle event out to every registered observer in
// registration order. An empty broadcaster is valid and drops all events.
type commandEventBroadcaster []CommandEventObserver

func newCommandEventBroadcaster(observers []CommandEventObserver) commandEventBroadcaster {
	broadcaster := make(commandEventBroadcaster, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			broadcaster = append(broadcaster, observer)
		}
	}
	return broadcaster
}

func (broadcaster commandEventBroadcaster) CommandStarted(command ShellCommand) {
	for _, observer := range broadcaster {
		observer.CommandStarted(command)
	}
}

func (broadcaster commandEventBroadcaster) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range broadcaster {
		observer.CommandCompleted(command, result)
	}
}

func (broadcaster commandEventBroadcaster) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range broadcaster {
		observer.CommandExecutionFailed(command, failure)
	}
}
