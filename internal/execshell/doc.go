// Package execshell runs the git binary on behalf of the command-line target adapter.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner in production) with
// structured logging, typed failures and lifecycle observers, and
// CommandMessageFormatter turns each git invocation into a plain-language
// description for console output.
package execshell
