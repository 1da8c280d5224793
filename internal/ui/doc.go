// Package ui renders migration activity for operators.
//
// ConsoleCommandEventLogger narrates git invocations in plain language and
// ProgressReporter logs stage and step progress while exposing context
// cancellation to the migration core.
package ui
