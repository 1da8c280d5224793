// Package history replays a centralized repository's revision history into a git
// repository.
//
// A PlanProvider supplies one Plan per owner (the trunk, every branch, every tag),
// each an ordered list of Views. The Scheduler builds the trunk first and then
// retries branch and tag plans until every Anchor resolves through the CommitIndex
// or a whole pass makes no progress. The PlanExecutor performs the replay through a
// Workspace, which hands out CleanWorkspace tokens so that no view is ever applied
// on top of uncommitted state.
package history
