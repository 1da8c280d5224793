// Package gitrepo implements history.TargetAdapter for git repositories.
//
// RepositoryAdapter drives an in-process go-git repository, on disk or in memory.
// CommandAdapter drives the git binary through execshell and is the default for
// real migrations.
package gitrepo
