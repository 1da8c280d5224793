package history

import (
	"context"

	"github.com/go-git/go-billy/v5"
)

// TargetAdapter exposes the primitive operations of the target repository.
// Implementations operate on a single working directory and are not safe for concurrent use.
type TargetAdapter interface {
	IsWorkingDirectoryClean(executionContext context.Context) (bool, error)
	CheckoutBranch(executionContext context.Context, branchName string, baseCommit CommitID) error
	CheckoutDetached(executionContext context.Context, commitID CommitID) error
	StageAll(executionContext context.Context) error
	Commit(executionContext context.Context, author Signature, message string) (CommitID, error)
	CreateAnnotatedTag(executionContext context.Context, tagName string, commitID CommitID, tagger Signature, message string) error
	GarbageCollect(executionContext context.Context) error
	WorkingFilesystem() billy.Filesystem
}

// AuthorResolver maps a source user name to a commit signature.
type AuthorResolver interface {
	ResolveAuthor(userName string) (name string, email string)
}

// AuthorResolverFunc adapts a function to AuthorResolver.
type AuthorResolverFunc func(userName string) (string, string)

// ResolveAuthor calls the wrapped function.
func (resolver AuthorResolverFunc) ResolveAuthor(userName string) (string, string) {
	return resolver(userName)
}
