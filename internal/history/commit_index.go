package history

import (
	"fmt"
	"sort"
)

// IndexedCommit pairs a source revision with the target commit it produced.
type IndexedCommit struct {
	Revision int64
	CommitID CommitID
}

// CommitIndex records, per owner, which target commit each source revision became.
// Logs are append-only and strictly increasing in revision.
type CommitIndex struct {
	commitLogs map[Owner][]IndexedCommit
}

// NewCommitIndex constructs an empty CommitIndex.
func NewCommitIndex() *CommitIndex {
	return &CommitIndex{commitLogs: make(map[Owner][]IndexedCommit)}
}

// RecordCommit appends the commit produced for revision under owner.
func (index *CommitIndex) RecordCommit(owner Owner, revision int64, commitID CommitID) error {
	commitLog := index.commitLogs[owner]
	if len(commitLog) > 0 {
		lastRevision := commitLog[len(commitLog)-1].Revision
		if revision <= lastRevision {
			return fmt.Errorf(revisionOutOfOrderErrorTemplateConstant, ErrRevisionOutOfOrder, owner, revision, lastRevision)
		}
	}
	index.commitLogs[owner] = append(commitLog, IndexedCommit{Revision: revision, CommitID: commitID})
	return nil
}

// HasCommits reports whether owner has produced any commits yet.
func (index *CommitIndex) HasCommits(owner Owner) bool {
	return len(index.commitLogs[owner]) > 0
}

// ResolveAnchor returns the commit recorded for the greatest revision of the anchor's
// base owner that does not exceed the anchor revision. The boolean result is false
// when the base owner has not committed anything yet; that condition is retryable.
func (index *CommitIndex) ResolveAnchor(anchor Anchor) (CommitID, bool, error) {
	commitLog := index.commitLogs[anchor.BaseOwner]
	if len(commitLog) == 0 {
		return "", false, nil
	}

	var resolved *IndexedCommit
	for entryIndex := range commitLog {
		if commitLog[entryIndex].Revision > anchor.BaseRevision {
			break
		}
		resolved = &commitLog[entryIndex]
	}

	if resolved == nil {
		return "", false, UnreachableAnchorError{Anchor: anchor, FirstRecordedRevision: commitLog[0].Revision}
	}

	return resolved.CommitID, true, nil
}

// Entries returns a copy of the commit log recorded for owner.
func (index *CommitIndex) Entries(owner Owner) []IndexedCommit {
	return append([]IndexedCommit(nil), index.commitLogs[owner]...)
}

// LastCommit returns the most recent commit recorded for owner.
func (index *CommitIndex) LastCommit(owner Owner) (IndexedCommit, bool) {
	commitLog := index.commitLogs[owner]
	if len(commitLog) == 0 {
		return IndexedCommit{}, false
	}
	return commitLog[len(commitLog)-1], true
}

// Owners lists every owner with at least one commit, sorted by name.
func (index *CommitIndex) Owners() []Owner {
	owners := make([]Owner, 0, len(index.commitLogs))
	for owner, commitLog := range index.commitLogs {
		if len(commitLog) == 0 {
			continue
		}
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(left int, right int) bool {
		return owners[left].String() < owners[right].String()
	})
	return owners
}

// Len returns the total number of recorded commits.
func (index *CommitIndex) Len() int {
	total := 0
	for _, commitLog := range index.commitLogs {
		total += len(commitLog)
	}
	return total
}

// OwnerCommitLog is the recorded history of one owner.
type OwnerCommitLog struct {
	Owner   Owner
	Commits []IndexedCommit
}

// Snapshot returns a copy of every owner's commit log, ordered by owner name.
func (index *CommitIndex) Snapshot() []OwnerCommitLog {
	owners := index.Owners()
	commitLogs := make([]OwnerCommitLog, 0, len(owners))
	for _, owner := range owners {
		commitLogs = append(commitLogs, OwnerCommitLog{Owner: owner, Commits: index.Entries(owner)})
	}
	return commitLogs
}
