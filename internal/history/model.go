package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
)

const (
	planOwnerMissingMessageConstant        = "plan owner must be provided"
	planViewOrderErrorTemplateConstant     = "plan %s: view revision %d does not follow revision %d"
	planViewContentErrorTemplateConstant   = "plan %s: view revision %d has no content"
	planTrunkAnchoredErrorTemplateConstant = "plan %s: trunk plan must not carry an anchor"
	anchorStringTemplateConstant           = "%s@%d"
)

var errPlanOwnerMissing = errors.New(planOwnerMissingMessageConstant)

// CommitID is the object name of a commit in the target repository.
type CommitID string

// String returns the commit object name.
func (commitID CommitID) String() string {
	return string(commitID)
}

// Signature identifies the author or tagger of a target object.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// ContentMutator rewrites a working filesystem so it matches one historical snapshot.
// Implementations must leave the reserved metadata directory untouched.
type ContentMutator interface {
	Apply(executionContext context.Context, workingFilesystem billy.Filesystem) error
}

// View is a single historical snapshot scheduled for replay.
type View struct {
	Revision      int64
	Timestamp     time.Time
	Author        string
	LogMessage    string
	Content       ContentMutator
	MigratedOwner *Owner
}

// IndexOwner returns the owner under which the view's commit is recorded.
func (view View) IndexOwner(planOwner Owner) Owner {
	if view.MigratedOwner != nil {
		return *view.MigratedOwner
	}
	return planOwner
}

// Anchor names the revision of another plan's history a plan forks from.
type Anchor struct {
	BaseOwner    Owner
	BaseRevision int64
}

// String renders the anchor as owner@revision.
func (anchor Anchor) String() string {
	return fmt.Sprintf(anchorStringTemplateConstant, anchor.BaseOwner, anchor.BaseRevision)
}

// Plan is the ordered list of views for one owner.
type Plan struct {
	Owner  Owner
	Anchor *Anchor
	Views  []View
}

// LastRevision returns the revision of the final view, or zero for an empty plan.
func (plan Plan) LastRevision() int64 {
	if len(plan.Views) == 0 {
		return 0
	}
	return plan.Views[len(plan.Views)-1].Revision
}

// Validate checks that views are strictly ordered by revision and carry content.
func (plan Plan) Validate() error {
	if len(plan.Owner.Kind) == 0 {
		return errPlanOwnerMissing
	}
	if plan.Owner.IsTrunk() && plan.Anchor != nil {
		return fmt.Errorf(planTrunkAnchoredErrorTemplateConstant, plan.Owner)
	}
	for viewIndex, view := range plan.Views {
		if view.Content == nil {
			return fmt.Errorf(planViewContentErrorTemplateConstant, plan.Owner, view.Revision)
		}
		if viewIndex == 0 {
			continue
		}
		previousRevision := plan.Views[viewIndex-1].Revision
		if view.Revision <= previousRevision {
			return fmt.Errorf(planViewOrderErrorTemplateConstant, plan.Owner, view.Revision, previousRevision)
		}
	}
	return nil
}
