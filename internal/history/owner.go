package history

import (
	"fmt"
	"strings"
)

const (
	ownerKindTrunkStringConstant    = "trunk"
	ownerKindBranchStringConstant   = "branches"
	ownerKindTagStringConstant      = "tags"
	ownerPathSeparatorConstant      = "/"
	ownerStringTemplateConstant     = "%s/%s"
	ownerParseErrorTemplateConstant = "invalid owner %q: %s"
	ownerNameMissingMessageConstant = "name must follow the kind prefix"
	ownerKindUnknownMessageConstant = "expected trunk, branches/<name>, or tags/<name>"
)

// OwnerKind distinguishes the trunk from named branches and tags.
type OwnerKind string

// Supported owner kinds.
const (
	OwnerKindTrunk  OwnerKind = OwnerKind(ownerKindTrunkStringConstant)
	OwnerKindBranch OwnerKind = OwnerKind(ownerKindBranchStringConstant)
	OwnerKindTag    OwnerKind = OwnerKind(ownerKindTagStringConstant)
)

// Owner identifies the line of history a Plan builds.
type Owner struct {
	Kind OwnerKind
	Name string
}

// TrunkOwner returns the owner of the trunk plan.
func TrunkOwner() Owner {
	return Owner{Kind: OwnerKindTrunk}
}

// BranchOwner returns the owner of the named branch.
func BranchOwner(name string) Owner {
	return Owner{Kind: OwnerKindBranch, Name: name}
}

// TagOwner returns the owner of the named tag.
func TagOwner(name string) Owner {
	return Owner{Kind: OwnerKindTag, Name: name}
}

// IsTrunk reports whether the owner is the trunk.
func (owner Owner) IsTrunk() bool {
	return owner.Kind == OwnerKindTrunk
}

// String renders the owner as trunk, branches/<name>, or tags/<name>.
func (owner Owner) String() string {
	if owner.Kind == OwnerKindTrunk {
		return ownerKindTrunkStringConstant
	}
	return fmt.Sprintf(ownerStringTemplateConstant, owner.Kind, owner.Name)
}

// ParseOwner converts the textual form produced by Owner.String back into an Owner.
func ParseOwner(value string) (Owner, error) {
	trimmedValue := strings.Trim(strings.TrimSpace(value), ownerPathSeparatorConstant)
	if trimmedValue == ownerKindTrunkStringConstant {
		return TrunkOwner(), nil
	}

	kindText, name, separatorFound := strings.Cut(trimmedValue, ownerPathSeparatorConstant)
	if !separatorFound {
		return Owner{}, fmt.Errorf(ownerParseErrorTemplateConstant, value, ownerKindUnknownMessageConstant)
	}

	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return Owner{}, fmt.Errorf(ownerParseErrorTemplateConstant, value, ownerNameMissingMessageConstant)
	}

	switch OwnerKind(kindText) {
	case OwnerKindBranch:
		return BranchOwner(trimmedName), nil
	case OwnerKindTag:
		return TagOwner(trimmedName), nil
	default:
		return Owner{}, fmt.Errorf(ownerParseErrorTemplateConstant, value, ownerKindUnknownMessageConstant)
	}
}
