package pathutils

import (
	"path/filepath"
	"strings"
)

// PathResolver turns configured paths into absolute, cleaned paths. Relative paths
// resolve against the base directory and a leading tilde resolves to the user's home.
type PathResolver struct {
	homeExpander  *HomeExpander
	baseDirectory string
}

// NewPathResolver constructs a PathResolver rooted at baseDirectory.
func NewPathResolver(homeExpander *HomeExpander, baseDirectory string) *PathResolver {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &PathResolver{homeExpander: homeExpander, baseDirectory: baseDirectory}
}

// Resolve returns the absolute form of candidatePath, or an empty string for blank input.
func (resolver *PathResolver) Resolve(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}

	expandedPath := resolver.homeExpander.Expand(trimmedPath)
	if filepath.IsAbs(expandedPath) || len(resolver.baseDirectory) == 0 {
		return filepath.Clean(expandedPath)
	}
	return filepath.Join(resolver.baseDirectory, expandedPath)
}
