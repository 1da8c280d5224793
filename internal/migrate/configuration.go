package migrate

import (
	"maps"
	"strings"

	pathutils "github.com/temirov/svnport/internal/utils/path"
)

const (
	configurationPlanKeyConstant              = "plan"
	configurationRepositoryKeyConstant        = "repository"
	configurationAdapterKeyConstant           = "adapter"
	configurationDefaultAuthorKeyConstant     = "default_author"
	configurationAuthorEmailDomainKeyConstant = "author_email_domain"
	configurationAuthorsKeyConstant           = "authors"
	configurationSkipCompactionKeyConstant    = "skip_compaction"
	configurationRevisionMapKeyConstant       = "revision_map"
	configurationKeySeparatorConstant         = "."
	defaultRepositoryPathConstant             = "."
	defaultAuthorConstant                     = "svnport <svnport@localhost>"
	defaultAuthorEmailDomainConstant          = "localhost"
)

// CommandConfiguration captures persisted configuration for the migrate command.
type CommandConfiguration struct {
	PlanPath          string            `mapstructure:"plan"`
	RepositoryPath    string            `mapstructure:"repository"`
	Adapter           string            `mapstructure:"adapter"`
	DefaultAuthor     string            `mapstructure:"default_author"`
	AuthorEmailDomain string            `mapstructure:"author_email_domain"`
	Authors           map[string]string `mapstructure:"authors"`
	SkipCompaction    bool              `mapstructure:"skip_compaction"`
	RevisionMapPath   string            `mapstructure:"revision_map"`
}

// DefaultCommandConfiguration returns baseline configuration values for the migrate command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:    defaultRepositoryPathConstant,
		Adapter:           string(AdapterKindGit),
		DefaultAuthor:     defaultAuthorConstant,
		AuthorEmailDomain: defaultAuthorEmailDomainConstant,
	}
}

// DefaultConfigurationValues returns viper defaults keyed beneath prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	values := map[string]any{
		configurationPlanKeyConstant:              defaults.PlanPath,
		configurationRepositoryKeyConstant:        defaults.RepositoryPath,
		configurationAdapterKeyConstant:           defaults.Adapter,
		configurationDefaultAuthorKeyConstant:     defaults.DefaultAuthor,
		configurationAuthorEmailDomainKeyConstant: defaults.AuthorEmailDomain,
		configurationAuthorsKeyConstant:           map[string]string{},
		configurationSkipCompactionKeyConstant:    defaults.SkipCompaction,
		configurationRevisionMapKeyConstant:       defaults.RevisionMapPath,
	}
	if len(prefix) == 0 {
		return values
	}

	prefixed := make(map[string]any, len(values))
	for key, value := range values {
		prefixed[prefix+configurationKeySeparatorConstant+key] = value
	}
	return prefixed
}

// Sanitize trims configured values and resolves configured paths.
func (configuration CommandConfiguration) Sanitize(resolver *pathutils.PathResolver) CommandConfiguration {
	sanitized := configuration
	sanitized.PlanPath = resolver.Resolve(configuration.PlanPath)
	sanitized.RepositoryPath = resolver.Resolve(configuration.RepositoryPath)
	sanitized.RevisionMapPath = resolver.Resolve(configuration.RevisionMapPath)
	sanitized.Adapter = strings.TrimSpace(configuration.Adapter)
	sanitized.DefaultAuthor = strings.TrimSpace(configuration.DefaultAuthor)
	sanitized.AuthorEmailDomain = strings.TrimSpace(configuration.AuthorEmailDomain)
	sanitized.Authors = maps.Clone(configuration.Authors)
	return sanitized
}
