package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/migrate"
	"github.com/temirov/svnport/internal/plans"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	planHeaderMarkerConstant         = "# plan.yaml"
	parentDirectoryReferenceConstant = ".."
	readmePlanPathConstant           = "/readme/plan.yaml"
	missingHeaderMessageTemplate     = "README example missing %s marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	expectedReadmePlanCount          = 3
)

type readmeApplicationConfiguration struct {
	Tools struct {
		Migrate map[string]any `yaml:"migrate"`
	} `yaml:"tools"`
}

func readReadme(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	contentBytes, readError := os.ReadFile(filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant))
	require.NoError(testInstance, readError)
	return string(contentBytes)
}

func extractSnippet(testInstance *testing.T, contentText string, headerMarker string) string {
	testInstance.Helper()
	headerIndex := strings.Index(contentText, headerMarker)
	require.NotEqualf(testInstance, -1, headerIndex, missingHeaderMessageTemplate, headerMarker)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	fenceEndRelativeIndex := strings.Index(contentText[headerIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : headerIndex+fenceEndRelativeIndex])
}

func TestReadmeConfigurationParses(testInstance *testing.T) {
	snippetContent := extractSnippet(testInstance, readReadme(testInstance), configHeaderMarkerConstant)

	var applicationConfiguration readmeApplicationConfiguration
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &applicationConfiguration))

	var configuration migrate.CommandConfiguration
	require.NoError(testInstance, mapstructure.Decode(applicationConfiguration.Tools.Migrate, &configuration))
	require.NotEmpty(testInstance, configuration.PlanPath)
	require.Contains(testInstance, migrate.AdapterKindChoices(), configuration.Adapter)

	authors, authorsError := migrate.NewAuthorDirectory(configuration.Authors, configuration.DefaultAuthor, configuration.AuthorEmailDomain)
	require.NoError(testInstance, authorsError)

	_, email := authors.ResolveAuthor("alice")
	require.Equal(testInstance, "alice@example.com", email)
}

func TestReadmePlanManifestLoads(testInstance *testing.T) {
	snippetContent := extractSnippet(testInstance, readReadme(testInstance), planHeaderMarkerConstant)

	filesystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(filesystem, readmePlanPathConstant, []byte(snippetContent), 0o644))

	loader, loaderError := plans.NewLoader(filesystem, nil)
	require.NoError(testInstance, loaderError)

	provider, loadError := loader.Load(readmePlanPathConstant)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, expectedReadmePlanCount, provider.PlanCount())
	require.Equal(testInstance, history.TagOwner("v1.0"), provider.Tags[0].Owner)
	require.Equal(testInstance, history.BranchOwner("feature"), provider.Tags[0].Anchor.BaseOwner)
}
