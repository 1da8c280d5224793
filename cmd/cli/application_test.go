package cli_test

import (
	"bytes"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/svnport/cmd/cli"
	"github.com/temirov/svnport/internal/migrate"
	"github.com/temirov/svnport/internal/utils"
)

const (
	testMigrateConfigurationKeyConstant = "tools.migrate"
	testCommonLogLevelKeyConstant       = "common.log_level"
	testCommonLogFormatKeyConstant      = "common.log_format"
)

func loadEmbeddedConfiguration(t *testing.T) *viper.Viper {
	t.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.NotEmpty(t, configurationData)

	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(t, viperInstance.ReadConfig(bytes.NewReader(configurationData)))
	return viperInstance
}

func TestEmbeddedDefaultsMatchCommandDefaults(t *testing.T) {
	viperInstance := loadEmbeddedConfiguration(t)

	require.Equal(t, string(utils.LogLevelInfo), viperInstance.GetString(testCommonLogLevelKeyConstant))
	require.Equal(t, string(utils.LogFormatStructured), viperInstance.GetString(testCommonLogFormatKeyConstant))

	var configuration migrate.CommandConfiguration
	require.NoError(t, mapstructure.Decode(viperInstance.GetStringMap(testMigrateConfigurationKeyConstant), &configuration))

	defaults := migrate.DefaultCommandConfiguration()
	require.Equal(t, defaults.RepositoryPath, configuration.RepositoryPath)
	require.Equal(t, defaults.Adapter, configuration.Adapter)
	require.Equal(t, defaults.DefaultAuthor, configuration.DefaultAuthor)
	require.Equal(t, defaults.AuthorEmailDomain, configuration.AuthorEmailDomain)
	require.Equal(t, defaults.SkipCompaction, configuration.SkipCompaction)
	require.Empty(t, configuration.PlanPath)
	require.Empty(t, configuration.RevisionMapPath)
	require.Empty(t, configuration.Authors)
}

func TestEmbeddedDefaultConfigurationReturnsCopy(t *testing.T) {
	firstCopy, _ := cli.EmbeddedDefaultConfiguration()
	firstCopy[0] = '#'

	secondCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(t, firstCopy[0], secondCopy[0])
}
