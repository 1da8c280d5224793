package utils_test

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/svnport/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTSVNPORT"
	testLogLevelKeyConstant                        = "common.log_level"
	testSkipCompactionKeyConstant                  = "tools.migrate.skip_compaction"
	testDefaultLogLevelConstant                    = "info"
	testConfiguredLogLevelConstant                 = "debug"
	testOverriddenLogLevelConstant                 = "error"
	testFileLogLevelConstant                       = "warn"
	testEmbeddedLogLevelConstant                   = "debug"
	testWorkingDirectoryConstant                   = "/work"
	testUserDirectoryConstant                      = "/home/user/.svnport"
	testExplicitConfigurationPathConstant          = "/elsewhere/custom.yaml"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "common:\n  log_level: %s\n"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	Tools  configurationToolsFixture  `mapstructure:"tools"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationToolsFixture struct {
	Migrate configurationMigrateFixture `mapstructure:"migrate"`
}

type configurationMigrateFixture struct {
	SkipCompaction bool `mapstructure:"skip_compaction"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileDirectory       string
		explicitFilePath    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
		expectedFileUsed    string
	}{
		{
			name:             "embedded_configuration_merges",
			embeddedLogLevel: testEmbeddedLogLevelConstant,
			expectedLogLevel: testEmbeddedLogLevelConstant,
		},
		{
			name:             "defaults_are_applied",
			expectedLogLevel: testDefaultLogLevelConstant,
		},
		{
			name:             "working_directory_file_overrides_embedded",
			embeddedLogLevel: testDefaultLogLevelConstant,
			fileDirectory:    testWorkingDirectoryConstant,
			fileLogLevel:     testConfiguredLogLevelConstant,
			expectedLogLevel: testConfiguredLogLevelConstant,
			expectedFileUsed: testWorkingDirectoryConstant + "/" + testConfigFileNameConstant,
		},
		{
			name:             "user_directory_is_searched",
			fileDirectory:    testUserDirectoryConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
			expectedFileUsed: testUserDirectoryConstant + "/" + testConfigFileNameConstant,
		},
		{
			name:             "explicit_file_is_used",
			explicitFilePath: testExplicitConfigurationPathConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
			expectedFileUsed: testExplicitConfigurationPathConstant,
		},
		{
			name:                "environment_overrides_file",
			embeddedLogLevel:    testDefaultLogLevelConstant,
			fileDirectory:       testWorkingDirectoryConstant,
			fileLogLevel:        testFileLogLevelConstant,
			environmentLogLevel: testOverriddenLogLevelConstant,
			expectedLogLevel:    testOverriddenLogLevelConstant,
			expectedFileUsed:    testWorkingDirectoryConstant + "/" + testConfigFileNameConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			filesystem := afero.NewMemMapFs()
			configurationContent := []byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel))
			if len(testCase.fileDirectory) > 0 {
				require.NoError(testInstance, afero.WriteFile(filesystem, testCase.fileDirectory+"/"+testConfigFileNameConstant, configurationContent, 0o600))
			}
			if len(testCase.explicitFilePath) > 0 {
				require.NoError(testInstance, afero.WriteFile(filesystem, testCase.explicitFilePath, configurationContent, 0o600))
			}

			configurationLoader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{testWorkingDirectoryConstant, testUserDirectoryConstant},
			)
			configurationLoader.SetFilesystem(filesystem)
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}
			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(configurationLoader.EnvironmentVariableName(testLogLevelKeyConstant), testCase.environmentLogLevel)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(testCase.explicitFilePath, map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)

			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, testCase.expectedFileUsed, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderEnvironmentVariableName(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	require.Equal(testInstance, "TESTSVNPORT_COMMON_LOG_LEVEL", configurationLoader.EnvironmentVariableName(testLogLevelKeyConstant))
	require.Equal(testInstance, "TESTSVNPORT_TOOLS_MIGRATE_SKIP_COMPACTION", configurationLoader.EnvironmentVariableName(testSkipCompactionKeyConstant))
}

func TestConfigurationLoaderBooleanEnvironmentOverride(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	configurationLoader.SetFilesystem(afero.NewMemMapFs())
	testInstance.Setenv(configurationLoader.EnvironmentVariableName(testSkipCompactionKeyConstant), "true")

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", map[string]any{testSkipCompactionKeyConstant: false}, &loadedConfiguration)

	require.NoError(testInstance, loadError)
	require.True(testInstance, loadedConfiguration.Tools.Migrate.SkipCompaction)
}

func TestConfigurationLoaderRejectsMalformedFile(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(filesystem, testExplicitConfigurationPathConstant, []byte("common: [broken"), 0o600))
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	configurationLoader.SetFilesystem(filesystem)

	_, loadError := configurationLoader.LoadConfiguration(testExplicitConfigurationPathConstant, nil, &configurationFixture{})

	require.Error(testInstance, loadError)
}
