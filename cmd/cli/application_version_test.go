package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationVersionFlagPrintsVersionAndExits(t *testing.T) {
	application := NewApplication()
	application.versionResolver = func(context.Context) string {
		return "v2.0.0"
	}

	exitCode := -1
	sentinel := "version-exit"
	application.exitFunction = func(code int) {
		exitCode = code
		panic(sentinel)
	}

	var output bytes.Buffer
	application.rootCommand.SetOut(&output)
	application.rootCommand.SetArgs([]string{"--version"})

	require.PanicsWithValue(t, sentinel, func() {
		_ = application.Execute()
	})

	require.Equal(t, "svnport version: v2.0.0\n", output.String())
	require.Equal(t, 0, exitCode)
}

func TestResolveVersionPrefersStampedVersion(t *testing.T) {
	originalVersion := Version
	t.Cleanup(func() {
		Version = originalVersion
	})

	Version = "v1.2.3"
	require.Equal(t, "v1.2.3", resolveVersion(context.Background()))

	Version = ""
	require.NotEmpty(t, resolveVersion(context.Background()))
}
