package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "inboxwatch", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "serve")
	assert.Contains(t, commandNames, "authorize")
	assert.Contains(t, commandNames, "watch")
	assert.Contains(t, commandNames, "credentials")
	assert.Contains(t, commandNames, "keygen")
	assert.Contains(t, commandNames, "version")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version, "empty keeps the current version")
}

func TestLoadApp_NoBootstrap(t *testing.T) {
	ta := setupTestApp(t)
	bootstrap = nil

	_, err := run(t, "credentials", "list", "--config", ta.configPath)
	assert.ErrorIs(t, err, errNoBootstrap)
}

func TestLoadApp_InvalidConfig(t *testing.T) {
	setupTestApp(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[google]\nclient_id = \"\"\n"), 0600))
	t.Setenv("GOOGLE_CLIENT_ID", "")

	_, err := run(t, "credentials", "list", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadApp_MissingConfig(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "credentials", "list", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
