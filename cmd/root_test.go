package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_ListsSubcommands(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"login", "requests", "explain", "decide", "chat", "policy", "submit"} {
		assert.Contains(t, out, name)
	}
}

func TestVersionCommand(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "creditdesk "+GetVersion()+"\n", out)

	out, err = run(t, "version", "--output", "json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, GetVersion(), v["version"])
}

func TestUnknownCommandFails(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "frobnicate")
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setupCLI(t)
	viper.Set("api.baseURL", nil)

	require.NoError(t, loadConfig())
	cfg := GetConfig()
	assert.Equal(t, config.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.API.TimeoutSeconds)
	assert.Equal(t, int(config.DefaultBankerInterval.Seconds()), cfg.Poll.BankerIntervalSeconds)
	assert.Equal(t, int(config.DefaultClientInterval.Seconds()), cfg.Poll.ClientIntervalSeconds)
	assert.Equal(t, "text", cfg.Render.Output)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.True(t, cfg.Policy.Enabled)
	assert.Equal(t, testSessionFile, cfg.Session.File)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	env := setupCLI(t)
	path := filepath.Join(env.dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll:\n  bankerIntervalSeconds: 5\nrender:\n  maxItems: 3\n"), 0o600))
	viper.Set("config", path)

	require.NoError(t, loadConfig())
	assert.Equal(t, 5, GetConfig().Poll.BankerIntervalSeconds)
	assert.Equal(t, 3, GetConfig().Render.MaxItems)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("bad base URL", func(t *testing.T) {
		setupCLI(t)
		viper.Set("api.baseURL", "not a url")
		assert.Error(t, loadConfig())
	})
	t.Run("bad output format", func(t *testing.T) {
		setupCLI(t)
		viper.Set("render.output", "xml")
		assert.Error(t, loadConfig())
	})
	t.Run("missing explicit file", func(t *testing.T) {
		env := setupCLI(t)
		viper.Set("config", filepath.Join(env.dir, "absent.yaml"))
		err := loadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})
}
