package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ATLAS_PROFILE", "ATLAS_API_BASE_URL", "ATLAS_TIMEOUT_SECONDS", "ATLAS_CHAT_PROVIDER", "ATLAS_OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".atlas", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Equal(t, DefaultProfileName, cfg.ActiveProfile)
	assert.Equal(t, DefaultBaseURL, cfg.Current().APIBaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Current().Timeout())
	assert.Equal(t, DefaultOpenAIModel, cfg.Current().Model())
}

func TestSaveAndSwitchProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	cfg.Profiles["local"] = Profile{APIBaseURL: "http://localhost:7860", TimeoutSeconds: 5}
	require.NoError(t, cfg.Use("Local"))
	require.NoError(t, cfg.Save())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "local", reloaded.ActiveProfile)
	assert.Equal(t, "http://localhost:7860", reloaded.Current().APIBaseURL)
	assert.Equal(t, 5*time.Second, reloaded.Current().Timeout())

	assert.ErrorIs(t, cfg.Use("missing"), ErrUnknownProfile)
}

func TestEnvironmentOverridesActiveProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := LoadFrom(path)
	require.NoError(t, err)

	t.Setenv("ATLAS_API_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("ATLAS_TIMEOUT_SECONDS", "12")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Current().APIBaseURL)
	assert.Equal(t, 12*time.Second, cfg.Current().Timeout())
	assert.Equal(t, DefaultBaseURL, cfg.Profiles[DefaultProfileName].APIBaseURL, "overrides are not persisted")
}

func TestEnvironmentSelectsProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	cfg.Profiles["staging"] = Profile{APIBaseURL: "https://staging.example.com"}
	require.NoError(t, cfg.Save())

	t.Setenv("ATLAS_PROFILE", "staging")
	cfg, err = LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.Current().APIBaseURL)

	t.Setenv("ATLAS_PROFILE", "nope")
	_, err = LoadFrom(path)
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestProfileValidation(t *testing.T) {
	assert.NoError(t, DefaultProfile().Validate())
	assert.Error(t, Profile{APIBaseURL: "not a url"}.Validate())
	assert.Error(t, Profile{APIBaseURL: DefaultBaseURL, ChatProvider: "carrier-pigeon"}.Validate())
	assert.Error(t, Profile{APIBaseURL: DefaultBaseURL, ChatProvider: ProviderOpenAI}.Validate())
	assert.NoError(t, Profile{APIBaseURL: DefaultBaseURL, ChatProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test"}.Validate())
}

func TestInvalidActiveProfileFailsLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"profiles":{"bad":{"api_base_url":"::"}},"active_profile":"bad"}`), 0o600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
