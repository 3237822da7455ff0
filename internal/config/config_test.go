package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/sidekick/internal/flow"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "Sidekick", cfg.Assistant.Name)
	assert.Equal(t, "/", cfg.Assistant.CommandPrefix)
	assert.Equal(t, 400, cfg.Assistant.ThinkingDelayMs)
	assert.Equal(t, "dashboard", cfg.Assistant.DefaultPage)
	assert.Equal(t, "fr", cfg.Assistant.Locale)
	assert.Equal(t, flow.DefaultVocabulary(), cfg.Assistant.Vocabulary)
	assert.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "token", cfg.Gateway.Auth.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "per-sender", cfg.Session.Scope)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.Equal(t, "memory", cfg.Session.Store)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	yaml := `
assistant:
  name: Alfred
  commandPrefix: "!"
  thinkingDelayMs: -1
  defaultPermissions: ["tasks.view", "tasks.create"]
  vocabulary:
    affirm: ["yep"]
gateway:
  port: 9999
  bind: lan
  auth:
    mode: password
    password: secret123
logging:
  level: debug
  consoleStyle: json
session:
  scope: per-chat
  idleMinutes: 60
  store: sqlite
channels:
  irc:
    server: irc.libera.chat
    port: 6697
    nick: testbot
    channels:
      - "#general"
      - "#dev"
    useTLS: true
hooks:
  flow_completed:
    - command: "logger flow done"
      timeout: 500
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Alfred", cfg.Assistant.Name)
	assert.Equal(t, "!", cfg.Assistant.CommandPrefix)
	assert.Equal(t, -1, cfg.Assistant.ThinkingDelayMs)
	assert.Equal(t, []string{"tasks.view", "tasks.create"}, cfg.Assistant.DefaultPermissions)
	assert.Equal(t, []string{"yep"}, cfg.Assistant.Vocabulary.Affirm)
	assert.Equal(t, flow.DefaultVocabulary().Cancel, cfg.Assistant.Vocabulary.Cancel, "missing lists fall back to defaults")

	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "password", cfg.Gateway.Auth.Mode)
	assert.Equal(t, "secret123", cfg.Gateway.Auth.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Equal(t, "info", cfg.Logging.ConsoleLevel)
	assert.Equal(t, "per-chat", cfg.Session.Scope)
	assert.Equal(t, 60, cfg.Session.IdleMinutes)
	assert.Equal(t, "sqlite", cfg.Session.Store)

	require.NotNil(t, cfg.Channels.IRC)
	assert.Equal(t, "irc.libera.chat", cfg.Channels.IRC.Server)
	assert.Equal(t, 6697, cfg.Channels.IRC.Port)
	assert.Equal(t, []string{"#general", "#dev"}, cfg.Channels.IRC.Channels)
	assert.True(t, cfg.Channels.IRC.UseTLS)

	require.Len(t, cfg.Hooks["flow_completed"], 1)
	assert.Equal(t, 500, cfg.Hooks["flow_completed"][0].Timeout)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SIDEKICK_GATEWAY_PORT", "12345")
	t.Setenv("SIDEKICK_LOG_LEVEL", "TRACE")
	t.Setenv("SIDEKICK_SESSION_STORE", "Redis")
	t.Setenv("SIDEKICK_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("SIDEKICK_THINKING_DELAY_MS", "0")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Gateway.Port)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Session.RedisURL)
	assert.Equal(t, 0, cfg.Assistant.ThinkingDelayMs)
}

func TestLoadEnvOverrideBadPortIgnored(t *testing.T) {
	t.Setenv("SIDEKICK_GATEWAY_PORT", "not-a-port")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
}

func TestLoadExpandsSecrets(t *testing.T) {
	t.Setenv("TEST_GW_TOKEN", "tok-123")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
gateway:
  auth:
    token: "${TEST_GW_TOKEN}"
    password: "${SIDEKICK_TEST_UNSET_VAR}"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.Gateway.Auth.Token)
	assert.Equal(t, "${SIDEKICK_TEST_UNSET_VAR}", cfg.Gateway.Auth.Password)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	missing, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, SaveRaw(path, map[string]any{
		"assistant": map[string]any{"name": "Alfred"},
	}))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"assistant", "name"})
	assert.True(t, ok)
	assert.Equal(t, "Alfred", val)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Alfred", cfg.Assistant.Name)
}

func TestConfigVocabulary(t *testing.T) {
	var cfg Config
	assert.Equal(t, flow.DefaultVocabulary(), cfg.Vocabulary())
}
