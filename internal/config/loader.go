package config

import (
	"cmp"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/sidekick/internal/flow"
)

const (
	DefaultGatewayPort   = 18790
	DefaultCommandPrefix = "/"
	DefaultThinkingDelay = 400
	DefaultAssistantName = "Sidekick"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets credentials be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	cfg.Session.RedisURL = expandEnvVars(cfg.Session.RedisURL)
	if cfg.Channels.IRC != nil {
		cfg.Channels.IRC.Password = expandEnvVars(cfg.Channels.IRC.Password)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Defaults(), err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// setDefault assigns def to a zero field.
func setDefault[T comparable](field *T, def T) {
	*field = cmp.Or(*field, def)
}

func applyDefaults(cfg *Config) {
	a := &cfg.Assistant
	setDefault(&a.Name, DefaultAssistantName)
	setDefault(&a.CommandPrefix, DefaultCommandPrefix)
	setDefault(&a.ThinkingDelayMs, DefaultThinkingDelay)
	setDefault(&a.DefaultPage, "dashboard")
	setDefault(&a.Locale, "fr")
	a.Vocabulary = a.Vocabulary.WithDefaults()

	g := &cfg.Gateway
	setDefault(&g.Port, DefaultGatewayPort)
	setDefault(&g.Bind, "loopback")
	setDefault(&g.Auth.Mode, "token")

	l := &cfg.Logging
	setDefault(&l.Level, "info")
	setDefault(&l.ConsoleLevel, "info")
	setDefault(&l.ConsoleStyle, "pretty")

	sc := &cfg.Session
	setDefault(&sc.Scope, "per-sender")
	setDefault(&sc.IdleMinutes, 30)
	setDefault(&sc.Store, "memory")
}

// envOverrides map SIDEKICK_* variables onto config fields. Unparsable
// numbers are ignored.
var envOverrides = map[string]func(cfg *Config, v string){
	"SIDEKICK_GATEWAY_PORT":      func(c *Config, v string) { atoiInto(&c.Gateway.Port, v) },
	"SIDEKICK_GATEWAY_BIND":      func(c *Config, v string) { c.Gateway.Bind = v },
	"SIDEKICK_GATEWAY_TOKEN":     func(c *Config, v string) { c.Gateway.Auth.Token = v },
	"SIDEKICK_LOG_LEVEL":         func(c *Config, v string) { c.Logging.Level = strings.ToLower(v) },
	"SIDEKICK_SESSION_STORE":     func(c *Config, v string) { c.Session.Store = strings.ToLower(v) },
	"SIDEKICK_REDIS_URL":         func(c *Config, v string) { c.Session.RedisURL = v },
	"SIDEKICK_THINKING_DELAY_MS": func(c *Config, v string) { atoiInto(&c.Assistant.ThinkingDelayMs, v) },
}

func applyEnvOverrides(cfg *Config) {
	for name, apply := range envOverrides {
		if v := os.Getenv(name); v != "" {
			apply(cfg, v)
		}
	}
}

func atoiInto(dst *int, s string) {
	if n, err := strconv.Atoi(s); err == nil {
		*dst = n
	}
}

// Vocabulary returns the flow vocabulary with defaults filled in.
func (c Config) Vocabulary() flow.Vocabulary {
	return c.Assistant.Vocabulary.WithDefaults()
}
