package config

import "github.com/soyeahso/sidekick/internal/flow"

// Config is the root configuration for Sidekick.
type Config struct {
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Channels  ChannelsConfig  `yaml:"channels,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Hooks     HooksConfig     `yaml:"hooks,omitempty"`
}

// AssistantConfig controls how messages are resolved.
type AssistantConfig struct {
	Name               string          `yaml:"name,omitempty"`
	CommandPrefix      string          `yaml:"commandPrefix,omitempty"`
	ThinkingDelayMs    int             `yaml:"thinkingDelayMs,omitempty"` // negative disables the delay
	DefaultPage        string          `yaml:"defaultPage,omitempty"`
	DefaultPermissions []string        `yaml:"defaultPermissions,omitempty"` // granted to channel users with no context
	Locale             string          `yaml:"locale,omitempty"`
	Vocabulary         flow.Vocabulary `yaml:"vocabulary,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port int         `yaml:"port,omitempty"`
	Bind string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host string      `yaml:"host,omitempty"` // used when bind is "custom"
	Auth GatewayAuth `yaml:"auth,omitempty"`

	// AllowedOrigins lists browser origins allowed to open the WebSocket.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password" | "none"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ChannelsConfig defines channel-specific configurations.
type ChannelsConfig struct {
	IRC *IRCConfig `yaml:"irc,omitempty"`
}

// IRCConfig defines IRC channel settings.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
	Allow    []string `yaml:"allow,omitempty"` // nicks allowed to talk to the bot; empty allows everyone
}

// SessionConfig defines where active flows live between turns.
type SessionConfig struct {
	Scope       string `yaml:"scope,omitempty"` // "per-sender" | "per-chat"
	IdleMinutes int    `yaml:"idleMinutes,omitempty"`
	Store       string `yaml:"store,omitempty"` // "memory" | "sqlite" | "redis"
	RedisURL    string `yaml:"redisUrl,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleLevel string `yaml:"consoleLevel,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// HooksConfig maps hook event names to shell commands.
type HooksConfig map[string][]HookEntry

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
