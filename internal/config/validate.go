package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/soyeahso/sidekick/internal/hooks"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Assistant.CommandPrefix != "" && strings.ContainsAny(cfg.Assistant.CommandPrefix, " \t\n") {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.commandPrefix",
			Message: "must not contain whitespace",
		})
	}
	for _, perm := range cfg.Assistant.DefaultPermissions {
		if strings.TrimSpace(perm) == "" {
			issues = append(issues, ValidationIssue{
				Path:    "assistant.defaultPermissions",
				Message: "permissions must not be empty",
			})
			break
		}
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	issues = oneOf(issues, "gateway.bind", cfg.Gateway.Bind, "loopback", "lan", "custom")
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.host",
			Message: "required when bind is custom",
		})
	}
	issues = oneOf(issues, "gateway.auth.mode", cfg.Gateway.Auth.Mode, "token", "password", "none")

	// Logging validation
	levels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	issues = oneOf(issues, "logging.level", cfg.Logging.Level, levels...)
	issues = oneOf(issues, "logging.consoleLevel", cfg.Logging.ConsoleLevel, levels...)
	issues = oneOf(issues, "logging.consoleStyle", cfg.Logging.ConsoleStyle, "pretty", "compact", "json")

	// Session validation
	issues = oneOf(issues, "session.scope", cfg.Session.Scope, "per-sender", "per-chat")
	issues = oneOf(issues, "session.store", cfg.Session.Store, "memory", "sqlite", "redis")
	if cfg.Session.IdleMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.idleMinutes",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.IdleMinutes),
		})
	}
	if cfg.Session.Store == "redis" && cfg.Session.RedisURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "session.redisUrl",
			Message: "required when store is redis",
		})
	}

	// IRC validation (only if configured)
	if cfg.Channels.IRC != nil {
		irc := cfg.Channels.IRC
		if irc.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.server",
				Message: "server is required",
			})
		}
		if irc.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.nick",
				Message: "nick is required",
			})
		}
		if irc.Port < 0 || irc.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", irc.Port),
			})
		}
		if irc.SASL && irc.Password == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.sasl",
				Message: "SASL requires a password to be set",
			})
		}
	}

	// Hooks validation
	for _, event := range slices.Sorted(maps.Keys(cfg.Hooks)) {
		if !slices.Contains(hooks.AllEvents, hooks.Event(event)) {
			issues = append(issues, ValidationIssue{
				Path:    "hooks." + event,
				Message: "unknown hook event",
			})
		}
		for i, entry := range cfg.Hooks[event] {
			if strings.TrimSpace(entry.Command) == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("hooks.%s[%d].command", event, i),
					Message: "command is required",
				})
			}
		}
	}

	return issues
}

func oneOf(issues []ValidationIssue, path, value string, valid ...string) []ValidationIssue {
	if value == "" || slices.Contains(valid, value) {
		return issues
	}
	return append(issues, ValidationIssue{
		Path:    path,
		Message: fmt.Sprintf("must be one of %v, got %q", valid, value),
	})
}
