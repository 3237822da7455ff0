package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/sidekick/internal/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit ~/.sidekick/config.yaml",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the value stored at a dotted key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfigKey(args[0], false, func(raw map[string]any, key []string) error {
					v, ok := config.GetValueAtPath(raw, key)
					if !ok {
						return fmt.Errorf("key %q not found", args[0])
					}
					return printValue(cmd.OutOrStdout(), v)
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a value; booleans, numbers and comma lists are typed",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v := parseValue(args[1])
				err := withConfigKey(args[0], true, func(raw map[string]any, key []string) error {
					config.SetValueAtPath(raw, key, v)
					return nil
				})
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", args[0], v)
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := withConfigKey(args[0], true, func(raw map[string]any, key []string) error {
					if !config.UnsetValueAtPath(raw, key) {
						return fmt.Errorf("key %q not found", args[0])
					}
					return nil
				})
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets hidden",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(paths.Config)
				if err != nil {
					return err
				}
				redact(&cfg)
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
			},
		},
	)
	return cmd
}

// withConfigKey loads the raw config, hands fn the parsed key and writes the
// file back when save is set and fn succeeded.
func withConfigKey(dotted string, save bool, fn func(raw map[string]any, key []string) error) error {
	key, err := config.ParseConfigPath(dotted)
	if err != nil {
		return err
	}
	raw, err := config.LoadRaw(paths.Config)
	if err != nil {
		return err
	}
	if err := fn(raw, key); err != nil || !save {
		return err
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	return config.SaveRaw(paths.Config, raw)
}

func redact(cfg *config.Config) {
	hide := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	hide(&cfg.Gateway.Auth.Token)
	hide(&cfg.Gateway.Auth.Password)
	hide(&cfg.Session.RedisURL)
	if cfg.Channels.IRC != nil {
		irc := *cfg.Channels.IRC
		hide(&irc.Password)
		cfg.Channels.IRC = &irc
	}
}

// printValue writes scalars on one line and trees as YAML.
func printValue(w io.Writer, v any) error {
	switch v.(type) {
	case map[string]any, []any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

// parseValue types a command-line value: bool, int, float, then a comma
// list, falling back to the string itself.
func parseValue(s string) any {
	if b, ok := map[string]bool{"true": true, "false": false}[strings.ToLower(s)]; ok {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if !strings.Contains(s, ",") {
		return s
	}
	var list []any
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
