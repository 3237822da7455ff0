package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Sidekick status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			b := version.Current()
			fmt.Fprintf(w, "Sidekick %s (commit %s)\n\n", b.Version, b.Commit)

			// Show paths
			fmt.Fprintf(w, "Config:    %s\n", paths.Config)
			fmt.Fprintf(w, "Data:      %s\n", paths.Data)
			fmt.Fprintf(w, "Logs:      %s\n", paths.Logs)
			fmt.Fprintln(w)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(w, "Config:    not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(w, "Config:    error loading: %v\n", err)
				return nil
			}

			a := cfg.Assistant
			fmt.Fprintf(w, "Assistant: name=%s prefix=%s locale=%s delay=%dms\n",
				a.Name, a.CommandPrefix, a.Locale, a.ThinkingDelayMs)
			perms := "(none)"
			if len(a.DefaultPermissions) > 0 {
				perms = strings.Join(a.DefaultPermissions, ",")
			}
			fmt.Fprintf(w, "Channels:  default permissions=%s page=%s\n", perms, a.DefaultPage)

			fmt.Fprintf(w, "Gateway:   port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)
			fmt.Fprintf(w, "Session:   store=%s scope=%s idle=%dm\n",
				cfg.Session.Store, cfg.Session.Scope, cfg.Session.IdleMinutes)

			if cfg.Channels.IRC != nil {
				irc := cfg.Channels.IRC
				fmt.Fprintf(w, "IRC:       server=%s nick=%s channels=%s tls=%v\n",
					irc.Server, irc.Nick, strings.Join(irc.Channels, ","), irc.UseTLS)
			} else {
				fmt.Fprintln(w, "IRC:       (not configured)")
			}

			hookCount := 0
			for _, entries := range cfg.Hooks {
				hookCount += len(entries)
			}
			fmt.Fprintf(w, "Hooks:     %d\n", hookCount)

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(w, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
