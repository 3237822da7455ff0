package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/channel"
	"github.com/soyeahso/sidekick/internal/channel/irc"
	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/gateway"
	"github.com/soyeahso/sidekick/internal/logging"
	"github.com/soyeahso/sidekick/internal/routing"
)

const channelStopTimeout = 5 * time.Second

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Manage the Sidekick gateway server",
	}

	cmd.AddCommand(newGatewayRunCmd())
	return cmd
}

func newGatewayRunCmd() *cobra.Command {
	var (
		port  int
		bind  string
		store string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if store != "" {
				cfg.Session.Store = store
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// The gateway logs to a rotating file as well as the console
			// unless --log-level was given.
			if logLevel == "" {
				file := cfg.Logging.File
				if file == "" {
					file = filepath.Join(paths.Logs, "gateway.log")
				}
				if err := paths.EnsureDirs(); err != nil {
					return err
				}
				var closer io.Closer
				log, closer = logging.NewWithFile(cfg.Logging.Level, cfg.Logging.ConsoleLevel, cfg.Logging.ConsoleStyle,
					logging.FileOptions{Path: file, Compress: true})
				defer closer.Close()
			}

			// Load raw config for RPC access
			raw, err := config.LoadRaw(paths.Config)
			if err != nil {
				raw = make(map[string]any)
			}

			// cancelled on SIGINT/SIGTERM by main
			ctx := cmd.Context()

			eng, err := newEngine(ctx, cfg, paths, log)
			if err != nil {
				return err
			}
			defer eng.Close()
			go purgeLoop(ctx, eng.flows, purgeInterval, log)

			channels := channel.NewRegistry(log)
			if cfg.Channels.IRC != nil {
				channels.Register(irc.New(*cfg.Channels.IRC, log))
			}

			srv := gateway.New(cfg, log,
				gateway.WithConfigRaw(raw),
				gateway.WithHooks(eng.hooks),
				gateway.WithRunner(eng.runner),
				gateway.WithPlugins(eng.plugins),
				gateway.WithChannels(channels),
			)

			// Start channels and wire message routing
			if channels.Count() > 0 {
				router := routing.NewRouter(channels, eng.runner, routing.Config{
					Scope:       cfg.Session.Scope,
					Permissions: cfg.Assistant.DefaultPermissions,
					DefaultPage: cfg.Assistant.DefaultPage,
					Locale:      cfg.Assistant.Locale,
					Idle:        time.Duration(cfg.Session.IdleMinutes) * time.Minute,
				}, log)
				router.Wire(ctx)
				defer router.Wait()

				if err := channels.StartAll(ctx); err != nil {
					return fmt.Errorf("starting channels: %w", err)
				}
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), channelStopTimeout)
					defer cancel()
					channels.StopAll(stopCtx)
				}()

				log.Info().
					Int("channels", channels.Count()).
					Str("scope", cfg.Session.Scope).
					Msg("message routing active")
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	cmd.Flags().StringVar(&store, "store", "", "override flow store (memory, sqlite, redis)")

	return cmd
}
