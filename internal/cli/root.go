// Package cli is the sidekick command line: the gateway server, terminal
// chat and config editing.
package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/config"
	"github.com/soyeahso/sidekick/internal/logging"
)

// Resolved by the root command before any subcommand runs.
var (
	paths config.Paths
	log   *logging.Logger
)

var (
	cfgFile  string
	logLevel string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "sidekick",
		Short:             "Sidekick, the in-app assistant engine",
		Long:              "Sidekick resolves assistant messages into actions and guided flows, over a WebSocket gateway, IRC or the terminal.",
		PersistentPreRunE: func(*cobra.Command, []string) error { return bootstrap() },
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $SIDEKICK_HOME/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "trace, debug, info, warn, error, fatal or silent")

	cmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newGatewayCmd(),
		newChatCmd(),
		newAskCmd(),
		newActionsCmd(),
	)
	return cmd
}

// bootstrap resolves paths, loads the .env file without overriding the
// process environment, and builds the console logger.
func bootstrap() error {
	p, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	if cfgFile != "" {
		p.Config = cfgFile
	}
	if err := godotenv.Load(p.Env); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	paths = p

	level := logLevel
	if level == "" {
		level = "info"
	}
	log = logging.New(nil, level)
	return nil
}

// Execute runs the command line. Long-running commands stop when ctx ends.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
