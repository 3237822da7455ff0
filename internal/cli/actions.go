package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/config"
)

func newActionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the actions and commands the assistant knows",
	}

	cmd.AddCommand(newActionsListCmd())
	cmd.AddCommand(newActionsCommandsCmd())
	return cmd
}

func newActionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actions with their permission, flow and invoker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			cfg.Session.Store = "memory"

			eng, err := newEngine(cmd.Context(), cfg, paths, quietLog())
			if err != nil {
				return err
			}
			defer eng.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTION\tCATEGORY\tPERMISSION\tFLOW\tINVOKER")
			for _, def := range eng.stack.Intents.All() {
				perm := def.Permission
				if perm == "" {
					perm = "-"
				}
				_, hasFlow := eng.stack.Flows.Get(def.Action)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					def.Action, def.Category, perm, yesNo(hasFlow), yesNo(eng.stack.Executor.Has(def.Action)))
			}
			return tw.Flush()
		},
	}
}

func newActionsCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the prefix commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			cfg.Session.Store = "memory"

			eng, err := newEngine(cmd.Context(), cfg, paths, quietLog())
			if err != nil {
				return err
			}
			defer eng.Close()

			p := eng.stack.Commands
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range p.Commands() {
				usage := c.Usage
				if usage == "" {
					usage = p.Prefix() + c.Name
				}
				fmt.Fprintf(tw, "%s\t%s\n", usage, c.Description)
			}
			return tw.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
